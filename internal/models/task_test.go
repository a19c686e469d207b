package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidTaskStatus(t *testing.T) {
	assert.True(t, ValidTaskStatus(TaskStatusPending))
	assert.True(t, ValidTaskStatus(TaskStatusInProgress))
	assert.True(t, ValidTaskStatus(TaskStatusCompleted))

	assert.False(t, ValidTaskStatus("all"))
	assert.False(t, ValidTaskStatus("done"))
	assert.False(t, ValidTaskStatus(""))
	assert.False(t, ValidTaskStatus("Pending"))
}

func TestSessionExpired(t *testing.T) {
	live := Session{ExpiresAt: time.Now().Add(time.Hour)}
	dead := Session{ExpiresAt: time.Now().Add(-time.Second)}

	assert.False(t, live.Expired())
	assert.True(t, dead.Expired())
}
