package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TASKPILOT_BACK-END/internal/models"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	sess := &models.Session{ID: "sid", UserID: user.ID}

	ctx := WithUser(context.Background(), user, sess)

	gotUser, ok := GetUserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, gotUser.ID)

	gotSess, ok := GetSessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "sid", gotSess.ID)

	gotID, ok := GetUserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, gotID)
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetUserFromContext(ctx)
	assert.False(t, ok)
	_, ok = GetSessionFromContext(ctx)
	assert.False(t, ok)
	_, ok = GetUserIDFromContext(ctx)
	assert.False(t, ok)
}
