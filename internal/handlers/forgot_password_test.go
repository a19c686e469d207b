package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TASKPILOT_BACK-END/internal/config"
	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/middleware"
	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/utils"
)

type fakeVerificationRepo struct {
	rows []*models.Verification
}

func (f *fakeVerificationRepo) Create(ctx context.Context, userID uuid.UUID, email, code string, expiresAt time.Time) error {
	f.rows = append(f.rows, &models.Verification{
		ID:        uuid.New(),
		UserID:    userID,
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeVerificationRepo) GetLatest(ctx context.Context, userID uuid.UUID, email string) (*models.Verification, error) {
	var latest *models.Verification
	for _, v := range f.rows {
		if v.UserID != userID || v.Email != email {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVerificationRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	for _, v := range f.rows {
		if v.ID == id {
			v.Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---- helpers ----

var testJWTCfg = &config.JWTConfig{Secret: "test-secret", ResetTokenTTL: 10 * time.Minute}

func newForgotPasswordTestHandler(t *testing.T) (*ForgotPasswordHandler, *fakeUserRepo, *fakeVerificationRepo, *models.User) {
	t.Helper()
	users := newFakeUserRepo()
	verifications := &fakeVerificationRepo{}
	user := registerUser(t, users, "alice@example.com", "oldpassword")
	email := utils.NewEmailService(&config.EmailConfig{})
	return NewForgotPasswordHandler(users, verifications, email, testJWTCfg), users, verifications, user
}

func seedVerification(t *testing.T, repo *fakeVerificationRepo, user *models.User, code string, createdAgo time.Duration) *models.Verification {
	t.Helper()
	v := &models.Verification{
		ID:        uuid.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(verificationCodeTTL - createdAgo),
		CreatedAt: time.Now().Add(-createdAgo),
	}
	repo.rows = append(repo.rows, v)
	return v
}

// ---- tests ----

func TestForgotPassword_UnknownEmail(t *testing.T) {
	h, _, _, _ := newForgotPasswordTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", jsonBody(t, dto.ForgotPasswordRequest{
		Email: "nobody@example.com",
	}))
	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPassword_Cooldown(t *testing.T) {
	h, _, verifications, user := newForgotPasswordTestHandler(t)
	seedVerification(t, verifications, user, "123456", 10*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", jsonBody(t, dto.ForgotPasswordRequest{
		Email: user.Email,
	}))
	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestVerifyOTP_Success(t *testing.T) {
	h, _, verifications, user := newForgotPasswordTestHandler(t)
	seedVerification(t, verifications, user, "654321", 30*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", jsonBody(t, dto.VerifyOTPRequest{
		Email: user.Email,
		Code:  "654321",
	}))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.VerifyOTPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ResetToken)

	claims, err := middleware.ValidateResetToken(resp.ResetToken, testJWTCfg)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "654321", claims.Code)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	h, _, verifications, user := newForgotPasswordTestHandler(t)
	seedVerification(t, verifications, user, "654321", 30*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", jsonBody(t, dto.VerifyOTPRequest{
		Email: user.Email,
		Code:  "000000",
	}))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	h, _, verifications, user := newForgotPasswordTestHandler(t)
	seedVerification(t, verifications, user, "654321", verificationCodeTTL+time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", jsonBody(t, dto.VerifyOTPRequest{
		Email: user.Email,
		Code:  "654321",
	}))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPassword_RoundTrip(t *testing.T) {
	h, users, verifications, user := newForgotPasswordTestHandler(t)
	seedVerification(t, verifications, user, "654321", 30*time.Second)

	token, err := middleware.GenerateResetToken(user.ID, user.Email, "654321", testJWTCfg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", jsonBody(t, dto.ResetPasswordRequest{
		ResetToken:  token,
		NewPassword: "brand-new-password",
	}))
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword("brand-new-password", updated.PasswordHash))
	assert.False(t, utils.VerifyPassword("oldpassword", updated.PasswordHash))

	// The token is single-use.
	rec2 := httptest.NewRecorder()
	h.ResetPassword(rec2, httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", jsonBody(t, dto.ResetPasswordRequest{
		ResetToken:  token,
		NewPassword: "yet-another-password",
	})))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestResetPassword_BadToken(t *testing.T) {
	h, _, _, _ := newForgotPasswordTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", jsonBody(t, dto.ResetPasswordRequest{
		ResetToken:  "not-a-jwt",
		NewPassword: "brand-new-password",
	}))
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
