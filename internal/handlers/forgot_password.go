package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"TASKPILOT_BACK-END/internal/config"
	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/middleware"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/utils"
)

const (
	verificationCodeTTL      = 3 * time.Minute
	verificationCodeCooldown = time.Minute
)

// ForgotPasswordHandler drives the three-step password reset flow:
// request a code, verify it for a short-lived reset token, redeem the token.
type ForgotPasswordHandler struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	email         *utils.EmailService
	jwtCfg        *config.JWTConfig
}

// NewForgotPasswordHandler creates a new ForgotPasswordHandler
func NewForgotPasswordHandler(users repository.UserRepository, verifications repository.VerificationRepository, email *utils.EmailService, jwtCfg *config.JWTConfig) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		users:         users,
		verifications: verifications,
		email:         email,
		jwtCfg:        jwtCfg,
	}
}

// ForgotPassword handles the initial password reset request
// @Summary Request password reset
// @Description Send a 6-digit verification code to the user's email
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email address"
// @Success 200 {object} dto.ForgotPasswordResponse "Verification code sent"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Email not found"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/forgot-password [post]
func (h *ForgotPasswordHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.ForgotPasswordRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Email is required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Email not found", "No account registered with this email")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	// Rate limit resends per user.
	latest, err := h.verifications.GetLatest(r.Context(), user.ID, user.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	if latest != nil && time.Since(latest.CreatedAt) < verificationCodeCooldown {
		utils.WriteErrorResponse(w, http.StatusTooManyRequests, "Too many requests", "Please wait before requesting another code")
		return
	}

	code, err := generateVerificationCode()
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate code", err.Error())
		return
	}

	expiresAt := time.Now().Add(verificationCodeTTL)
	if err := h.verifications.Create(r.Context(), user.ID, user.Email, code, expiresAt); err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to store verification code", err.Error())
		return
	}

	if err := h.email.SendVerificationCode(user.Email, code); err != nil {
		log.Printf("Failed to send verification email to %s: %v", user.Email, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to send email", "Could not deliver the verification code")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.ForgotPasswordResponse{
		Message:   "Verification code sent to your email",
		Email:     user.Email,
		ExpiresIn: verificationCodeTTL.String(),
	})
}

// VerifyOTP exchanges a valid emailed code for a short-lived reset token
// @Summary Verify password reset code
// @Description Verify the emailed 6-digit code and receive a reset token
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Email and code"
// @Success 200 {object} dto.VerifyOTPResponse "Reset token issued"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code"
// @Failure 404 {object} dto.ErrorResponse "Email not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/verify-otp [post]
func (h *ForgotPasswordHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.VerifyOTPRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Email and code are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Email not found", "No account registered with this email")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	verification, err := h.verifications.GetLatest(r.Context(), user.ID, user.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid code", "No verification code was requested")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	if verification.Used || time.Now().After(verification.ExpiresAt) || verification.Code != req.Code {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid code", "Verification code is invalid or expired")
		return
	}

	token, err := middleware.GenerateResetToken(user.ID, user.Email, req.Code, h.jwtCfg)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate reset token", err.Error())
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.VerifyOTPResponse{
		Message:    "Code verified successfully",
		ResetToken: token,
		ExpiresIn:  h.jwtCfg.ResetTokenTTL.String(),
	})
}

// ResetPassword redeems a reset token and sets a new password
// @Summary Reset password
// @Description Set a new password using the reset token from code verification
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.ResetPasswordResponse "Password updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid or expired token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/reset-password [post]
func (h *ForgotPasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.ResetPasswordRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	if req.ResetToken == "" || req.NewPassword == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Reset token and new password are required")
		return
	}
	if len(req.NewPassword) < 6 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Password too short", "Password must be at least 6 characters long")
		return
	}

	claims, err := middleware.ValidateResetToken(req.ResetToken, h.jwtCfg)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid reset token", "Token is invalid or expired")
		return
	}

	// The token is single-use: the code it was minted from must still be
	// unredeemed and unexpired.
	verification, err := h.verifications.GetLatest(r.Context(), claims.UserID, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid reset token", "Verification record not found")
			return
		}
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	if verification.Used || time.Now().After(verification.ExpiresAt) || verification.Code != claims.Code {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid reset token", "Token has already been used or expired")
		return
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to hash password", err.Error())
		return
	}

	if err := h.users.UpdatePassword(r.Context(), claims.UserID, hashedPassword); err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to update password", err.Error())
		return
	}

	if err := h.verifications.MarkUsed(r.Context(), verification.ID); err != nil {
		log.Printf("Failed to mark verification %s as used: %v", verification.ID, err)
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.ResetPasswordResponse{
		Message: "Password reset successfully",
	})
}

// generateVerificationCode returns a random 6-digit code.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
