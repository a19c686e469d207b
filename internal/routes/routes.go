package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"TASKPILOT_BACK-END/internal/handlers"
	"TASKPILOT_BACK-END/internal/middleware"
	"TASKPILOT_BACK-END/internal/session"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth           *handlers.AuthHandler
	GoogleAuth     *handlers.GoogleAuthHandler
	ForgotPassword *handlers.ForgotPasswordHandler
	Tasks          *handlers.TasksHandler
	Files          *handlers.FilesHandler
	Health         *handlers.HealthHandler
}

// SetupRoutes configures all application routes on a fresh mux. Everything
// under /api/tasks and /api/files, plus profile and logout, sits behind the
// session middleware.
func SetupRoutes(h Handlers, sessions *session.Manager) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check routes
	mux.HandleFunc("/healthz", h.Health.HealthCheck)
	mux.HandleFunc("/livez", h.Health.LivenessCheck)
	mux.HandleFunc("/readyz", h.Health.ReadinessCheck)

	// Authentication routes
	mux.HandleFunc("/api/auth/register", h.Auth.Register)
	mux.HandleFunc("/api/auth/login", h.Auth.Login)
	mux.HandleFunc("/api/auth/logout", middleware.SessionMiddleware(h.Auth.Logout, sessions))
	mux.HandleFunc("/api/auth/profile", middleware.SessionMiddleware(h.Auth.GetProfile, sessions))

	// Google OAuth routes
	mux.HandleFunc("/api/auth/google/login", h.GoogleAuth.GoogleLogin)
	mux.HandleFunc("/api/auth/google/callback", h.GoogleAuth.GoogleCallback)

	// Password reset routes
	mux.HandleFunc("/api/auth/forgot-password", h.ForgotPassword.ForgotPassword)
	mux.HandleFunc("/api/auth/verify-otp", h.ForgotPassword.VerifyOTP)
	mux.HandleFunc("/api/auth/reset-password", h.ForgotPassword.ResetPassword)

	// Task routes
	mux.HandleFunc("/api/tasks", middleware.SessionMiddleware(h.Tasks.Tasks, sessions))
	mux.HandleFunc("/api/tasks/", middleware.SessionMiddleware(h.Tasks.Tasks, sessions))

	// File routes
	mux.HandleFunc("/api/files/upload", middleware.SessionMiddleware(h.Files.UploadFile, sessions))
	mux.HandleFunc("/api/files/signed-url", middleware.SessionMiddleware(h.Files.GetSignedURL, sessions))

	// Swagger UI
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Root route
	mux.HandleFunc("/", rootHandler)

	return mux
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("TaskPilot backend is running."))
}
