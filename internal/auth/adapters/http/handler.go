package http

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

const LoginPath = "/api/auth/login"

// Error codes returned in the body of rejected logins.
const (
	CodeAuthFailed      = "AUTH_FAILED"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeMissingPassword = "MISSING_PASSWORD"
	CodeAuthError       = "AUTH_ERROR"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt string       `json:"expiresAt,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// TokenIssuer signs access tokens for freshly authenticated users.
type TokenIssuer interface {
	Issue(user domain.User) (string, time.Time, error)
}

// Handler serves the mock login endpoint: credentials are checked for shape
// only and every well-formed login gets a new user.
type Handler struct {
	issuer   TokenIssuer
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(issuer TokenIssuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		issuer:   issuer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Register binds the login handler to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(LoginPath, h.login)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if !validAuthHeader(r.Header) {
		writeError(w, http.StatusUnauthorized, errorResponse{
			Error:   "Authentication failed",
			Message: "Invalid authentication credentials",
			Code:    CodeAuthFailed,
		})
		return
	}

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Message: "Request body must be a JSON object with email and password",
			Code:    CodeInvalidRequest,
		})
		return
	}

	if err := domain.ValidateEmail(payload.Email); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid email format",
			Message: "Please provide a valid email address",
			Code:    CodeInvalidEmail,
		})
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing password",
			Message: "Please provide a password",
			Code:    CodeMissingPassword,
		})
		return
	}

	user := domain.NewUser(payload.Email)
	signed, expiresAt, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:   "Authentication failed",
			Message: "An error occurred during the authentication process",
			Code:    CodeAuthError,
		})
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		User:      &user,
		Token:     signed,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// validAuthHeader rejects the misspelt Authentication header when no
// Authorization header is sent, and any Authorization that is not a
// well-formed Basic credential.
func validAuthHeader(header http.Header) bool {
	authorization := header.Get("Authorization")
	if authorization == "" {
		return header.Get("Authentication") == ""
	}

	encoded, ok := strings.CutPrefix(authorization, "Basic ")
	if !ok {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return false
	}
	return strings.Contains(string(decoded), ":")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, payload errorResponse) {
	writeJSON(w, status, payload)
}
