package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/store"
)

// totpIssuer names the service in authenticator apps.
const totpIssuer = "Storefront"

// SessionStore issues and revokes bearer sessions.
type SessionStore interface {
	Create(ctx context.Context, data *session.Data) (string, error)
	Destroy(ctx context.Context, token string) error
}

// UserRepository is the account storage used by Auth.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions SessionStore
	users    UserRepository
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionStore, users UserRepository) *Auth {
	return &Auth{
		sessions: sessions,
		users:    users,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *models.User `json:"user"`
}

// Register creates an account and signs it in. Self-registration may pick
// the user or seller role; admins are created out of band.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := apperr.Fields{}
	validateRegistration(fields, req.Name, req.Email, req.Password)
	role := models.RoleUser
	if req.Role != "" {
		role = models.Role(req.Role)
		if role != models.RoleUser && role != models.RoleSeller {
			fields.Add("role", "The selected role is invalid.")
		}
	}
	if err := fields.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.Create(r.Context(), req.Email, req.Password, req.Name, role)
	if errors.Is(err, store.ErrEmailTaken) {
		fields.Add("email", "The email has already been taken.")
		writeError(w, r, fields.Err())
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal(err, "create user"))
		return
	}

	token, err := a.issue(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, "User registered successfully", tokenResponse{
		Token:     token,
		TokenType: "bearer",
		User:      user,
	})
}

// Login checks credentials and returns a bearer token. Accounts with 2FA
// enabled must also present a current TOTP code.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := apperr.Fields{}
	if req.Email == "" {
		fields.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		fields.Add("password", "The password field is required.")
	}
	if err := fields.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "login lookup"))
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, r, apperr.Unauthorized("Invalid email or password."))
		return
	}

	if user.RequiresOTP() {
		if req.OTP == "" {
			writeError(w, r, apperr.Unauthorized("A one-time code is required."))
			return
		}
		if !totp.Validate(req.OTP, *user.TOTPSecret) {
			writeError(w, r, apperr.Unauthorized("Invalid one-time code."))
			return
		}
	}

	token, err := a.issue(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "Login successful", tokenResponse{
		Token:     token,
		TokenType: "bearer",
		User:      user,
	})
}

// MyProfile returns the authenticated user.
func (a *Auth) MyProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Profile retrieved successfully", user)
}

// Logout revokes the bearer token of the request.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromRequest(r)
	if token == "" {
		writeError(w, r, apperr.Unauthorized("Unauthenticated."))
		return
	}
	if err := a.sessions.Destroy(r.Context(), token); err != nil {
		writeError(w, r, apperr.Internal(err, "destroy session"))
		return
	}
	writeJSON(w, http.StatusOK, "Successfully logged out", nil)
}

// twoFASetupResponse carries everything an authenticator app needs.
type twoFASetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"` // base64-encoded PNG
}

// TwoFASetup generates a new TOTP secret for the user. 2FA stays disabled
// until TwoFAEnable confirms a code from it.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.TOTPEnabled {
		writeError(w, r, apperr.InvalidInput("Two-factor authentication is already enabled."))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		writeError(w, r, apperr.Internal(err, "totp generate"))
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		writeError(w, r, apperr.Internal(err, "save totp secret"))
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "qr code generation"))
		return
	}

	writeJSON(w, http.StatusOK, "Scan the QR code with your authenticator app", twoFASetupResponse{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAEnable confirms the pending secret with a code and turns on 2FA.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if user.TOTPSecret == nil {
		writeError(w, r, apperr.InvalidInput("Two-factor setup has not been started."))
		return
	}
	if user.TOTPEnabled {
		writeError(w, r, apperr.InvalidInput("Two-factor authentication is already enabled."))
		return
	}

	fields := apperr.Fields{}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		fields.Add("code", "The code field is required.")
	} else if !totp.Validate(code, *user.TOTPSecret) {
		fields.Add("code", "The code is invalid.")
	}
	if err := fields.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
		writeError(w, r, apperr.Internal(err, "enable totp"))
		return
	}

	slog.Info("two-factor enabled", "user_id", user.ID)
	writeJSON(w, http.StatusOK, "Two-factor authentication enabled", nil)
}

// currentUser loads the account behind the request session.
func (a *Auth) currentUser(r *http.Request) (*models.User, error) {
	sess, err := principal(r)
	if err != nil {
		return nil, err
	}
	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	if user == nil {
		return nil, apperr.Unauthorized("Unauthenticated.")
	}
	return user, nil
}

// issue opens a session for user and returns its token.
func (a *Auth) issue(ctx context.Context, user *models.User) (string, error) {
	token, err := a.sessions.Create(ctx, &session.Data{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	})
	if err != nil {
		return "", apperr.Internal(err, "create session")
	}
	return token, nil
}
