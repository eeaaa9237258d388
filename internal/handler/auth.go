package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/config"
	"github.com/openvoyage/touring-api/internal/mailer"
	"github.com/openvoyage/touring-api/internal/middleware"
	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/utils"
)

// UserStore is the slice of the persistence layer the auth flows need.
// Satisfied by *repository.UserStore; tests substitute a fake.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uint64) error
	DeleteByID(ctx context.Context, id uint64) error
	UpdateByID(ctx context.Context, id uint64, patch map[string]any) (model.User, error)
}

// AuthHandler bundles dependencies for the account and session endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
	Mail  mailer.Sender
}

func NewAuthHandler(cfg config.Config, users UserStore, mail mailer.Sender) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mail: mail}
}

// invalidCredentials is deliberately identical for an unknown email, a
// deactivated account and a wrong password, so the endpoint cannot be used
// to enumerate accounts.
const invalidCredentials = "incorrect email or password"

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Role            string `json:"role"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
type updatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// issueSession signs a fresh session token for the user and also sets it as
// an http-only same-site cookie, so browser clients need not store the JWT
// themselves.
func (h *AuthHandler) issueSession(c echo.Context, userID uint64) (utils.SessionToken, error) {
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, userID, h.Cfg.SessionTTLMin)
	if err != nil {
		return utils.SessionToken{}, err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Expires:  tok.Exp,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return tok, nil
}

// Signup creates an account and logs it in immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return respondFail(c, http.StatusBadRequest, "name, email and password are required")
	}
	if len(req.Password) < 8 {
		return respondFail(c, http.StatusBadRequest, "password should be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return respondFail(c, http.StatusBadRequest, "passwords do not match")
	}
	// Self-registration never grants elevated roles.
	role := req.Role
	if role != model.RoleGuide {
		role = model.RoleUser
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Create(ctx, model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return respondErr(c, err)
	}

	tok, err := h.issueSession(c, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"token":  tok.Token,
		"data":   echo.Map{"user": u},
	})
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondFail(c, http.StatusBadRequest, "please provide email and password")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		// Unknown and deactivated accounts fail exactly like a bad password.
		return respondFail(c, http.StatusUnauthorized, invalidCredentials)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respondFail(c, http.StatusUnauthorized, invalidCredentials)
	}

	tok, err := h.issueSession(c, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "token": tok.Token})
}

// ForgotPassword generates a one-time reset token, stores only its digest
// and mails the plaintext link. If the mail cannot be delivered the stored
// digest is rolled back so no orphaned live token remains on the account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return respondFail(c, http.StatusBadRequest, "please provide your email address")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return respondFail(c, http.StatusNotFound, "there is no user with that email address")
	}

	reset, err := utils.NewResetToken(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Users.SetResetToken(ctx, u.ID, reset.Hash, reset.Exp); err != nil {
		return respondErr(c, err)
	}

	resetURL := c.Scheme() + "://" + c.Request().Host + "/api/v1/users/reset-password/" + reset.Raw
	if err := h.Mail.SendPasswordReset(ctx, u.Email, resetURL); err != nil {
		// The user never received the token, so it must not stay live.
		_ = h.Users.ClearResetToken(ctx, u.ID)
		c.Logger().Errorf("reset mail to %s failed: %v", u.Email, err)
		return respondFail(c, http.StatusBadGateway, "there was an error sending the email, please try again later")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "token sent to email"})
}

// ResetPassword consumes a one-time reset token and sets a new password.
// The lookup hashes the presented token and requires an unexpired window;
// consuming the token clears the stored digest, so a second presentation of
// the same plaintext fails.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	presented := c.Param("token")
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.Password) < 8 {
		return respondFail(c, http.StatusBadRequest, "password should be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return respondFail(c, http.StatusBadRequest, "passwords do not match")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByResetToken(ctx, utils.HashResetRaw(presented))
	if err != nil {
		return respondFail(c, http.StatusBadRequest, "token is invalid or has expired")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, err)
	}
	// Clears the reset fields and bumps password_changed_at in one statement.
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return respondErr(c, err)
	}

	tok, err := h.issueSession(c, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "token": tok.Token})
}

// UpdatePassword lets an authenticated user rotate their password. The
// fresh token in the response keeps this session valid despite the
// staleness rule cutting off every other one.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.PasswordCurrent) {
		return respondFail(c, http.StatusUnauthorized, "your current password is wrong")
	}
	if len(req.Password) < 8 {
		return respondFail(c, http.StatusBadRequest, "password should be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return respondFail(c, http.StatusBadRequest, "passwords do not match")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return respondErr(c, err)
	}
	tok, err := h.issueSession(c, u.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "token": tok.Token})
}
