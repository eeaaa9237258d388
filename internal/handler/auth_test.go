package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvoyage/touring-api/internal/config"
	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/repository"
	"github.com/openvoyage/touring-api/internal/utils"
)

func testCfg() config.Config {
	return config.Config{
		Env:           "test",
		JWTSecret:     "test-secret",
		SessionTTLMin: 60,
		ResetTTLMin:   10,
		BcryptCost:    4,
	}
}

// fakeUserStore keeps accounts in memory and mirrors the store's semantics:
// soft-deleted accounts are invisible to email lookups, reset lookups check
// the expiry window, and a password update bumps the change timestamp and
// consumes any pending reset token.
type fakeUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}}
}

func (s *fakeUserStore) add(u model.User) model.User {
	s.nextID++
	u.ID = s.nextID
	u.IsActive = true
	s.users[u.ID] = &u
	return u
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	return s.add(u), nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email && u.IsActive {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) FindByResetToken(_ context.Context, tokenHash string) (model.User, error) {
	for _, u := range s.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpires != nil && u.ResetTokenExpires.After(time.Now()) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	changed := time.Now().Add(-time.Second)
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed
	u.ResetTokenHash = nil
	u.ResetTokenExpires = nil
	return nil
}

func (s *fakeUserStore) SetResetToken(_ context.Context, id uint64, tokenHash string, expires time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpires = &expires
	return nil
}

func (s *fakeUserStore) ClearResetToken(_ context.Context, id uint64) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetTokenHash = nil
	u.ResetTokenExpires = nil
	return nil
}

func (s *fakeUserStore) DeleteByID(_ context.Context, id uint64) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (s *fakeUserStore) UpdateByID(_ context.Context, id uint64, patch map[string]any) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if v, ok := patch["name"].(string); ok {
		u.Name = v
	}
	if v, ok := patch["email"].(string); ok {
		u.Email = v
	}
	if v, ok := patch["photo"].(string); ok {
		u.Photo = v
	}
	return *u, nil
}

type fakeSender struct {
	lastTo  string
	lastURL string
	err     error
}

func (s *fakeSender) SendPasswordReset(_ context.Context, to, resetURL string) error {
	if s.err != nil {
		return s.err
	}
	s.lastTo, s.lastURL = to, resetURL
	return nil
}

func newAuthHandler() (*AuthHandler, *fakeUserStore, *fakeSender) {
	store := newFakeUserStore()
	mail := &fakeSender{}
	return NewAuthHandler(testCfg(), store, mail), store, mail
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := utils.HashPassword(plain, 4)
	require.NoError(t, err)
	return hash
}

func TestSignup(t *testing.T) {
	h, store, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Ada","email":"Ada@Example.COM","password":"pass1234","passwordConfirm":"pass1234"}`)

	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["token"])

	u, err := store.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "pass1234"))
}

func TestSignupCannotGrantAdmin(t *testing.T) {
	h, store, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Eve","email":"eve@example.com","password":"pass1234","passwordConfirm":"pass1234","role":"admin"}`)

	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := store.FindByEmail(context.Background(), "eve@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestSignupGuideAllowed(t *testing.T) {
	h, store, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Gil","email":"gil@example.com","password":"pass1234","passwordConfirm":"pass1234","role":"guide"}`)

	require.NoError(t, h.Signup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := store.FindByEmail(context.Background(), "gil@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleGuide, u.Role)
}

func TestSignupPasswordMismatch(t *testing.T) {
	h, _, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"pass1234","passwordConfirm":"different"}`)

	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "passwords do not match", decode(t, rec)["message"])
}

func TestSignupShortPassword(t *testing.T) {
	h, _, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"short","passwordConfirm":"short"}`)

	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, store, _ := newAuthHandler()
	store.add(model.User{Email: "ada@example.com", Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"pass1234","passwordConfirm":"pass1234"}`)

	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	h, store, _ := newAuthHandler()
	store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/login",
		`{"email":"ada@example.com","password":"pass1234"}`)

	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	h, store, _ := newAuthHandler()
	store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})
	gone := store.add(model.User{Email: "gone@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})
	require.NoError(t, store.DeleteByID(context.Background(), gone.ID))

	bodies := []string{
		`{"email":"nobody@example.com","password":"pass1234"}`, // unknown account
		`{"email":"ada@example.com","password":"wrong-pass"}`,  // wrong password
		`{"email":"gone@example.com","password":"pass1234"}`,   // deactivated account
	}
	for _, body := range bodies {
		c, rec := newCtx(t, http.MethodPost, "/api/v1/users/login", body)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Equal(t, invalidCredentials, decode(t, rec)["message"], body)
	}
}

func TestForgotPassword(t *testing.T) {
	h, store, mail := newAuthHandler()
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/forgot-password",
		`{"email":"ada@example.com"}`)

	require.NoError(t, h.ForgotPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token sent to email", decode(t, rec)["message"])

	assert.Equal(t, "ada@example.com", mail.lastTo)
	require.NotEmpty(t, mail.lastURL)

	// the stored digest matches the plaintext embedded in the mailed link
	parts := strings.Split(mail.lastURL, "/")
	raw := parts[len(parts)-1]
	stored := store.users[u.ID]
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, utils.HashResetRaw(raw), *stored.ResetTokenHash)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	h, _, _ := newAuthHandler()
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/forgot-password",
		`{"email":"nobody@example.com"}`)

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "there is no user with that email address", decode(t, rec)["message"])
}

func TestForgotPasswordRollsBackOnDeliveryFailure(t *testing.T) {
	h, store, mail := newAuthHandler()
	mail.err = assert.AnError
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPost, "/api/v1/users/forgot-password",
		`{"email":"ada@example.com"}`)

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// no live token may remain when the user never received it
	assert.Nil(t, store.users[u.ID].ResetTokenHash)
	assert.Nil(t, store.users[u.ID].ResetTokenExpires)
}

func TestResetPassword(t *testing.T) {
	h, store, _ := newAuthHandler()
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "old-pass1234"), Role: model.RoleUser})

	reset, err := utils.NewResetToken(10 * time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.SetResetToken(context.Background(), u.ID, reset.Hash, reset.Exp))

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/reset-password/"+reset.Raw,
		`{"password":"new-pass1234","passwordConfirm":"new-pass1234"}`)
	c.SetParamNames("token")
	c.SetParamValues(reset.Raw)

	require.NoError(t, h.ResetPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])

	stored := store.users[u.ID]
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "new-pass1234"))
	assert.NotNil(t, stored.PasswordChangedAt)
	assert.Nil(t, stored.ResetTokenHash)

	// the token is single use
	c2, rec2 := newCtx(t, http.MethodPatch, "/api/v1/users/reset-password/"+reset.Raw,
		`{"password":"another-pass1","passwordConfirm":"another-pass1"}`)
	c2.SetParamNames("token")
	c2.SetParamValues(reset.Raw)

	require.NoError(t, h.ResetPassword(c2))
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
	assert.Equal(t, "token is invalid or has expired", decode(t, rec2)["message"])
}

func TestResetPasswordExpiredToken(t *testing.T) {
	h, store, _ := newAuthHandler()
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "pass1234"), Role: model.RoleUser})

	reset, err := utils.NewResetToken(-time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.SetResetToken(context.Background(), u.ID, reset.Hash, reset.Exp))

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/reset-password/"+reset.Raw,
		`{"password":"new-pass1234","passwordConfirm":"new-pass1234"}`)
	c.SetParamNames("token")
	c.SetParamValues(reset.Raw)

	require.NoError(t, h.ResetPassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePassword(t *testing.T) {
	h, store, _ := newAuthHandler()
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "old-pass1234"), Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/update-password",
		`{"passwordCurrent":"old-pass1234","password":"new-pass1234","passwordConfirm":"new-pass1234"}`)
	c.Set("user", u)

	require.NoError(t, h.UpdatePassword(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["token"])
	assert.True(t, utils.VerifyPassword(store.users[u.ID].PasswordHash, "new-pass1234"))
}

func TestUpdatePasswordWrongCurrent(t *testing.T) {
	h, store, _ := newAuthHandler()
	u := store.add(model.User{Email: "ada@example.com", PasswordHash: mustHash(t, "old-pass1234"), Role: model.RoleUser})

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/update-password",
		`{"passwordCurrent":"not-the-one","password":"new-pass1234","passwordConfirm":"new-pass1234"}`)
	c.Set("user", u)

	require.NoError(t, h.UpdatePassword(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "your current password is wrong", decode(t, rec)["message"])
	assert.True(t, utils.VerifyPassword(store.users[u.ID].PasswordHash, "old-pass1234"))
}
