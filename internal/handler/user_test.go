package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvoyage/touring-api/internal/model"
)

func TestMe(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
	h := NewUserHandler(store)

	c, rec := newCtx(t, http.MethodGet, "/api/v1/users/me", "")
	c.Set("user", u)

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	doc := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Ada", doc["name"])
	// credential fields must never serialize
	assert.NotContains(t, doc, "passwordHash")
	assert.NotContains(t, doc, "password")
}

func TestMeUnauthenticated(t *testing.T) {
	h := NewUserHandler(newFakeUserStore())
	c, rec := newCtx(t, http.MethodGet, "/api/v1/users/me", "")

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
	h := NewUserHandler(store)

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/update-me",
		`{"name":"Ada Lovelace","photo":"new.png"}`)
	c.Set("user", u)

	require.NoError(t, h.UpdateMe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Name)
	assert.Equal(t, "new.png", stored.Photo)
}

func TestUpdateMeRejectsPassword(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
	h := NewUserHandler(store)

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/update-me",
		`{"password":"new-pass1234"}`)
	c.Set("user", u)

	require.NoError(t, h.UpdateMe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "this route is not for password updates. please use /update-password",
		decode(t, rec)["message"])
}

func TestUpdateMeRejectsRoleEscalation(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
	h := NewUserHandler(store)

	c, rec := newCtx(t, http.MethodPatch, "/api/v1/users/update-me", `{"role":"admin"}`)
	c.Set("user", u)

	require.NoError(t, h.UpdateMe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field not allowed here: role", decode(t, rec)["message"])

	stored, err := store.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)
}

func TestDeleteMe(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleUser})
	h := NewUserHandler(store)

	c, rec := newCtx(t, http.MethodDelete, "/api/v1/users/delete-me", "")
	c.Set("user", u)

	require.NoError(t, h.DeleteMe(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// the account is soft-deleted: gone from finders, still in the table
	_, err := store.FindByID(context.Background(), u.ID)
	assert.Error(t, err)
	assert.False(t, store.users[u.ID].IsActive)
}

func TestCreateUserIsNotDefined(t *testing.T) {
	h := NewUserHandler(newFakeUserStore())
	c, rec := newCtx(t, http.MethodPost, "/api/v1/users", `{"name":"x"}`)

	require.NoError(t, h.CreateUser(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "this route is not defined. please use /signup instead",
		decode(t, rec)["message"])
}
