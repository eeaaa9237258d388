package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/query"
)

// userTable exposes only the public account fields to the list machinery.
// The guard predicate keeps soft-deleted accounts out of every list without
// the call sites having to remember it.
var userTable = Table{
	Name:   "users",
	Fields: []string{"id", "name", "email", "role", "photo", "createdAt", "updatedAt"},
	Columns: map[string]string{
		"id":        "id",
		"name":      "name",
		"email":     "email",
		"role":      "role",
		"photo":     "photo",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Guard: "is_active = 1",
}

var userUpdatable = map[string]string{
	"name":  "name",
	"email": "email",
	"role":  "role",
	"photo": "photo",
}

// UserStore persists account records. All finders return active accounts
// only; a deactivated account behaves exactly like a missing one.
type UserStore struct{ DB *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{DB: db} }

const userCols = `id, name, email, password_hash, role, photo,
	password_changed_at, reset_token_hash, reset_token_expires,
	is_active, created_at, updated_at`

func (s *UserStore) scanRow(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Photo, &u.PasswordChangedAt, &u.ResetTokenHash,
		&u.ResetTokenExpires, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// FindByID fetches an active account by id, including the credential fields
// the auth flows need. The JSON tags on model.User keep those fields out of
// response bodies.
func (s *UserStore) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return s.scanRow(s.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id = ? AND is_active = 1 LIMIT 1", id))
}

// FindByEmail fetches an active account by normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanRow(s.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email = ? AND is_active = 1 LIMIT 1", email))
}

// FindByResetToken fetches the account holding the given reset-token digest
// with an expiry still in the future. An expired or unknown token is simply
// not found; the caller cannot distinguish the two cases.
func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	return s.scanRow(s.DB.QueryRowContext(ctx,
		"SELECT "+userCols+` FROM users
		 WHERE reset_token_hash = ? AND reset_token_expires > NOW() AND is_active = 1
		 LIMIT 1`, tokenHash))
}

// Create inserts a new account. The caller supplies the bcrypt hash; the
// plaintext password never reaches this layer.
func (s *UserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Name == "" || u.Email == "" || u.PasswordHash == "" {
		return model.User{}, validationFailed(errors.New("name, email and password are required"))
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Photo == "" {
		u.Photo = "avatar.png"
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, photo) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.Role, u.Photo)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return s.FindByID(ctx, uint64(id))
}

// UpdateByID applies an admin or self-service profile patch (name, email,
// role, photo). Passwords never travel through this path.
func (s *UserStore) UpdateByID(ctx context.Context, id uint64, patch map[string]any) (model.User, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	merged, err := mergePatch(current, patch, userUpdatable)
	if err != nil {
		return model.User{}, err
	}
	merged.Email = strings.ToLower(strings.TrimSpace(merged.Email))
	if !model.ValidRole(merged.Role) {
		return model.User{}, validationFailed(errors.New("role must be one of: user, guide, lead-guide, admin"))
	}
	_, err = s.DB.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, role = ?, photo = ? WHERE id = ? AND is_active = 1",
		merged.Name, merged.Email, merged.Role, merged.Photo, id)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return s.FindByID(ctx, id)
}

// DeleteByID soft-deletes an account. The row stays in place with
// is_active = 0 and disappears from every finder.
func (s *UserStore) DeleteByID(ctx context.Context, id uint64) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE users SET is_active = 0 WHERE id = ? AND is_active = 1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAll lists active accounts with only their public fields populated.
func (s *UserStore) FindAll(ctx context.Context, spec query.Spec, scope ...query.Filter) ([]model.User, int64, error) {
	scan := func(rows *sql.Rows) (model.User, error) {
		var u model.User
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Photo,
			&u.CreatedAt, &u.UpdatedAt)
		return u, err
	}
	return findAll(ctx, s.DB, userTable, spec, scope, scan)
}

// UpdatePassword stores a fresh hash and bumps password_changed_at, which
// invalidates every previously issued session token. The timestamp is set
// one second in the past so the token reissued in the same request, whose
// iat has only second precision, still counts as issued after the change.
// Any pending reset token is cleared in the same statement.
func (s *UserStore) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = ?,
			password_changed_at = DATE_SUB(NOW(), INTERVAL 1 SECOND),
			reset_token_hash = NULL, reset_token_expires = NULL
		 WHERE id = ? AND is_active = 1`, hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores the digest and expiry of a newly generated reset
// token on the account.
func (s *UserStore) SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error {
	_, err := s.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash = ?, reset_token_expires = ? WHERE id = ? AND is_active = 1",
		tokenHash, expires.UTC(), id)
	return err
}

// ClearResetToken removes a pending reset token, used to roll back when the
// notification mail could not be delivered.
func (s *UserStore) ClearResetToken(ctx context.Context, id uint64) error {
	_, err := s.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE id = ?", id)
	return err
}
