package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

const minPasswordLength = 6

var userColumns = []string{"id", "username", "password_hash", "role", "created_at"}

// UserService handles accounts and credentials
type UserService struct {
	store
	creds auth.CredentialVerifier
}

// NewUserService creates a new user service
func NewUserService(database *db.DB, m *metrics.AppMetrics, creds auth.CredentialVerifier, logger *zap.Logger) *UserService {
	return &UserService{store: newStore(database, m, logger), creds: creds}
}

// Register creates a customer account
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "users.Register"

	username := strings.TrimSpace(req.Username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "is required"
	} else if len(username) > 100 {
		fields["username"] = "must be at most 100 characters"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(op, fields)
	}

	return s.create(ctx, op, username, req.Password, models.RoleCustomer)
}

func (s *UserService) create(ctx context.Context, op, username, password string, role models.Role) (*models.User, error) {
	hash, err := s.creds.Hash(password)
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to hash password")
	}

	id, err := s.insert(ctx, s.db, "users", QB.Insert("users").
		Columns("username", "password_hash", "role").
		Values(username, hash, string(role)))
	if err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict(op, "username already taken")
		}
		return nil, apperr.Wrapf(op, err, "failed to create user")
	}

	s.logger.Info("user registered", zap.Int64("user_id", id), zap.String("role", string(role)))
	return s.GetUser(ctx, id)
}

// Authenticate checks a username and password pair
func (s *UserService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	const op = "users.Authenticate"

	user, err := s.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthenticated(op, auth.ErrBadCredentials.Error())
		}
		return nil, err
	}

	if err := s.creds.Verify(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthenticated(op, auth.ErrBadCredentials.Error())
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUserBy(ctx, "users.Get", squirrel.Eq{"id": id})
}

// GetUserByUsername returns a user by username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "users.GetByUsername", squirrel.Eq{"username": username})
}

func (s *UserService) getUserBy(ctx context.Context, op string, where squirrel.Eq) (*models.User, error) {
	var u models.User
	err := s.get(ctx, s.db, &u, "users", QB.Select(userColumns...).From("users").Where(where))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "user")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get user")
	}
	return &u, nil
}

// ListUsers returns every account ordered by id
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.selectAll(ctx, s.db, &users, "users", QB.Select(userColumns...).From("users").OrderBy("id")); err != nil {
		return nil, apperr.Wrapf("users.List", err, "failed to list users")
	}
	return users, nil
}

// SetRole changes the role of the named user
func (s *UserService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	const op = "users.SetRole"
	if !role.Valid() {
		return nil, apperr.Validation(op, map[string]string{"role": "must be customer, seller or admin"})
	}

	res, err := s.exec(ctx, s.db, "UPDATE", "users", QB.Update("users").
		Set("role", string(role)).
		Where(squirrel.Eq{"username": username}))
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to update role")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 rows when the value is unchanged, so tell that apart from a missing user
		return s.GetUserByUsername(ctx, username)
	}

	s.logger.Info("user role changed", zap.String("username", username), zap.String("role", string(role)))
	return s.GetUserByUsername(ctx, username)
}

// EnsureAdmin creates the named admin account, or promotes it if it exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if apperr.IsNotFound(err) {
		if len(password) < minPasswordLength {
			return nil, apperr.Validation("users.EnsureAdmin", map[string]string{"password": "must be at least 6 characters"})
		}
		return s.create(ctx, "users.EnsureAdmin", username, password, models.RoleAdmin)
	}
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	return s.SetRole(ctx, username, models.RoleAdmin)
}
