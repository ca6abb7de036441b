// Package users manages operator accounts and terminal sign-in. PINs are
// stored as bcrypt hashes and never leave the service.
package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	"github.com/paintcoffee/pos-backend/internal/app/storage"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

// Service exposes operator account operations.
type Service struct {
	users storage.UserStore
	log   *logger.Logger
}

// New creates a user service.
func New(users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{users: users, log: log}
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// UpdateInput carries the changeable fields of an account. Nil fields are
// left untouched; a non-empty PIN is re-hashed.
type UpdateInput struct {
	PIN      *string `json:"pin"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
}

func validatePIN(pin string) error {
	if len(pin) < 4 {
		return apperr.Validation("pin must be at least 4 characters")
	}
	return nil
}

// Create registers a new operator account. Usernames are unique ignoring
// case.
func (s *Service) Create(ctx context.Context, in CreateInput) (user.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return user.User{}, apperr.Validation("username is required")
	}
	if err := validatePIN(in.PIN); err != nil {
		return user.User{}, err
	}
	role := user.RoleStaff
	if in.Role != "" {
		role = user.Role(in.Role)
		if !role.Valid() {
			return user.User{}, apperr.Validation("unknown role %q", in.Role)
		}
	}

	if existing, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return user.User{}, apperr.Conflict("username %q already exists", existing.Username)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.PIN), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, apperr.Dependency(err, "hash pin")
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Username: username,
		PINHash:  string(hash),
		FullName: in.FullName,
		Role:     role,
	})
	if err != nil {
		return user.User{}, err
	}
	s.log.WithField("username", created.Username).Infof("created %s account", created.Role)
	return created, nil
}

// Update changes an existing account.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (user.User, error) {
	existing, err := s.users.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if in.Role != nil {
		role := user.Role(*in.Role)
		if !role.Valid() {
			return user.User{}, apperr.Validation("unknown role %q", *in.Role)
		}
		existing.Role = role
	}
	if in.FullName != nil {
		existing.FullName = *in.FullName
	}
	if in.PIN != nil && *in.PIN != "" {
		if err := validatePIN(*in.PIN); err != nil {
			return user.User{}, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.PIN), bcrypt.DefaultCost)
		if err != nil {
			return user.User{}, apperr.Dependency(err, "hash pin")
		}
		existing.PINHash = string(hash)
	}

	return s.users.UpdateUser(ctx, existing)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	return s.users.GetUser(ctx, id)
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsers(ctx)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("deleted account")
	return nil
}

// Login verifies a username and PIN pair. The same error is returned for an
// unknown username and a wrong PIN so the response does not reveal which
// usernames exist.
func (s *Service) Login(ctx context.Context, username, pin string) (user.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return user.User{}, apperr.Unauthorized("invalid username or pin")
		}
		return user.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)); err != nil {
		return user.User{}, apperr.Unauthorized("invalid username or pin")
	}
	return u, nil
}
