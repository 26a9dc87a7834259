// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/util"
)

// UserService manages users and verifies their credentials.
type UserService interface {
	CreateUser(ctx context.Context, req domain.NewUser) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
	// DeleteUser removes a user that owns no accounts.
	DeleteUser(ctx context.Context, id int64) (*domain.User, error)
	// Authenticate returns the user whose email and password match.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type userService struct {
	dbExecutor  repository.DBExecutor
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	hashCost    int
}

// NewUserService creates a new instance of UserService. hashCost is the bcrypt cost;
// values outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewUserService(
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	hashCost int,
) UserService {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &userService{
		dbExecutor:  dbExecutor,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		hashCost:    hashCost,
	}
}

func (s *userService) CreateUser(ctx context.Context, req domain.NewUser) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, s.dbExecutor, user); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			return nil, err
		}
		return nil, storeError("create user", err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, storeError(fmt.Sprintf("get user %d", id), err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.ListUsers(ctx, s.dbExecutor)
	if err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}
	if update.Phone != nil {
		user.Phone = update.Phone
	}
	if update.Address != nil {
		user.Address = update.Address
	}
	if update.Password != nil {
		hash, err := s.hashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.UpdateUser(ctx, s.dbExecutor, user); err != nil {
		switch {
		case util.IsError(err, util.ErrDuplicateEntry):
			return nil, err
		case util.IsError(err, util.ErrNotFound):
			return nil, util.ErrUserNotFound
		}
		return nil, storeError(fmt.Sprintf("update user %d", id), err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	owned, err := s.accountRepo.CountAccountsByUserID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, storeError("delete user: failed to count accounts", err)
	}
	if owned > 0 {
		return nil, fmt.Errorf("%w (%d accounts)", util.ErrUserInUse, owned)
	}

	// The accounts foreign key still guards against an account opened after the count.
	if err := s.userRepo.DeleteUser(ctx, s.dbExecutor, id); err != nil {
		switch {
		case util.IsError(err, util.ErrUserInUse):
			return nil, err
		case util.IsError(err, util.ErrNotFound):
			return nil, util.ErrUserNotFound
		}
		return nil, storeError(fmt.Sprintf("delete user %d", id), err)
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, s.dbExecutor, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, storeError("authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: failed to verify password: %w", err)
	}
	return user, nil
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
