package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
)

type UserService struct {
	userRepo models.UserRepo
}

func NewUserService(userRepo models.UserRepo) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (us *UserService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	user := &models.User{
		Name:  name,
		Email: email,
		Role:  role,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Role != models.RoleUser && user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	if err := models.Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if !helpers.IsPasswordStrong(password) {
		return nil, fmt.Errorf("%w: password is not strong enough", ErrInvalidRequest)
	}

	if _, err := us.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrInvalidRequest)
	} else if !errors.Is(err, models.ErrNoDocument) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = string(hash)
	user.CreatedAt = time.Now()

	return us.userRepo.CreateUser(ctx, user)
}

func (us *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidRequest)
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrInvalidRequest)
		}
		return nil, err
	}

	// OAuth-only accounts have no hash to compare against.
	if user.Password == "" {
		return nil, fmt.Errorf("%w: please login with Google", ErrInvalidRequest)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrInvalidRequest)
	}

	return user, nil
}

// FindOrCreateGoogleUser resolves a Google identity to a local user:
// match on googleId first, then link by email, otherwise create a fresh
// OAuth-only account.
func (us *UserService) FindOrCreateGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error) {
	if googleID == "" || email == "" {
		return nil, fmt.Errorf("%w: incomplete Google profile", ErrInvalidRequest)
	}

	user, err := us.userRepo.GetUserByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNoDocument) {
		return nil, err
	}

	user, err = us.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNoDocument) {
		return nil, err
	}

	return us.userRepo.CreateUser(ctx, &models.User{
		Name:      name,
		Email:     email,
		GoogleID:  googleID,
		Avatar:    avatar,
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	})
}

func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNoDocument) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
