package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/interview-coach/internal/config"
	"github.com/fadilmartias/interview-coach/internal/dto"
	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/fadilmartias/interview-coach/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = fmt.Errorf("%w: user already exists", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence surface for accounts.
type UserStore interface {
	Create(user *model.User) error
	Update(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByGoogleID(googleID string) (*model.User, error)
}

type AuthUsecase struct {
	users  UserStore
	google service.GoogleOAuthServiceInterface
}

func NewAuthUsecase(users UserStore, google service.GoogleOAuthServiceInterface) *AuthUsecase {
	return &AuthUsecase{users: users, google: google}
}

func (uc *AuthUsecase) Register(req dto.RegisterRequest) (string, error) {
	if req.Name == "" || req.Email == "" {
		return "", fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if len(req.Password) < 6 {
		return "", fmt.Errorf("%w: password must be at least 6 characters long", ErrValidation)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := uc.users.FindByEmail(email); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hash),
	}
	if err := uc.users.Create(user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return uc.issueToken(user)
}

func (uc *AuthUsecase) Login(req dto.LoginRequest) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := uc.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return "", ErrInvalidCredentials
	}

	return uc.issueToken(user)
}

// GoogleSignIn exchanges the authorization code for a Google profile and
// signs the matching account in, creating it on first sight.
func (uc *AuthUsecase) GoogleSignIn(ctx context.Context, req dto.GoogleAuthRequest) (string, error) {
	if req.Code == "" {
		return "", fmt.Errorf("%w: authorization code is required", ErrValidation)
	}

	profile, err := uc.google.ExchangeCode(ctx, req.Code)
	if err != nil {
		return "", fmt.Errorf("google sign-in: %w", err)
	}

	user, err := uc.users.FindByGoogleID(profile.GoogleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// An existing password account with the same email gets linked
		// instead of duplicated.
		user, err = uc.users.FindByEmail(strings.ToLower(profile.Email))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = &model.User{
				Name:     profile.Name,
				Email:    strings.ToLower(profile.Email),
				GoogleID: &profile.GoogleID,
				Picture:  profile.Picture,
			}
			if err := uc.users.Create(user); err != nil {
				return "", fmt.Errorf("create user: %w", err)
			}
			return uc.issueToken(user)
		}
		if err != nil {
			return "", fmt.Errorf("look up user: %w", err)
		}
		user.GoogleID = &profile.GoogleID
		if user.Picture == "" {
			user.Picture = profile.Picture
		}
		if err := uc.users.Update(user); err != nil {
			return "", fmt.Errorf("link google account: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}

	return uc.issueToken(user)
}

func (uc *AuthUsecase) CurrentUser(userID uuid.UUID) (*model.User, error) {
	user, err := uc.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (uc *AuthUsecase) UpdateProfile(userID uuid.UUID, req dto.UpdateProfileRequest) (*model.User, error) {
	user, err := uc.CurrentUser(userID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Picture != "" {
		user.Picture = req.Picture
	}
	if err := uc.users.Update(user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (uc *AuthUsecase) issueToken(user *model.User) (string, error) {
	authConfig := config.LoadAuthConfig()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"exp":     time.Now().Add(authConfig.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(authConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
