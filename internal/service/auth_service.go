package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
)

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService handles authentication and user registration
type AuthService struct {
	userRepo   domain.UserRepository
	authClient FirebaseAuthClient
	jwtConfig  config.JWTConfig
	clock      domain.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	authClient FirebaseAuthClient,
	jwtConfig config.JWTConfig,
	clock domain.Clock,
) *AuthService {
	if jwtConfig.TTL <= 0 {
		jwtConfig.TTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		authClient: authClient,
		jwtConfig:  jwtConfig,
		clock:      clock,
	}
}

// LoginResponse contains the user and whether they were newly created
type LoginResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	IsNewUser bool         `json:"is_new_user"`
}

// LoginOrRegister exchanges a Firebase ID token for a service token,
// registering the user as a member on first login.
func (s *AuthService) LoginOrRegister(ctx context.Context, firebaseToken string) (*LoginResponse, error) {
	token, err := s.authClient.VerifyIDToken(ctx, firebaseToken)
	if err != nil {
		return nil, domain.NewKindError(domain.ErrUnauthorized, "invalid identity token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if email == "" {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "identity token has no email")
	}
	if name == "" {
		name = email
	}

	user, err := s.userRepo.GetByFirebaseUID(ctx, firebaseUID)
	if errors.Is(err, domain.ErrNotFound) {
		// Pre-provisioned accounts are matched by email and linked.
		user, err = s.userRepo.GetByEmail(ctx, email)
		if err == nil {
			if user.FirebaseUID != "" && user.FirebaseUID != firebaseUID {
				return nil, domain.ErrEmailLinkedToUID
			}
			if err := s.userRepo.UpdateFirebaseUID(ctx, user.ID, firebaseUID); err != nil {
				return nil, fmt.Errorf("failed to link firebase account: %w", err)
			}
			user.FirebaseUID = firebaseUID
		}
	}

	isNew := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		now := s.clock.Now()
		user = &domain.User{
			FirebaseUID: firebaseUID,
			Email:       email,
			Name:        name,
			Roles:       []string{domain.RoleMember},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		isNew = true
	default:
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	signed, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{User: user, Token: signed, IsNewUser: isNew}, nil
}

// GenerateToken signs an HS256 access token for user.
func (s *AuthService) GenerateToken(user *domain.User) (string, error) {
	now := s.clock.Now()
	claims := domain.StrideClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
