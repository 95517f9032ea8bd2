package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"firstcome/internal/models"
	"firstcome/internal/pkg/errs"
	"firstcome/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by LoginUser for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUsernameTaken is returned by RegisterUser when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// AuthService handles staff authentication for the kitchen dashboard.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		logger:     logger.With("component", "auth_service"),
	}
}

// RegisterUser registers a new staff account, hashing the password before it is stored.
func (s *AuthService) RegisterUser(user *models.User) error {
	existingUser, err := s.userRepo.GetByUsername(user.Username)
	if err == nil && existingUser != nil {
		return fmt.Errorf("%w: %s", ErrUsernameTaken, user.Username)
	}
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// EnsureStaff creates the configured staff account on first start.
func (s *AuthService) EnsureStaff(username, password string) error {
	if password == "" {
		s.logger.Warn("no staff password configured, dashboard login disabled")
		return nil
	}
	err := s.RegisterUser(&models.User{Username: username, Password: password})
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	if err == nil {
		s.logger.Info("staff account created", "username", username)
	}
	return err
}

// LoginUser authenticates a staff member and returns a JWT token if successful.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", "error", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Authenticate validates tokenString and loads the staff account it was issued to.
func (s *AuthService) Authenticate(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, nil
}
