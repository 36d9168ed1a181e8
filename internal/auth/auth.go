package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotConfigured      = errors.New("operator password is not configured")
)

// OperatorSubject is the subject of every issued token
const OperatorSubject = "operator"

// Claims represents the JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service defines the authentication service interface
type Service interface {
	Login(password string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Config holds authentication configuration
type Config struct {
	SecretKey     string
	PasswordHash  string
	TokenDuration time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		SecretKey:     "change-me-in-production",
		TokenDuration: 24 * time.Hour,
	}
}

// JWTService implements the Service interface for a single operator
// identified by a bcrypt password hash.
type JWTService struct {
	config Config
}

// NewJWTService creates a new JWT-based authentication service
func NewJWTService(config Config) *JWTService {
	return &JWTService{config: config}
}

// Login checks password against the operator hash and returns a signed token
func (s *JWTService) Login(password string) (string, error) {
	if s.config.PasswordHash == "" {
		return "", ErrNotConfigured
	}
	if !CheckPassword(password, s.config.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.generateToken()
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject != OperatorSubject {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *JWTService) generateToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: OperatorSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   OperatorSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
