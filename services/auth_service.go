package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/venue-system/utils"
)

const (
	RoleAdmin       = "admin"
	SessionLifetime = 24 * time.Hour
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	VerifyToken(token string) (*Session, error)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Session   Session   `json:"user"`
}

// Session: данные администратора, извлечённые из проверенного токена.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type authService struct {
	admin     AdminCredentials
	jwtSecret []byte
	now       func() time.Time
}

func NewAuthService(admin AdminCredentials, jwtSecret string) AuthService {
	return &authService{
		admin:     admin,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *authService) Login(_ context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	// Без настроенного администратора вход невозможен.
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return nil, ErrAuthInvalidCredentials
	}
	if !strings.EqualFold(input.Email, s.admin.Email) ||
		!utils.CheckPasswordHash(input.Password, s.admin.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(SessionLifetime)
	session := Session{
		UserID: s.admin.Email,
		Email:  s.admin.Email,
		Role:   RoleAdmin,
	}
	claims := jwt.MapClaims{
		"sub":   session.UserID,
		"email": session.Email,
		"role":  session.Role,
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: signed, ExpiresAt: expiresAt, Session: session}, nil
}

func (s *authService) VerifyToken(tokenString string) (*Session, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrUnauthorized
	}

	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	// VerifyExpiresAt с req=true отклоняет токены без exp.
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role != RoleAdmin {
		return nil, errors.Join(ErrUnauthorized, errors.New("token does not carry an admin session"))
	}

	return &Session{UserID: sub, Email: email, Role: role}, nil
}
