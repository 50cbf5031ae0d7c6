package service

import (
	"context"
	"errors"
	"time"

	"galapagosrental/internal/auth"
	"galapagosrental/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	CreateAdmin(ctx context.Context, email, password string) error
}

type adminAuthService struct {
	repo   repository.AdminAuthRepository
	secret []byte
	expiry time.Duration
}

func NewAdminAuthService(repo repository.AdminAuthRepository, secret string, expiry time.Duration) AdminAuthService {
	return &adminAuthService{repo: repo, secret: []byte(secret), expiry: expiry}
}

func (s *adminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", ErrInvalidCredentials
	}

	// Verificamos la contraseña contra el hash guardado
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Emitimos el token del panel
	return auth.IssueToken(s.secret, admin.ID, admin.Email, s.expiry)
}

func (s *adminAuthService) CreateAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("email and password cannot be empty")
	}
	return s.repo.CreateNewUser(ctx, email, password)
}
