package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"term-chat/internal/domain"
	"term-chat/internal/repository"
)

// UserService coordina registro, login y baja de usuarios.
type UserService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	system   repository.SystemConfigRepository
	limiter  LoginRateLimiter
	hashCost int
}

var (
	ErrUserServiceNotConfigured = errors.New("user service not configured")
	ErrUserNotFound             = errors.New("user not found")
	ErrUsernameTaken            = errors.New("username already taken")
	ErrInvalidUsername          = errors.New("invalid username")
	ErrInvalidPassword          = errors.New("invalid password")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrRateLimited              = errors.New("rate limited")
	ErrAdminPasswordInvalid     = errors.New("admin password invalid")
)

const (
	adminPasswordKey  = "admin_password"
	maxUsernameLength = 32
)

func NewUserService(logger *zap.Logger, users repository.UserRepository, system repository.SystemConfigRepository, limiter LoginRateLimiter) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewLoginRateLimiter(defaultLoginWindow, defaultLoginAttempts)
	}
	return &UserService{
		logger:   logger,
		users:    users,
		system:   system,
		limiter:  limiter,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register crea un usuario con la contraseña hasheada con bcrypt.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	username, err := normalizeUsername(username)
	if err != nil {
		return domain.User{}, err
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return domain.User{}, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if errors.Is(err, repository.ErrAlreadyExists) {
		return domain.User{}, ErrUsernameTaken
	}
	if err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user registered", zap.String("username", username))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, ErrUserServiceNotConfigured
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if s.limiter != nil && !s.limiter.Allowed(username) {
		s.logger.Warn("login rate limited", zap.String("username", username))
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.loginFailed(username)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(username)
		return domain.User{}, ErrInvalidCredentials
	}
	if s.limiter != nil {
		s.limiter.Reset(username)
	}
	return user, nil
}

func (s *UserService) loginFailed(username string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(username)
	}
}

func (s *UserService) Exists(ctx context.Context, username string) (bool, error) {
	if s == nil || s.users == nil {
		return false, ErrUserServiceNotConfigured
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	return s.users.Exists(ctx, username)
}

// SeedAdminPassword guarda el hash de la contraseña de administrador si
// todavía no existe uno.
func (s *UserService) SeedAdminPassword(ctx context.Context, password string) error {
	if s == nil || s.system == nil {
		return ErrUserServiceNotConfigured
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return err
	}
	return s.system.SetIfAbsent(ctx, adminPasswordKey, string(hash))
}

func (s *UserService) VerifyAdminPassword(ctx context.Context, password string) error {
	if s == nil || s.system == nil {
		return ErrUserServiceNotConfigured
	}
	hash, err := s.system.Get(ctx, adminPasswordKey)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAdminPasswordInvalid
	}
	if err != nil {
		return fmt.Errorf("read admin password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(password))); err != nil {
		return ErrAdminPasswordInvalid
	}
	return nil
}

// DeleteUser borra al usuario y todos sus datos. Requiere la contraseña de
// administrador.
func (s *UserService) DeleteUser(ctx context.Context, username, adminPassword string) error {
	if s == nil || s.users == nil {
		return ErrUserServiceNotConfigured
	}
	if err := s.VerifyAdminPassword(ctx, adminPassword); err != nil {
		s.logger.Warn("delete user rejected", zap.String("username", username), zap.Error(err))
		return err
	}
	username = strings.TrimSpace(username)
	err := s.users.DeleteCascade(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

func normalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLength {
		return "", ErrInvalidUsername
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", ErrInvalidUsername
	}
	return name, nil
}
