// Package auth отвечает за регистрацию, вход и восстановление сессии по токену.
//
// Токен подтверждает только личность. Роль и подписка каждый раз читаются
// из хранилища, так как могли измениться за время жизни токена.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/bizfinance/internal/lib/jwt"
	"github.com/magabrotheeeer/bizfinance/internal/lib/password"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

var (
	// ErrInvalidToken токен отсутствует, повреждён, просрочен или подписан не нами.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound токен валиден, но пользователя уже нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordTooLong пароль не помещается в bcrypt.
	ErrPasswordTooLong = errors.New("password too long")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error)
}

// RegisterInput данные для регистрации.
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	BusinessType models.BusinessType
	TaxID        string
}

// AuthService отвечает за регистрацию, авторизацию и проверку сессии.
type AuthService struct {
	users          UserRepository
	jwtMaker       jwt.Maker
	developerEmail string
	// dummyHash сравнивается при неизвестном email, чтобы время ответа
	// не выдавало, существует ли пользователь.
	dummyHash string
}

// NewAuthService создает новый экземпляр AuthService.
// Пользователь с developerEmail получает роль developer при регистрации.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, developerEmail string) *AuthService {
	dummy, _ := password.GetHash("not-a-real-password")
	return &AuthService{
		users:          users,
		jwtMaker:       jwtMaker,
		developerEmail: normalizeEmail(developerEmail),
		dummyHash:      dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает пользователя и сразу выпускает для него токен.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, *models.User, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(in.Password)
	if errors.Is(err, password.ErrTooLong) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	email := normalizeEmail(in.Email)
	role := models.RoleFree
	if s.developerEmail != "" && email == s.developerEmail {
		role = models.RoleDeveloper
	}
	businessType := in.BusinessType
	if businessType == "" {
		businessType = models.BusinessSoleProprietor
	}

	user := models.User{
		Email:              email,
		PasswordHash:       hashed,
		Name:               in.Name,
		BusinessType:       businessType,
		TaxID:              in.TaxID,
		Role:               role,
		SubscriptionStatus: models.SubscriptionInactive,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UUID = uid
	user.Plan = models.PlanOf(user.Role, user.SubscriptionStatus, nil)

	token, err := s.jwtMaker.GenerateToken(uid)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, &user, nil
}

// Login проверяет пароль пользователя и выпускает токен.
// Неизвестный email и неверный пароль дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		_ = password.CompareHash(s.dummyHash, rawPassword)
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// Authenticate проверяет токен и загружает актуальную запись пользователя.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	return s.Resolve(ctx, claims.UserUID())
}

// Resolve загружает пользователя по UID из хранилища.
func (s *AuthService) Resolve(ctx context.Context, userUID string) (*models.User, error) {
	const op = "auth.Resolve"

	user, err := s.users.GetUser(ctx, userUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile изменяет профиль пользователя.
func (s *AuthService) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "auth.UpdateProfile"

	user, err := s.users.UpdateProfile(ctx, userUID, upd)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
