// Archivo: internal/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"property-system/internal/domain"
	"property-system/internal/dto"
	"property-system/internal/entities"
	"property-system/internal/repositories"
	apperrors "property-system/pkg/errors"
	"property-system/pkg/service"
	"property-system/pkg/utils"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error)
	Register(ctx context.Context, payload dto.RegisterDTO) (*entities.User, error)
	GetUserByID(ctx context.Context, userID uint64) (*entities.User, error)
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	jwtSvc    service.JWTService
	notifier  NotificationServiceInterface
	logger    *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	notifier NotificationServiceInterface,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		jwtSvc:    jwtSvc,
		notifier:  notifier,
		logger:    logger,
	}
}

// Login verifica credenciales con bloqueo temporal por intentos fallidos.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	logger := s.logger.With(zap.String("email", payload.Email))

	lockoutKey := fmt.Sprintf("login_attempts:%s", payload.Email)
	attemptsStr, _ := s.cacheRepo.Get(ctx, lockoutKey)
	if attempts, _ := strconv.Atoi(attemptsStr); attempts >= maxLoginAttempts {
		logger.Warn("Cuenta bloqueada temporalmente por intentos fallidos")
		return nil, apperrors.NewHttpError(
			http.StatusTooManyRequests,
			fmt.Sprintf("Demasiados intentos fallidos. Intente de nuevo en %.0f minutos.", lockoutDuration.Minutes()),
			nil,
			nil,
		)
	}

	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.recordFailedAttempt(ctx, lockoutKey)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "La cuenta está desactivada", nil, nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.recordFailedAttempt(ctx, lockoutKey)
		logger.Warn("Contraseña incorrecta")
		return nil, apperrors.ErrInvalidCredentials
	}

	_ = s.cacheRepo.Del(ctx, lockoutKey)

	access, refresh, err := s.jwtSvc.GenerateTokens(user.ID, user.Role)
	if err != nil {
		logger.Error("Error generando tokens", zap.Error(err))
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, key string) {
	attemptsStr, _ := s.cacheRepo.Get(ctx, key)
	attempts, _ := strconv.Atoi(attemptsStr)
	if err := s.cacheRepo.Set(ctx, key, strconv.Itoa(attempts+1), lockoutDuration); err != nil {
		s.logger.Warn("No se pudo registrar el intento fallido", zap.Error(err))
	}
}

// Refresh emite un par nuevo a partir de un refresh token válido.
func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	// el rol se relee para que un cambio de rol invalide el token viejo
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, apperrors.NewHttpError(http.StatusForbidden, "La cuenta está desactivada", nil, nil)
	}

	access, refresh, err := s.jwtSvc.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

// Register crea una cuenta del portal. Solo el administrador registra
// usuarios; la invitación sale por correo como mejor esfuerzo.
func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*entities.User, error) {
	actorRole, err := utils.GetUserRoleFromCtx(ctx)
	if err != nil || actorRole != domain.RoleAdmin {
		return nil, apperrors.NewHttpError(http.StatusForbidden,
			"Solo un administrador puede registrar usuarios", nil, nil)
	}

	if _, err := s.userRepo.FindByEmail(ctx, payload.Email); err == nil {
		return nil, apperrors.NewInvalidInputError("Ya existe un usuario con el correo %s", payload.Email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:         payload.Name,
		Email:        payload.Email,
		Role:         payload.Role,
		PasswordHash: string(hash),
		Active:       true,
	}
	if payload.Phone != "" {
		normalized := utils.NormalizeColombianPhoneNumber(payload.Phone)
		if normalized == "" {
			return nil, apperrors.NewInvalidInputError("Teléfono inválido: %s", payload.Phone)
		}
		user.Phone = null.StringFrom(normalized)
	}

	newID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Error creando el usuario", zap.Error(err))
		return nil, err
	}
	user.ID = newID

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		body := fmt.Sprintf(
			"<p>Hola %s,</p><p>Se creó tu cuenta en el portal de mantenimiento con el rol <b>%s</b>. Ingresa con tu correo %s.</p>",
			user.Name, user.Role, user.Email)
		if err := s.notifier.SendEmail(bgCtx, user.Email, "Bienvenido al portal de mantenimiento", body); err != nil {
			s.logger.Warn("No se pudo enviar la invitación por correo",
				zap.String("email", user.Email), zap.Error(err))
		}
	}()

	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uint64) (*entities.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
