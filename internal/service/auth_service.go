package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	"github.com/clinova/praxis/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, perms domain.Permissions) error
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

// AuthService is the thin boundary between transport authentication
// and the core: it turns credentials into a token whose claims carry
// the role and permission bundle every core operation consults.
type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager, auditSvc: auditSvc, log: log}
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Burn a hash compare anyway so response time does not reveal
		// whether the email exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.RecordLogin(ctx, user.ID)

	claims := claimsFor(user)
	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: user.ID, UserRole: string(user.Role),
		Action: "login", ResourceType: "user", ResourceID: user.ID.String(), IPAddress: ip,
	})

	return pair, nil
}

// RefreshToken issues a new pair from a valid refresh token, re-reading
// the user so revoked accounts and changed permissions take effect.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

// CreateUser registers a practitioner account with the role's default
// permission bundle. Gated by the settings-management flag.
func (s *AuthService) CreateUser(ctx context.Context, email, password, firstName, lastName string, role domain.Role, caller *domain.Claims, ip string) (*domain.User, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceSettings); err != nil {
		return nil, err
	}

	var errs []string
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		errs = append(errs, "email is required")
	} else if !emailPattern.MatchString(email) {
		errs = append(errs, "email format is invalid")
	}
	if len(password) < 12 {
		errs = append(errs, "password must be at least 12 characters")
	}
	if strings.TrimSpace(firstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if !role.IsValid() {
		errs = append(errs, "role must be doctor or assistant")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         role,
		TenantID:     caller.TenantID,
		Permissions:  domain.DefaultPermissions(role),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "user", ResourceID: user.ID.String(), IPAddress: ip,
	})

	return user, nil
}

// UpdatePermissions overrides a user's flag bundle. Each flag is
// independently togglable; the caller needs settings management.
func (s *AuthService) UpdatePermissions(ctx context.Context, userID uuid.UUID, perms domain.Permissions, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourceSettings); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return domain.ErrUserNotFound
	}

	if err := s.userRepo.UpdatePermissions(ctx, userID, perms); err != nil {
		return fmt.Errorf("updating permissions: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "user", ResourceID: userID.String(), IPAddress: ip,
		Changes: `{"action":"permissions_updated"}`,
	})

	return nil
}

func claimsFor(user *domain.User) *domain.Claims {
	return &domain.Claims{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		TenantID:    user.TenantID,
		Permissions: user.Permissions,
	}
}
