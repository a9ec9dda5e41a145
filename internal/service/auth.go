// Package service — AuthService handles registration, login, JWT token
// management and the access/share logs.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	minPasswordLen = 6
	bcryptCost     = 12
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	users       port.UserStore
	logs        port.LogStore
	jwtSecret   []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	adminEmails map[string]bool
	logger      *zap.Logger
}

// NewAuthService creates a new auth service. Accounts whose email appears
// in adminEmails come out of registration with the admin role.
func NewAuthService(users port.UserStore, logs port.LogStore, jwtSecret string, accessTTL, refreshTTL time.Duration, adminEmails []string, logger *zap.Logger) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}
	return &AuthService{
		users:       users,
		logs:        logs,
		jwtSecret:   []byte(jwtSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		adminEmails: admins,
		logger:      logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest, deviceInfo string) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome é obrigatório"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "E-mail inválido"}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &domain.ErrValidation{Field: "password", Message: "Senha deve ter no mínimo 6 caracteres"}
	}

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return nil, &domain.ErrConflict{Message: "E-mail já cadastrado"}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if s.adminEmails[email] {
		role = domain.RoleAdmin
	}

	now := time.Now()
	user := domain.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserActive,
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.users.SaveUsers(ctx, append(users, user)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	s.recordAccess(ctx, user, domain.AccessRegister, deviceInfo)
	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
	)

	return s.issueTokens(ctx, user)
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest, deviceInfo string) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("email", req.Email))

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	var user *domain.User
	for i := range users {
		if strings.EqualFold(users[i].Email, req.Email) {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	if user.Status == domain.UserBlocked {
		s.logger.Warn("login: account blocked",
			zap.String("user_id", user.ID),
			zap.String("email", user.Email),
		)
		s.recordAccess(ctx, *user, domain.AccessBlockedAttempt, deviceInfo)
		return nil, &domain.ErrAccountBlocked{}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	user.LastLoginAt = time.Now()
	if err := s.users.SaveUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	s.recordAccess(ctx, *user, domain.AccessLogin, deviceInfo)
	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return s.issueTokens(ctx, *user)
}

// ============================================================
// Refresh — POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	tokenHash := hashToken(req.RefreshToken)

	tokens, err := s.users.LoadRefreshTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load refresh tokens: %w", err)
	}

	idx := -1
	for i, t := range tokens {
		if t.TokenHash == tokenHash {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}

	stored := tokens[idx]

	// Rotation: the presented token is consumed either way.
	tokens = append(tokens[:idx], tokens[idx+1:]...)
	if err := s.users.SaveRefreshTokens(ctx, tokens); err != nil {
		return nil, fmt.Errorf("save refresh tokens: %w", err)
	}

	if stored.ExpiresAt.Before(time.Now()) {
		s.logger.Warn("refresh: expired token used", zap.String("user_id", stored.UserID))
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização expirado"}
	}

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.ID == stored.UserID {
			if u.Status == domain.UserBlocked {
				return nil, &domain.ErrAccountBlocked{}
			}
			return s.issueTokens(ctx, u)
		}
	}
	return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, userID, deviceInfo string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	tokens, err := s.users.LoadRefreshTokens(ctx)
	if err != nil {
		return fmt.Errorf("load refresh tokens: %w", err)
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	if err := s.users.SaveRefreshTokens(ctx, kept); err != nil {
		return fmt.Errorf("save refresh tokens: %w", err)
	}

	if user, err := s.findUser(ctx, userID); err == nil {
		s.recordAccess(ctx, *user, domain.AccessLogout, deviceInfo)
	}

	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// ============================================================
// RecordShare — POST /v1/share
// ============================================================

// RecordShare appends one entry to the share log.
func (s *AuthService) RecordShare(ctx context.Context, userID string, method domain.ShareMethod) error {
	ctx, span := authTracer.Start(ctx, "AuthService.RecordShare")
	defer span.End()

	if method != domain.ShareNative && method != domain.ShareClipboard {
		return &domain.ErrValidation{Field: "method", Message: "método de compartilhamento inválido"}
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ev := domain.ShareEvent{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserName:  user.Name,
		Timestamp: time.Now(),
		Method:    method,
	}
	if err := s.logs.AppendShareEvent(ctx, ev); err != nil {
		return fmt.Errorf("append share event: %w", err)
	}
	return nil
}

// ============================================================
// ValidateToken — used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string          `json:"sub"`
	Role domain.UserRole `json:"role"`
	Type string          `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return claims, nil
}

// ============================================================
// Internal helpers
// ============================================================

func (s *AuthService) issueTokens(ctx context.Context, user domain.User) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	tokens, err := s.users.LoadRefreshTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load refresh tokens: %w", err)
	}
	tokens = append(tokens, domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err := s.users.SaveRefreshTokens(ctx, tokens); err != nil {
		return nil, fmt.Errorf("save refresh tokens: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		UserID:       user.ID,
		UserName:     user.Name,
		Role:         user.Role,
	}, nil
}

func (s *AuthService) signAccessToken(user domain.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  user.ID,
		Role: user.Role,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "obraprime-crm",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) findUser(ctx context.Context, userID string) (*domain.User, error) {
	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

// recordAccess is best effort; a full log never blocks the auth flow.
func (s *AuthService) recordAccess(ctx context.Context, user domain.User, typ domain.AccessEventType, deviceInfo string) {
	ev := domain.AccessEvent{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		Timestamp:  time.Now(),
		Type:       typ,
		DeviceInfo: deviceInfo,
	}
	if err := s.logs.AppendAccessEvent(ctx, ev); err != nil {
		s.logger.Warn("access log append failed", zap.Error(err))
	}
}

func generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	hashed = hashToken(raw)
	return raw, hashed, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
