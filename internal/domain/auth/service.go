package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/petit-ilot/petit-ilot-api/internal/domain/bonus"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/user"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/jwt"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/password"
)

// Service handles registration, login and token rotation.
type Service struct {
	userRepo   *user.Repository
	tokenRepo  *RefreshTokenRepository
	creditRepo *credit.Repository
	bonusRepo  *bonus.Repository
	jwtService *jwt.Service
}

func NewService(userRepo *user.Repository, tokenRepo *RefreshTokenRepository, creditRepo *credit.Repository, bonusRepo *bonus.Repository, jwtService *jwt.Service) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		creditRepo: creditRepo,
		bonusRepo:  bonusRepo,
		jwtService: jwtService,
	}
}

// TokenPair is an access/refresh token set.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput holds validated registration fields.
type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	DisplayName string
	Locale      string
}

// Register creates an account, applies the registration bonus when the admin
// rule is enabled, and issues tokens. The account is not rolled back if the
// bonus grant fails; the failure is logged and the user starts at zero.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, *TokenPair, error) {
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hash password", ErrInternal)
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         user.Role(in.Role),
		DisplayName:  in.DisplayName,
		Locale:       in.Locale,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, fmt.Errorf("%w: create user", ErrInternal)
	}

	if cfg, err := s.bonusRepo.GetRegistration(ctx); err == nil && cfg.Enabled && cfg.FreeCredits > 0 {
		entityType := "user"
		entityID := u.ID.String()
		grantErr := s.creditRepo.Grant(ctx, u.ID, cfg.FreeCredits, credit.CreditTypeFree, credit.TxTypeRegistrationBonus, credit.TxMeta{
			RelatedEntityType: &entityType,
			RelatedEntityID:   &entityID,
			Description:       "welcome bonus",
		})
		if grantErr != nil {
			log.Error().Err(grantErr).Str("user_id", u.ID.String()).Msg("registration bonus grant failed")
		} else {
			u.FreeCreditsBalance = cfg.FreeCredits
		}
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user registered")
	return u, tokens, nil
}

// Login checks credentials and issues tokens.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*user.User, *TokenPair, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%w: get user", ErrInternal)
	}

	if !password.Verify(u.PasswordHash, plainPassword) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// Refresh rotates a refresh token: the old one is spent, a new pair comes
// back. A reused token revokes the whole session family.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	tokenHash := jwt.HashRefreshToken(refreshToken)
	rec, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if rec.RevokedAt.Valid || time.Now().After(rec.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}
	if rec.UsedAt.Valid {
		// replay of a spent token: assume theft, cut every session
		log.Warn().Str("user_id", rec.UserID.String()).Msg("refresh token replay detected")
		if err := s.tokenRepo.RevokeAllByUserID(ctx, rec.UserID); err != nil {
			log.Error().Err(err).Str("user_id", rec.UserID.String()).Msg("session revocation failed")
		}
		return nil, ErrInvalidRefreshToken
	}

	if err := s.tokenRepo.MarkUsed(ctx, tokenHash); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	return s.issueTokens(ctx, u)
}

// Logout revokes one refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.jwtService.ValidateRefreshToken(refreshToken); err != nil {
		return ErrInvalidRefreshToken
	}
	return s.tokenRepo.RevokeByTokenHash(ctx, jwt.HashRefreshToken(refreshToken))
}

// Me returns the account with current balances.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: generate access token", ErrInternal)
	}

	refreshToken, jti, expiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: generate refresh token", ErrInternal)
	}

	rec := &RefreshTokenRecord{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: jwt.HashRefreshToken(refreshToken),
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
