// Package identity implements registration, login, token refresh and
// the rest of the auth service: companies, users and the server-side
// refresh-token records that pair refresh and access jtis.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/money"
	"github.com/saldo-labs/akuntansid/internal/storage"
)

// Service implements the auth process operations.
type Service struct {
	store  storage.Manager
	issuer *auth.TokenIssuer
	log    zerolog.Logger
	now    func() time.Time
}

// NewService wires an identity service over the given store and issuer.
func NewService(store storage.Manager, issuer *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{store: store, issuer: issuer, log: log, now: time.Now}
}

// RegisterInput creates a company together with its first user.
type RegisterInput struct {
	CompanyName string `json:"company_name" validate:"required"`
	CompanyNPWP string `json:"company_npwp,omitempty"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
}

// RegisterResult reports the created tenant and user.
type RegisterResult struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
}

// Register creates a tenant and its admin user. A duplicate email is a
// CONFLICT.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const op = "identity.register"

	if in.CompanyNPWP != "" && !money.ValidNPWP(in.CompanyNPWP) {
		return nil, apperror.Validation(op, "company_npwp must contain exactly 15 digits").WithField("company_npwp")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(op, err)
	}

	now := s.now().UTC()
	company := &storage.Company{
		ID:        uuid.NewString(),
		Name:      in.CompanyName,
		NPWP:      money.NormalizeNPWP(in.CompanyNPWP),
		Address:   in.Address,
		CreatedAt: now,
	}
	user := &storage.User{
		ID:           uuid.NewString(),
		CompanyID:    company.ID,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     in.FullName,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
	}

	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Identity().CreateCompany(ctx, company); err != nil {
			return err
		}
		return tx.Identity().CreateUser(ctx, user)
	})
	if err != nil {
		if apperror.IsConflict(err) {
			return nil, apperror.Conflict(op, "email already registered").WithField("email")
		}
		return nil, err
	}

	s.log.Info().Str("company_id", company.ID).Str("user_id", user.ID).Msg("company registered")
	return &RegisterResult{UserID: user.ID, CompanyID: company.ID, Email: user.Email}, nil
}

// LoginInput authenticates a user by email and password.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the token pair handed to the client.
type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	CompanyID    string `json:"company_id"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login verifies the password and issues a fresh token pair. All
// credential failures surface as the same UNAUTHENTICATED message so a
// caller cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	const op = "identity.login"

	user, err := s.store.Identity().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Unauthenticated(op, "invalid credentials", nil)
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperror.Unauthenticated(op, "invalid credentials", nil)
	}

	ok, err := auth.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, apperror.Internal(op, err)
	}
	if !ok {
		return nil, apperror.Unauthenticated(op, "invalid credentials", nil)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("company_id", user.CompanyID).Msg("login")
	return &LoginResult{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		CompanyID:    user.CompanyID,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// issuePair signs a token pair and persists the refresh record pairing
// the two jtis.
func (s *Service) issuePair(ctx context.Context, user *storage.User) (*auth.TokenPair, error) {
	pair, err := s.issuer.IssuePair(auth.TokenUser{
		ID:        user.ID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		FullName:  user.FullName,
	})
	if err != nil {
		return nil, err
	}

	record := &storage.RefreshToken{
		JTI:       pair.RefreshJTI,
		UserID:    user.ID,
		AccessJTI: pair.AccessJTI,
		ExpiresAt: pair.RefreshExp,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Identity().SaveRefreshToken(ctx, record); err != nil {
		return nil, err
	}
	return pair, nil
}

// RefreshInput rotates a refresh token.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh validates the refresh token against its server-side record,
// revokes it, and issues a new pair. A revoked or unknown jti is
// UNAUTHENTICATED: rotation invalidates every previously issued refresh
// token for the chain.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (*LoginResult, error) {
	const op = "identity.refresh"

	claims, err := s.issuer.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Identity().GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Unauthenticated(op, "refresh token not recognized", nil)
		}
		return nil, err
	}
	if record.Revoked {
		return nil, apperror.Unauthenticated(op, "refresh token revoked", nil)
	}
	if record.ExpiresAt.Before(s.now()) {
		return nil, apperror.Unauthenticated(op, "refresh token expired", nil)
	}

	user, err := s.store.Identity().GetUserByID(ctx, record.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.Unauthenticated(op, "refresh token not recognized", nil)
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperror.Unauthenticated(op, "user deactivated", nil)
	}

	var pair *auth.TokenPair
	err = s.store.WithTransaction(ctx, func(tx storage.TransactionContext) error {
		if err := tx.Identity().RevokeRefreshToken(ctx, claims.ID); err != nil {
			return err
		}

		p, err := s.issuer.IssuePair(auth.TokenUser{
			ID:        user.ID,
			CompanyID: user.CompanyID,
			Email:     user.Email,
			FullName:  user.FullName,
		})
		if err != nil {
			return err
		}
		pair = p

		return tx.Identity().SaveRefreshToken(ctx, &storage.RefreshToken{
			JTI:       p.RefreshJTI,
			UserID:    user.ID,
			AccessJTI: p.AccessJTI,
			ExpiresAt: p.RefreshExp,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
		CompanyID:    user.CompanyID,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Verify parses an access token and returns its claims.
func (s *Service) Verify(token string) (*auth.AccessClaims, error) {
	return s.issuer.VerifyAccess(token)
}

// Logout revokes the refresh record named by the token, or every record
// of the caller when no token is supplied.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return s.store.Identity().RevokeRefreshTokensForUser(ctx, userID)
	}

	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	record, err := s.store.Identity().GetRefreshToken(ctx, claims.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if record.UserID != userID {
		return apperror.Forbidden("identity.logout", "refresh token belongs to another user")
	}
	return s.store.Identity().RevokeRefreshToken(ctx, claims.ID)
}

// Me returns the profile of the authenticated caller.
func (s *Service) Me(ctx context.Context, userID string) (*storage.User, error) {
	return s.store.Identity().GetUserByID(ctx, userID)
}

// PurgeExpiredTokens removes refresh records past their expiry. The auth
// service runs it on a schedule.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.store.Identity().DeleteExpiredRefreshTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("removed", n).Msg("expired refresh tokens purged")
	}
	return n, nil
}
