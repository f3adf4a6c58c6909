package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saldo-labs/akuntansid/internal/apperror"
)

// AccessClaims are the signed contents of an access token.
type AccessClaims struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

// RefreshClaims are the signed contents of a refresh token.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessJTI    string
	RefreshJTI   string
	ExpiresIn    int64
	RefreshExp   time.Time
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer for the given shared secret.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// TokenUser carries the user attributes embedded in access tokens.
type TokenUser struct {
	ID        string
	CompanyID string
	Email     string
	FullName  string
}

// IssuePair signs a fresh access/refresh token pair with paired jtis.
func (ti *TokenIssuer) IssuePair(user TokenUser) (*TokenPair, error) {
	now := ti.now()
	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()
	refreshExp := now.Add(ti.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		CompanyID: user.CompanyID,
		Email:     user.Email,
		FullName:  user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
			ID:        accessJTI,
		},
	})
	accessToken, err := access.SignedString(ti.secret)
	if err != nil {
		return nil, apperror.Internal("auth.issue_access", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        refreshJTI,
		},
	})
	refreshToken, err := refresh.SignedString(ti.secret)
	if err != nil {
		return nil, apperror.Internal("auth.issue_refresh", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessJTI:    accessJTI,
		RefreshJTI:   refreshJTI,
		ExpiresIn:    int64(ti.accessTTL.Seconds()),
		RefreshExp:   refreshExp,
	}, nil
}

// VerifyAccess parses and validates an access token. All failure modes
// (bad signature, expiry, malformed claims) surface as UNAUTHENTICATED.
func (ti *TokenIssuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ti.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.CompanyID == "" {
		return nil, apperror.Unauthenticated("auth.verify", "token missing identity claims", nil)
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (ti *TokenIssuer) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ti.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, apperror.Unauthenticated("auth.verify_refresh", "token missing identity claims", nil)
	}
	return claims, nil
}

func (ti *TokenIssuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperror.Unauthenticated("auth.verify", "token expired", err)
		}
		return apperror.Unauthenticated("auth.verify", "invalid token", err)
	}
	if !token.Valid {
		return apperror.Unauthenticated("auth.verify", "invalid token", nil)
	}
	return nil
}
