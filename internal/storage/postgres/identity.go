package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saldo-labs/akuntansid/internal/storage"
)

// IdentityRepository implements storage.IdentityRepository on PostgreSQL.
type IdentityRepository struct {
	q querier
}

var _ storage.IdentityRepository = (*IdentityRepository)(nil)

func (r *IdentityRepository) CreateCompany(ctx context.Context, company *storage.Company) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO companies (id, name, npwp, address, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		company.ID, company.Name, company.NPWP, company.Address, company.CreatedAt)
	return wrapError("create_company", err)
}

func (r *IdentityRepository) GetCompany(ctx context.Context, id string) (*storage.Company, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, name, npwp, address, created_at FROM companies WHERE id = $1`, id)

	var c storage.Company
	if err := scanOne("get_company", "company", row,
		&c.ID, &c.Name, &c.NPWP, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *IdentityRepository) CreateUser(ctx context.Context, user *storage.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, company_id, email, full_name, password_hash, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.CompanyID, user.Email, user.FullName,
		user.PasswordHash, user.Active, user.CreatedAt)
	return wrapError("create_user", err)
}

const userColumns = `id, company_id, email, full_name, password_hash, active, created_at`

func (r *IdentityRepository) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser("get_user_by_email", row)
}

func (r *IdentityRepository) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser("get_user_by_id", row)
}

func scanUser(op string, row pgx.Row) (*storage.User, error) {
	var u storage.User
	if err := scanOne(op, "user", row,
		&u.ID, &u.CompanyID, &u.Email, &u.FullName,
		&u.PasswordHash, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *IdentityRepository) SaveRefreshToken(ctx context.Context, token *storage.RefreshToken) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, access_jti, expires_at, revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.JTI, token.UserID, token.AccessJTI, token.ExpiresAt, token.Revoked, token.CreatedAt)
	return wrapError("save_refresh_token", err)
}

func (r *IdentityRepository) GetRefreshToken(ctx context.Context, jti string) (*storage.RefreshToken, error) {
	row := r.q.QueryRow(ctx,
		`SELECT jti, user_id, access_jti, expires_at, revoked, created_at
		 FROM refresh_tokens WHERE jti = $1`, jti)

	var t storage.RefreshToken
	if err := scanOne("get_refresh_token", "refresh token", row,
		&t.JTI, &t.UserID, &t.AccessJTI, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *IdentityRepository) RevokeRefreshToken(ctx context.Context, jti string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE jti = $1`, jti)
	return wrapError("revoke_refresh_token", err)
}

func (r *IdentityRepository) RevokeRefreshTokensForUser(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	return wrapError("revoke_refresh_tokens_for_user", err)
}

func (r *IdentityRepository) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, wrapError("delete_expired_refresh_tokens", err)
	}
	return tag.RowsAffected(), nil
}
