package db

import (
	"context"
	"database/sql"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	querySetChallenge = `
UPDATE auth_accounts
SET otp_code = $2, otp_expires_at = $3, updated_at = CURRENT_TIMESTAMP
WHERE email = $1`

	queryGetChallenge = `
SELECT otp_code, otp_expires_at
FROM auth_accounts
WHERE email = $1`

	queryClearChallenge = `
UPDATE auth_accounts
SET otp_code = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE email = $1`
)

// SetChallenge replaces the active challenge, so an older code stops working.
func (s *DB) SetChallenge(ctx context.Context, email string, c entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "SetChallenge")
	defer func() { s.endSpan(span, err) }()

	err = s.exec(ctx, querySetChallenge, email, c.Code, dbTime(c.ExpiresAt))
	return err
}

// GetChallenge returns goerror.ErrNotFound both for a missing account and for
// an account without an active challenge.
func (s *DB) GetChallenge(ctx context.Context, email string) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetChallenge")
	defer func() { s.endSpan(span, err) }()

	var (
		code sql.NullString
		exp  sql.NullTime
	)
	err = s.conn.QueryRowContext(ctx, queryGetChallenge, email).Scan(&code, &exp)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	if !code.Valid || !exp.Valid {
		err = goerror.ErrNotFound
		return nil, err
	}

	return &entity.Challenge{Code: code.String, ExpiresAt: exp.Time.UTC()}, nil
}

// ClearChallenge drops the active challenge and leaves the lifecycle alone.
// A missing account is not an error; there is nothing left to clear.
func (s *DB) ClearChallenge(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "ClearChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.ExecContext(ctx, queryClearChallenge, email)
	err = s.mapError(err)
	return err
}
