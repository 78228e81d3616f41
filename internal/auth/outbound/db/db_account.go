package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
)

const (
	queryCreateAccount = `
INSERT INTO auth_accounts (id, username, email, password_hash, lifecycle, otp_code, otp_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryGetCredentials = `
SELECT id, email, password_hash, lifecycle
FROM auth_accounts
WHERE email = $1`

	queryMarkVerified = `
UPDATE auth_accounts
SET lifecycle = $2, otp_code = NULL, otp_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE email = $1`

	queryDeleteUnverified = `
DELETE FROM auth_accounts
WHERE email = $1 AND lifecycle = $2`
)

// dbTime drops precision neither backend keeps and pins the zone so a value
// reads back equal to what was written.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// CreateAccount inserts a pending account with its first challenge. A taken
// email is reported as goerror.ErrConflict by the unique constraint.
func (s *DB) CreateAccount(ctx context.Context, in entity.NewAccount) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.ExecContext(ctx, queryCreateAccount,
		in.ID,
		in.Username,
		in.Email,
		in.PasswordHash,
		int16(entity.LifecyclePending),
		in.Challenge.Code,
		dbTime(in.Challenge.ExpiresAt),
	)
	err = s.mapError(err)
	return err
}

func (s *DB) GetCredentials(ctx context.Context, email string) (_ *entity.Credentials, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentials")
	defer func() { s.endSpan(span, err) }()

	var c entity.Credentials
	err = s.conn.QueryRowContext(ctx, queryGetCredentials, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Lifecycle)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	c.Lifecycle = c.Lifecycle.Ensure()
	return &c, nil
}

// MarkVerified moves the account to verified and drops its challenge. Calling
// it on a verified account is a no-op.
func (s *DB) MarkVerified(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "MarkVerified")
	defer func() { s.endSpan(span, err) }()

	err = s.exec(ctx, queryMarkVerified, email, int16(entity.LifecycleVerified))
	return err
}

// DeleteUnverified removes the account only while it is still pending and
// reports whether a row was deleted.
func (s *DB) DeleteUnverified(ctx context.Context, email string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteUnverified")
	defer func() { s.endSpan(span, err) }()

	res, err := s.conn.ExecContext(ctx, queryDeleteUnverified, email, int16(entity.LifecyclePending))
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
