package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now(),
	)

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}

// CreatePasswordResetToken stores a reset token for an account. Any previous
// token for the same email is replaced.
func CreatePasswordResetToken(ctx context.Context, db *sql.DB, email, token string, expiresAt time.Time) error {
	_, _ = db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE email = ?`, email)

	_, err := db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (token, email, expires_at) VALUES (?, ?, ?)`,
		token, email, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating password reset token: %w", err)
	}
	return nil
}

// ConsumePasswordResetToken returns the email for a valid, unexpired reset
// token and deletes it so it can only be used once. Returns "" if the token
// is unknown or expired.
func ConsumePasswordResetToken(ctx context.Context, db *sql.DB, token string) (string, error) {
	var email string
	var expiresAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT email, expires_at FROM password_reset_tokens WHERE token = ?`, token,
	).Scan(&email, &expiresAt)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up password reset token: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE token = ?`, token,
	); err != nil {
		return "", fmt.Errorf("consuming password reset token: %w", err)
	}

	if time.Now().After(expiresAt) {
		return "", nil
	}
	return email, nil
}
