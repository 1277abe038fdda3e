package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danicaoo/musicShop/internal/db"
)

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, database *sql.DB, jti string, expiresAt time.Time) error {
	_, err := database.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, db.Timestamp(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = database.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, db.Timestamp(time.Now()),
	)

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, database *sql.DB, jti string) (bool, error) {
	var count int
	err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
