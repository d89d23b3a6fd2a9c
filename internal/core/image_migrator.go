package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"visitor.kiosk/internal/ports/gateway"
)

// TokenFromTimestamp derives the filename token the visitor-log service
// stores images under: "2006-01-02_15-04-05.png". Pure and deterministic so
// the same login timestamp always locates the same image.
func TokenFromTimestamp(ts time.Time) string {
	return ts.Format("2006-01-02_15-04-05") + ".png"
}

// ImageMigrator copies a visitor's stored photo to the token of a new login
// timestamp when the visitor is re-signed-in by a transfer.
type ImageMigrator struct {
	gw gateway.Gateway
}

// NewImageMigrator creates a migrator backed by the given gateway.
func NewImageMigrator(gw gateway.Gateway) *ImageMigrator {
	return &ImageMigrator{gw: gw}
}

// Migrate duplicates the photo stored under the old login timestamp to the
// new one. A missing or uncopyable photo must never block a sign-in, so
// failures are logged and swallowed.
func (m *ImageMigrator) Migrate(ctx context.Context, oldLogin, newLogin time.Time) {
	oldToken := TokenFromTimestamp(oldLogin)
	newToken := TokenFromTimestamp(newLogin)

	if err := m.gw.DuplicateImage(ctx, oldToken, newToken); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("old_token", oldToken).
			Str("new_token", newToken).
			Msg("Photo migration failed, continuing without it")
	}
}
