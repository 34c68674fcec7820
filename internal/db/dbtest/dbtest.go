// Package dbtest provides an in-memory SQLite gateway for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"student_rideshare/internal/db"

	"github.com/stretchr/testify/require"
)

// New returns a migrated gateway backed by a private in-memory database.
// Retries are fast so transient-failure paths do not slow tests down.
func New(t *testing.T) *db.Gateway {
	t.Helper()
	g, err := db.Connect(context.Background(), db.Options{
		Driver: "sqlite",
		DSN:    ":memory:",
		Retry:  db.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	})
	require.NoError(t, err)
	require.NoError(t, g.Migrate(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g
}
