package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBRequiresURL(t *testing.T) {
	_, err := NewDB(context.Background(), Options{URL: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestWaitReadyFailsFastOnBadCredentials(t *testing.T) {
	attempts := 0
	err := waitReady(context.Background(), 4, func(context.Context) error {
		attempts++
		return errors.New(`pq: password authentication failed for user "contracts"`)
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestWaitReadyRetriesWhileStarting(t *testing.T) {
	attempts := 0
	err := waitReady(context.Background(), 4, func(context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("pq: the database system is starting up")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range Schema {
		assert.True(t,
			strings.Contains(stmt, "IF NOT EXISTS"),
			"statement must be safe to re-run: %s", strings.Fields(stmt)[:3])
	}
}

func TestSchemaAllowsDanglingClauseReferences(t *testing.T) {
	for _, stmt := range Schema {
		if strings.Contains(stmt, "contract_element (") && strings.Contains(stmt, "CREATE TABLE") {
			assert.NotContains(t, stmt, "REFERENCES clause")
			return
		}
	}
	t.Fatal("contract_element table not found in schema")
}
