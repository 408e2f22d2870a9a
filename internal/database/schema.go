package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the contract tables. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS contract (
        contract_id   BIGSERIAL PRIMARY KEY,
        contract_name TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS clause (
        clause_id BIGSERIAL PRIMARY KEY,
        category  TEXT NOT NULL DEFAULT 'OTHERS',
        title     TEXT NOT NULL,
        content   TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS contract_element (
        element_id       BIGSERIAL PRIMARY KEY,
        contract_id      BIGINT NOT NULL REFERENCES contract (contract_id),
        element_type     TEXT,
        content          TEXT,
        attributes       TEXT,
        source_clause_id BIGINT,
        order_index      INTEGER NOT NULL DEFAULT 0
    )`,
	`CREATE INDEX IF NOT EXISTS contract_element_contract_order_idx
        ON contract_element (contract_id, order_index, element_id)`,
	`CREATE TABLE IF NOT EXISTS template_element_config (
        config_id          BIGSERIAL PRIMARY KEY,
        template_id        BIGINT NOT NULL,
        order_index        INTEGER NOT NULL DEFAULT 0,
        element_type       TEXT,
        content_source     TEXT,
        static_content     TEXT,
        source_clause_id   BIGINT,
        default_attributes TEXT
    )`,
	`CREATE INDEX IF NOT EXISTS template_element_config_template_idx
        ON template_element_config (template_id)`,
}

// EnsureSchema applies Schema in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// No-op after Commit.
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
