package contracts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/contractmanage/pkg/elementtype"
	"github.com/contractmanage/pkg/models"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists contracts through database/sql with the lib/pq driver.
// Tables are created by database.EnsureSchema.
type PostgresStore struct {
	pgQueries
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{pgQueries: pgQueries{q: db}, db: db}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// No-op once committed; also covers a panic inside the transaction.
	defer func() { _ = tx.Rollback() }()

	if err := fn(pgQueries{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// SyncSequences moves the serial sequences past any explicitly inserted ids.
// Call it after seeding rows with fixed ids.
func (s *PostgresStore) SyncSequences(ctx context.Context) error {
	for _, t := range []struct{ table, col string }{
		{"clause", "clause_id"},
		{"template_element_config", "config_id"},
	} {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 0) + 1, false) FROM %s`,
			t.table, t.col, t.col, t.table)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sync %s sequence: %w", t.table, err)
		}
	}
	return nil
}

type pgQueries struct {
	q dbtx
}

func (p pgQueries) InsertContract(ctx context.Context, c *models.Contract) error {
	return p.q.QueryRowContext(ctx, `
        INSERT INTO contract (contract_name, created_at, updated_at)
        VALUES ($1, $2, $3)
        RETURNING contract_id
    `, c.ContractName, c.CreatedAt, c.UpdatedAt).Scan(&c.ContractID)
}

func (p pgQueries) GetContract(ctx context.Context, id int64) (*models.Contract, error) {
	var c models.Contract
	err := p.q.QueryRowContext(ctx, `
        SELECT contract_id, contract_name, created_at, updated_at
        FROM contract WHERE contract_id = $1
    `, id).Scan(&c.ContractID, &c.ContractName, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p pgQueries) DeleteContract(ctx context.Context, id int64) error {
	res, err := p.q.ExecContext(ctx, `DELETE FROM contract WHERE contract_id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (p pgQueries) InsertElement(ctx context.Context, e *models.ContractElement) error {
	return p.q.QueryRowContext(ctx, `
        INSERT INTO contract_element (contract_id, element_type, content, attributes, source_clause_id, order_index)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING element_id
    `, e.ContractID, nullType(e.ElementType), e.Content, e.Attributes, e.SourceClauseID, e.OrderIndex).Scan(&e.ElementID)
}

const elementColumns = `element_id, contract_id, element_type, content, attributes, source_clause_id, order_index`

func (p pgQueries) GetElement(ctx context.Context, id int64) (*models.ContractElement, error) {
	row := p.q.QueryRowContext(ctx, `SELECT `+elementColumns+` FROM contract_element WHERE element_id = $1`, id)
	return scanElement(row)
}

func (p pgQueries) UpdateElement(ctx context.Context, e *models.ContractElement) error {
	res, err := p.q.ExecContext(ctx, `
        UPDATE contract_element
        SET contract_id = $1, element_type = $2, content = $3, attributes = $4, source_clause_id = $5, order_index = $6
        WHERE element_id = $7
    `, e.ContractID, nullType(e.ElementType), e.Content, e.Attributes, e.SourceClauseID, e.OrderIndex, e.ElementID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (p pgQueries) DeleteElement(ctx context.Context, id int64) error {
	res, err := p.q.ExecContext(ctx, `DELETE FROM contract_element WHERE element_id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (f ElementFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ContractID != 0 {
		args = append(args, f.ContractID)
		conds = append(conds, fmt.Sprintf("contract_id = $%d", len(args)))
	}
	if f.ElementType != "" {
		args = append(args, string(f.ElementType))
		conds = append(conds, fmt.Sprintf("element_type = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (p pgQueries) ListElements(ctx context.Context, f ElementFilter) ([]models.ContractElement, error) {
	where, args := f.where()
	rows, err := p.q.QueryContext(ctx, `SELECT `+elementColumns+` FROM contract_element`+where+` ORDER BY order_index, element_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.ContractElement, 0)
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (p pgQueries) DeleteElements(ctx context.Context, f ElementFilter) (int64, error) {
	where, args := f.where()
	res, err := p.q.ExecContext(ctx, `DELETE FROM contract_element`+where, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p pgQueries) InsertClause(ctx context.Context, c *models.Clause) error {
	if c.ClauseID != 0 {
		_, err := p.q.ExecContext(ctx, `
            INSERT INTO clause (clause_id, category, title, content) VALUES ($1, $2, $3, $4)
        `, c.ClauseID, string(c.Category), c.Title, c.Content)
		return err
	}
	return p.q.QueryRowContext(ctx, `
        INSERT INTO clause (category, title, content) VALUES ($1, $2, $3)
        RETURNING clause_id
    `, string(c.Category), c.Title, c.Content).Scan(&c.ClauseID)
}

func (p pgQueries) GetClause(ctx context.Context, id int64) (*models.Clause, error) {
	var c models.Clause
	var category string
	err := p.q.QueryRowContext(ctx, `
        SELECT clause_id, category, title, content FROM clause WHERE clause_id = $1
    `, id).Scan(&c.ClauseID, &category, &c.Title, &c.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Category = models.ClauseCategory(category)
	return &c, nil
}

func (p pgQueries) ListClauses(ctx context.Context, f ClauseFilter) ([]models.Clause, error) {
	var conds []string
	var args []any
	if f.TitleContains != "" {
		args = append(args, "%"+escapeLike(f.TitleContains)+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	query := `SELECT clause_id, category, title, content FROM clause`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := p.q.QueryContext(ctx, query+` ORDER BY clause_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Clause, 0)
	for rows.Next() {
		var c models.Clause
		var category string
		if err := rows.Scan(&c.ClauseID, &category, &c.Title, &c.Content); err != nil {
			return nil, err
		}
		c.Category = models.ClauseCategory(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p pgQueries) InsertTemplateConfig(ctx context.Context, c *models.TemplateElementConfig) error {
	if c.ConfigID != 0 {
		_, err := p.q.ExecContext(ctx, `
            INSERT INTO template_element_config (config_id, template_id, order_index, element_type, content_source, static_content, source_clause_id, default_attributes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, c.ConfigID, c.TemplateID, c.OrderIndex, c.ElementType, c.ContentSource, c.StaticContent, c.SourceClauseID, c.DefaultAttributes)
		return err
	}
	return p.q.QueryRowContext(ctx, `
        INSERT INTO template_element_config (template_id, order_index, element_type, content_source, static_content, source_clause_id, default_attributes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING config_id
    `, c.TemplateID, c.OrderIndex, c.ElementType, c.ContentSource, c.StaticContent, c.SourceClauseID, c.DefaultAttributes).Scan(&c.ConfigID)
}

func (p pgQueries) ListTemplateConfigs(ctx context.Context, templateID int64) ([]models.TemplateElementConfig, error) {
	rows, err := p.q.QueryContext(ctx, `
        SELECT config_id, template_id, order_index, coalesce(element_type, ''), coalesce(content_source, ''), static_content, source_clause_id, default_attributes
        FROM template_element_config
        WHERE template_id = $1
        ORDER BY config_id
    `, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.TemplateElementConfig, 0)
	for rows.Next() {
		var c models.TemplateElementConfig
		var static, attrs sql.NullString
		var clauseID sql.NullInt64
		if err := rows.Scan(&c.ConfigID, &c.TemplateID, &c.OrderIndex, &c.ElementType, &c.ContentSource, &static, &clauseID, &attrs); err != nil {
			return nil, err
		}
		c.StaticContent = stringOrNil(static)
		c.SourceClauseID = int64OrNil(clauseID)
		c.DefaultAttributes = stringOrNil(attrs)
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanElement(scanner interface{ Scan(dest ...any) error }) (*models.ContractElement, error) {
	var e models.ContractElement
	var typ, content, attrs sql.NullString
	var clauseID sql.NullInt64
	if err := scanner.Scan(&e.ElementID, &e.ContractID, &typ, &content, &attrs, &clauseID, &e.OrderIndex); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if typ.Valid {
		e.ElementType = elementtype.Type(typ.String)
	}
	e.Content = stringOrNil(content)
	e.Attributes = stringOrNil(attrs)
	e.SourceClauseID = int64OrNil(clauseID)
	return &e, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullType(t elementtype.Type) sql.NullString {
	return sql.NullString{String: string(t), Valid: t != ""}
}

func stringOrNil(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func int64OrNil(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
