package regparam

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dErrors "lendgate/pkg/domain-errors"
)

// PostgresStore persists parameter versions in the regulation_params
// table. The table is append-only: UPDATE touches only the activation
// state and approval columns, never stored values.
//
// Schema (see migrations):
//
//	CREATE TABLE regulation_params (
//	    id             UUID PRIMARY KEY,
//	    param_key      VARCHAR(100) NOT NULL,
//	    param_category VARCHAR(30)  NOT NULL,
//	    phase_label    VARCHAR(20),
//	    param_value    JSONB,
//	    condition_json JSONB,
//	    condition_hash VARCHAR(32)  NOT NULL,
//	    effective_from TIMESTAMPTZ  NOT NULL,
//	    effective_to   TIMESTAMPTZ,
//	    is_active      BOOLEAN      NOT NULL DEFAULT FALSE,
//	    legal_basis    VARCHAR(200),
//	    description    TEXT,
//	    created_by     VARCHAR(50),
//	    approved_by    VARCHAR(50),
//	    approved_at    TIMESTAMPTZ,
//	    change_reason  TEXT,
//	    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
//	    UNIQUE (param_key, condition_hash, effective_from)
//	);
//	CREATE INDEX idx_regulation_params_key_active ON regulation_params (param_key, is_active);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed parameter store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const paramColumns = `id, param_key, param_category, phase_label, param_value, condition_json,
	effective_from, effective_to, is_active, legal_basis, description,
	created_by, approved_by, approved_at, change_reason, created_at`

func (s *PostgresStore) Insert(ctx context.Context, p Parameter) error {
	valueJSON, err := json.Marshal(p.Value)
	if err != nil {
		return fmt.Errorf("marshal param value: %w", err)
	}
	var condJSON []byte
	if len(p.Condition) > 0 {
		if condJSON, err = json.Marshal(p.Condition); err != nil {
			return fmt.Errorf("marshal param condition: %w", err)
		}
	}

	query := `
		INSERT INTO regulation_params (
			id, param_key, param_category, phase_label, param_value, condition_json, condition_hash,
			effective_from, effective_to, is_active, legal_basis, description,
			created_by, approved_by, approved_at, change_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.Key, p.Category, nullString(p.PhaseLabel), valueJSON, condJSON, p.Condition.Hash(),
		p.EffectiveFrom, p.EffectiveTo, p.IsActive, nullString(p.LegalBasis), nullString(p.Description),
		nullString(p.CreatedBy), nullString(p.ApprovedBy), p.ApprovedAt, nullString(p.ChangeReason), p.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return dErrors.Wrap(err, dErrors.CodeConflict, "parameter version already exists")
		}
		return fmt.Errorf("insert regulation param: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Parameter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paramColumns+` FROM regulation_params WHERE id = $1`, id)
	p, err := scanParameter(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get regulation param: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListActiveByKey(ctx context.Context, key string) ([]Parameter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paramColumns+` FROM regulation_params
		 WHERE param_key = $1 AND is_active = TRUE
		 ORDER BY effective_from`, key)
	if err != nil {
		return nil, fmt.Errorf("list active params: %w", err)
	}
	defer rows.Close()
	return collectParameters(rows)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Parameter, error) {
	query := `SELECT ` + paramColumns + ` FROM regulation_params WHERE 1=1`
	var args []any
	if filter.Key != "" {
		args = append(args, filter.Key)
		query += fmt.Sprintf(" AND param_key = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND param_category = $%d", len(args))
	}
	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY param_category, param_key, effective_from"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list params: %w", err)
	}
	defer rows.Close()
	return collectParameters(rows)
}

func (s *PostgresStore) Activate(ctx context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE regulation_params
		 SET is_active = TRUE, approved_by = $2, approved_at = $3
		 WHERE id = $1`, id, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("activate param: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id uuid.UUID, effectiveTo time.Time, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE regulation_params
		 SET is_active = FALSE, effective_to = $2, change_reason = $3
		 WHERE id = $1`, id, effectiveTo, reason)
	if err != nil {
		return fmt.Errorf("deactivate param: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParameter(row rowScanner) (*Parameter, error) {
	var (
		p          Parameter
		phase      sql.NullString
		valueJSON  []byte
		condJSON   []byte
		legal      sql.NullString
		desc       sql.NullString
		createdBy  sql.NullString
		approvedBy sql.NullString
		reason     sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Key, &p.Category, &phase, &valueJSON, &condJSON,
		&p.EffectiveFrom, &p.EffectiveTo, &p.IsActive, &legal, &desc,
		&createdBy, &approvedBy, &p.ApprovedAt, &reason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(valueJSON, &p.Value); err != nil {
		return nil, fmt.Errorf("unmarshal param value: %w", err)
	}
	if len(condJSON) > 0 {
		if err := json.Unmarshal(condJSON, &p.Condition); err != nil {
			return nil, fmt.Errorf("unmarshal param condition: %w", err)
		}
	}
	p.PhaseLabel = phase.String
	p.LegalBasis = legal.String
	p.Description = desc.String
	p.CreatedBy = createdBy.String
	p.ApprovedBy = approvedBy.String
	p.ChangeReason = reason.String
	return &p, nil
}

func collectParameters(rows *sql.Rows) ([]Parameter, error) {
	var out []Parameter
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
