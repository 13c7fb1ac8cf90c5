package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists audit records in two append-only tables.
//
// Schema (see migrations):
//
//	CREATE TABLE audit_decisions (
//	    id             UUID PRIMARY KEY,
//	    request_id     VARCHAR(64),
//	    applicant_hash VARCHAR(64)  NOT NULL,
//	    product_type   VARCHAR(20)  NOT NULL,
//	    as_of          TIMESTAMPTZ  NOT NULL,
//	    decision       VARCHAR(20)  NOT NULL,
//	    score          INTEGER      NOT NULL,
//	    grade          VARCHAR(5)   NOT NULL,
//	    segments       TEXT[],
//	    approved_rate  DOUBLE PRECISION NOT NULL,
//	    approved_limit DOUBLE PRECISION NOT NULL,
//	    fallback_used  BOOLEAN      NOT NULL,
//	    model_version  VARCHAR(40),
//	    reasons        JSONB,
//	    params_used    JSONB,
//	    created_at     TIMESTAMPTZ  NOT NULL
//	);
//	CREATE INDEX idx_audit_decisions_created ON audit_decisions (created_at);
//
//	CREATE TABLE audit_parameter_changes (
//	    id            UUID PRIMARY KEY,
//	    param_id      UUID         NOT NULL,
//	    param_key     VARCHAR(100) NOT NULL,
//	    action        VARCHAR(20)  NOT NULL,
//	    actor         VARCHAR(50)  NOT NULL,
//	    change_reason TEXT,
//	    request_id    VARCHAR(64),
//	    occurred_at   TIMESTAMPTZ  NOT NULL
//	);
//	CREATE INDEX idx_audit_param_changes_key ON audit_parameter_changes (param_key, occurred_at);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendDecision(ctx context.Context, rec DecisionRecord) error {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	params, err := json.Marshal(rec.ParamsUsed)
	if err != nil {
		return fmt.Errorf("marshal params used: %w", err)
	}

	// Single INSERT keeps the record atomic: either the full decision is
	// durable or nothing is.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_decisions (
			id, request_id, applicant_hash, product_type, as_of, decision, score, grade,
			segments, approved_rate, approved_limit, fallback_used, model_version,
			reasons, params_used, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		rec.ID, rec.RequestID, rec.ApplicantHash, rec.ProductType, rec.AsOf, rec.Decision,
		rec.Score, rec.Grade, pq.Array(rec.Segments), rec.ApprovedRate, rec.ApprovedLimit,
		rec.FallbackUsed, rec.ModelVersion, reasons, params, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append decision record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendParameterChange(ctx context.Context, rec ParameterChange) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_parameter_changes (
			id, param_id, param_key, action, actor, change_reason, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.ID, rec.ParamID, rec.ParamKey, rec.Action, rec.Actor, rec.ChangeReason,
		rec.RequestID, rec.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append parameter change: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	query := `
		SELECT id, request_id, applicant_hash, product_type, as_of, decision, score, grade,
		       segments, approved_rate, approved_limit, fallback_used, model_version,
		       reasons, params_used, created_at
		FROM audit_decisions WHERE 1=1`
	var args []any
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	if filter.Decision != "" {
		args = append(args, filter.Decision)
		query += fmt.Sprintf(" AND decision = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decision records: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var (
			rec      DecisionRecord
			reqID    sql.NullString
			modelVer sql.NullString
			reasons  []byte
			params   []byte
		)
		err := rows.Scan(
			&rec.ID, &reqID, &rec.ApplicantHash, &rec.ProductType, &rec.AsOf, &rec.Decision,
			&rec.Score, &rec.Grade, pq.Array(&rec.Segments), &rec.ApprovedRate, &rec.ApprovedLimit,
			&rec.FallbackUsed, &modelVer, &reasons, &params, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.RequestID = reqID.String
		rec.ModelVersion = modelVer.String
		if len(reasons) > 0 {
			if err := json.Unmarshal(reasons, &rec.Reasons); err != nil {
				return nil, fmt.Errorf("unmarshal reasons: %w", err)
			}
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.ParamsUsed); err != nil {
				return nil, fmt.Errorf("unmarshal params used: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListParameterChanges(ctx context.Context, filter QueryFilter) ([]ParameterChange, error) {
	query := `
		SELECT id, param_id, param_key, action, actor, change_reason, request_id, occurred_at
		FROM audit_parameter_changes WHERE 1=1`
	var args []any
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND occurred_at < $%d", len(args))
	}
	if filter.ParamKey != "" {
		args = append(args, filter.ParamKey)
		query += fmt.Sprintf(" AND param_key = $%d", len(args))
	}
	query += " ORDER BY occurred_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parameter changes: %w", err)
	}
	defer rows.Close()

	var out []ParameterChange
	for rows.Next() {
		var (
			rec    ParameterChange
			reason sql.NullString
			reqID  sql.NullString
		)
		err := rows.Scan(&rec.ID, &rec.ParamID, &rec.ParamKey, &rec.Action, &rec.Actor,
			&reason, &reqID, &rec.OccurredAt)
		if err != nil {
			return nil, err
		}
		rec.ChangeReason = reason.String
		rec.RequestID = reqID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
