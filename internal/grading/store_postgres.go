package grading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore reads the enterprise_grades and industry_grades tables.
// The tables are maintained by the grading back office; this store never
// writes them.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed grade store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnterpriseByRegHash(ctx context.Context, regHash string) (*EnterpriseRecord, error) {
	query := `
		SELECT employer_reg_hash, employer_name, grade, mou_partner, graded_at
		FROM enterprise_grades
		WHERE employer_reg_hash = $1
	`
	return s.scanEnterprise(s.db.QueryRowContext(ctx, query, regHash))
}

func (s *PostgresStore) EnterpriseByName(ctx context.Context, name string) (*EnterpriseRecord, error) {
	query := `
		SELECT employer_reg_hash, employer_name, grade, mou_partner, graded_at
		FROM enterprise_grades
		WHERE lower(employer_name) = lower($1)
		ORDER BY graded_at DESC
		LIMIT 1
	`
	return s.scanEnterprise(s.db.QueryRowContext(ctx, query, name))
}

func (s *PostgresStore) IndustryByCode(ctx context.Context, code string) (*IndustryRecord, error) {
	query := `
		SELECT industry_code, grade, graded_at
		FROM industry_grades
		WHERE industry_code = $1
	`
	var rec IndustryRecord
	err := s.db.QueryRowContext(ctx, query, code).Scan(&rec.IndustryCode, &rec.Grade, &rec.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query industry grade: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) scanEnterprise(row *sql.Row) (*EnterpriseRecord, error) {
	var rec EnterpriseRecord
	err := row.Scan(&rec.RegHash, &rec.Name, &rec.Grade, &rec.MOUPartner, &rec.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query enterprise grade: %w", err)
	}
	return &rec, nil
}
