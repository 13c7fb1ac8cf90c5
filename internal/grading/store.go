package grading

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no grade record exists for the lookup.
var ErrNotFound = errors.New("grade record not found")

// Store reads the administratively maintained grade tables.
type Store interface {
	EnterpriseByRegHash(ctx context.Context, regHash string) (*EnterpriseRecord, error)
	EnterpriseByName(ctx context.Context, name string) (*EnterpriseRecord, error)
	IndustryByCode(ctx context.Context, code string) (*IndustryRecord, error)
}
