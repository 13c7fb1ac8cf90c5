// Package regparam owns time-versioned regulatory and business parameters.
// Every change is a new immutable version with an effective interval; the
// resolver answers "what is the effective value of key K, for this context,
// as of time T".
package regparam

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValueKind distinguishes fixed parameter values from values the scoring
// model supplies at evaluation time.
type ValueKind string

const (
	ValueFixed        ValueKind = "fixed"
	ValueModelDerived ValueKind = "model_derived"
)

// Value is the tagged variant behind a parameter: either a set of named
// numeric fields, or a marker that the value comes from the model. Stored
// as JSONB; a model-derived value serializes to null.
type Value struct {
	Kind   ValueKind
	Fields map[string]float64
	Unit   string
}

// FixedValue builds a fixed value from named numeric fields.
func FixedValue(fields map[string]float64) Value {
	return Value{Kind: ValueFixed, Fields: fields}
}

// ModelDerived marks the value as supplied by the scoring model.
func ModelDerived() Value {
	return Value{Kind: ValueModelDerived}
}

// Field returns a named numeric field of a fixed value.
func (v Value) Field(name string) (float64, bool) {
	if v.Kind != ValueFixed {
		return 0, false
	}
	f, ok := v.Fields[name]
	return f, ok
}

// FieldOr returns a named numeric field, or fallback when absent.
func (v Value) FieldOr(name string, fallback float64) float64 {
	if f, ok := v.Field(name); ok {
		return f
	}
	return fallback
}

type valueJSON struct {
	Fields map[string]float64 `json:"fields"`
	Unit   string             `json:"unit,omitempty"`
}

// MarshalJSON serializes model-derived values as null so the stored form
// stays compatible with the administrative tooling.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueModelDerived {
		return []byte("null"), nil
	}
	return json.Marshal(valueJSON{Fields: v.Fields, Unit: v.Unit})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ModelDerived()
		return nil
	}
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Value{Kind: ValueFixed, Fields: raw.Fields, Unit: raw.Unit}
	return nil
}

// Condition is a structured predicate over context attributes. A parameter
// with a nil condition matches any context.
type Condition map[string]string

// Matches reports whether every condition field equals the corresponding
// context attribute.
func (c Condition) Matches(ctx Context) bool {
	for k, want := range c {
		if ctx[k] != want {
			return false
		}
	}
	return true
}

// Specificity counts matched fields; the resolver prefers the most
// specific satisfied condition.
func (c Condition) Specificity() int { return len(c) }

// Hash returns a stable digest of the condition used for uniqueness and
// cache keys. The empty condition hashes to "any".
func (c Condition) Hash() string {
	if len(c) == 0 {
		return "any"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c[k])
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// Context carries the request attributes a condition is evaluated against
// (region, rate type, area classification, and so on).
type Context map[string]string

// Parameter is one named rule version. Immutable once created except for
// IsActive and the approval fields; a value change is a new version with
// its own EffectiveFrom.
type Parameter struct {
	ID            uuid.UUID
	Key           string
	Category      string
	PhaseLabel    string
	Value         Value
	Condition     Condition
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	IsActive      bool

	LegalBasis   string
	Description  string
	CreatedBy    string
	ApprovedBy   string
	ApprovedAt   *time.Time
	ChangeReason string
	CreatedAt    time.Time
}

// CoversAt reports whether the half-open interval [EffectiveFrom,
// EffectiveTo) contains t. A nil EffectiveTo is open-ended.
func (p Parameter) CoversAt(t time.Time) bool {
	if t.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && !t.Before(*p.EffectiveTo) {
		return false
	}
	return true
}

// Overlaps reports whether two effective intervals intersect.
func (p Parameter) Overlaps(other Parameter) bool {
	if other.EffectiveTo != nil && !p.EffectiveFrom.Before(*other.EffectiveTo) {
		return false
	}
	if p.EffectiveTo != nil && !other.EffectiveFrom.Before(*p.EffectiveTo) {
		return false
	}
	return true
}

// Resolved is what the resolver hands to callers: the effective value plus
// the provenance the policy engine records in every reason tuple.
type Resolved struct {
	Key           string
	Value         Value
	PhaseLabel    string
	LegalBasis    string
	EffectiveFrom time.Time
}
