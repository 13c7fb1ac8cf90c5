package regparam

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	dErrors "lendgate/pkg/domain-errors"
)

// seedActor is recorded as both creator and approver of seed versions.
// Seed data is the bootstrapped regulatory baseline, not a governed
// change, so the four-eyes rule does not apply to it.
const seedActor = "system:seed"

func mustDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(value string) *time.Time {
	t := mustDate(value)
	return &t
}

type seedEntry struct {
	Key           string
	Category      string
	PhaseLabel    string
	Value         Value
	Unit          string
	Condition     Condition
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	LegalBasis    string
	Description   string
}

// builtinSeed is the regulatory baseline in force at bootstrap. Each
// entry names its legal basis; later changes go through the governed
// propose/approve path as new versions.
func builtinSeed() []seedEntry {
	one := func(v float64) map[string]float64 { return map[string]float64{"value": v} }
	return []seedEntry{
		// Scorecard anchors for the deterministic fallback.
		{
			Key: "scorecard.base_score", Category: "scorecard",
			Value:         FixedValue(one(600)),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "score at the anchor probability of default",
		},
		{
			Key: "scorecard.base_pd", Category: "scorecard",
			Value:         FixedValue(one(0.072)),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "anchor probability of default at the base score",
		},
		{
			Key: "scorecard.pdo", Category: "scorecard",
			Value:         FixedValue(one(40)),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "points to double the odds",
		},

		// Score cutoffs.
		{
			Key: "decision.cutoff.reject", Category: "decision",
			Value:         FixedValue(one(450)),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "scores below are rejected",
		},
		{
			Key: "decision.cutoff.approve", Category: "decision",
			Value:         FixedValue(one(530)),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "scores at or above qualify for automatic approval",
		},

		// Debt service ratio cap and stress add-ons.
		{
			Key: "dsr.max_ratio", Category: "dsr",
			Value:         FixedValue(map[string]float64{"max_ratio": 40}),
			Unit:          "percent",
			EffectiveFrom: mustDate("2022-01-01"),
			LegalBasis:    "household debt management directive art. 3",
			Description:   "hard cap on the debt service ratio",
		},
		// Stress add-ons differ by region and rate type. Phase 2 runs
		// 2024-02-26 to 2025-07-01; phase 3 doubles the variable-rate
		// add-on and is open-ended. Fixed-rate debt gets no add-on.
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 0.75, "floor_rate": 1.5}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "variable", "region": "metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			EffectiveTo:   datePtr("2025-07-01"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "metropolitan variable-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase3",
			Value:         FixedValue(map[string]float64{"addon_rate": 1.5, "floor_rate": 1.5}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "variable", "region": "metropolitan"},
			EffectiveFrom: mustDate("2025-07-01"),
			LegalBasis:    "stress DSR guideline phase 3",
			Description:   "metropolitan variable-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 1.5, "floor_rate": 1.5}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "variable", "region": "non_metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			EffectiveTo:   datePtr("2025-07-01"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "non-metropolitan variable-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase3",
			Value:         FixedValue(map[string]float64{"addon_rate": 3.0, "floor_rate": 1.5}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "variable", "region": "non_metropolitan"},
			EffectiveFrom: mustDate("2025-07-01"),
			LegalBasis:    "stress DSR guideline phase 3",
			Description:   "non-metropolitan variable-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 0.75, "apply_ratio": 0.6}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "mixed_short", "region": "metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "metropolitan short mixed-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 0.375, "apply_ratio": 0.3}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "mixed_long", "region": "metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "metropolitan long mixed-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 1.5, "apply_ratio": 0.6}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "mixed_short", "region": "non_metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "non-metropolitan short mixed-rate stress add-on",
		},
		{
			Key: "stress_dsr.addon", Category: "dsr", PhaseLabel: "phase2",
			Value:         FixedValue(map[string]float64{"addon_rate": 0.75, "apply_ratio": 0.3}),
			Unit:          "percentage_points",
			Condition:     Condition{"rate_type": "mixed_long", "region": "non_metropolitan"},
			EffectiveFrom: mustDate("2024-02-26"),
			LegalBasis:    "stress DSR guideline phase 2",
			Description:   "non-metropolitan long mixed-rate stress add-on",
		},

		// Loan-to-value caps by area classification.
		{
			Key: "ltv.max_ratio", Category: "ltv",
			Value:         FixedValue(map[string]float64{"max_ratio": 70, "multi_owner_penalty": 10}),
			Unit:          "percent",
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "mortgage supervision regulation art. 12",
			Description:   "general area loan-to-value cap",
		},
		{
			Key: "ltv.max_ratio", Category: "ltv",
			Value:         FixedValue(map[string]float64{"max_ratio": 60, "multi_owner_penalty": 10}),
			Unit:          "percent",
			Condition:     Condition{"area": "regulated"},
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "mortgage supervision regulation art. 12",
			Description:   "regulated area loan-to-value cap",
		},
		{
			Key: "ltv.max_ratio", Category: "ltv",
			Value:         FixedValue(map[string]float64{"max_ratio": 40, "multi_owner_penalty": 10}),
			Unit:          "percent",
			Condition:     Condition{"area": "speculation"},
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "mortgage supervision regulation art. 12",
			Description:   "speculation area loan-to-value cap",
		},

		// Statutory interest rate ceiling and the reference base rate.
		{
			Key: "rate.max_interest", Category: "rate",
			Value:         FixedValue(map[string]float64{"max_rate": 20}),
			Unit:          "percent",
			EffectiveFrom: mustDate("2021-07-07"),
			LegalBasis:    "interest limitation act",
			Description:   "statutory ceiling on the contract rate",
		},
		{
			Key: "rate.base", Category: "rate",
			Value:         FixedValue(map[string]float64{"rate": 3.5}),
			Unit:          "percent",
			EffectiveFrom: mustDate("2024-01-01"),
			LegalBasis:    "central bank reference rate",
			Description:   "reference rate the pricing build starts from",
		},

		// Eligibility floors.
		{
			Key: "credit_loan.min_income", Category: "limit",
			Value:         FixedValue(map[string]float64{"min_income": 12_000_000}),
			EffectiveFrom: mustDate("2022-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "minimum verified annual income",
		},
		{
			Key: "policy.delinquency_cutoff", Category: "decision",
			Value:         FixedValue(map[string]float64{"max_status": 1}),
			EffectiveFrom: mustDate("2020-01-01"),
			LegalBasis:    "internal credit policy v4",
			Description:   "worst delinquency status above which applications are refused",
		},

		// Unsecured limit multipliers by employment type.
		{
			Key: "credit_loan.income_multiplier", Category: "limit",
			Value:         FixedValue(map[string]float64{"multiplier": 1.5}),
			Condition:     Condition{"employment_type": "employed"},
			EffectiveFrom: mustDate("2022-07-01"),
			LegalBasis:    "unsecured lending guideline",
			Description:   "annual income multiplier for salaried applicants",
		},
		{
			Key: "credit_loan.income_multiplier", Category: "limit",
			Value:         FixedValue(map[string]float64{"multiplier": 1.0}),
			Condition:     Condition{"employment_type": "self_employed"},
			EffectiveFrom: mustDate("2022-07-01"),
			LegalBasis:    "unsecured lending guideline",
			Description:   "annual income multiplier for self-employed applicants",
		},

		// Credit conversion factor for revolving facilities.
		{
			Key: "ccf.revolving.default", Category: "exposure",
			Value:         FixedValue(map[string]float64{"ccf": 0.50}),
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "capital adequacy standard annex 4",
			Description:   "credit conversion factor for undrawn revolving limits",
		},
	}
}

// eqGradeSeed yields the employer-quality benefit table: limit
// multipliers and rate adjustments per enterprise grade.
func eqGradeSeed() []seedEntry {
	rows := []struct {
		grade      string
		multiplier float64
		rateAdj    float64
	}{
		{"EQ-S", 2.0, -0.5},
		{"EQ-A", 1.8, -0.3},
		{"EQ-B", 1.5, -0.2},
		{"EQ-C", 1.2, 0},
		{"EQ-D", 1.0, 0.2},
		{"EQ-E", 0.7, 0.5},
	}
	entries := make([]seedEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, seedEntry{
			Key:      "eq_grade.benefit",
			Category: "grading",
			Value: FixedValue(map[string]float64{
				"limit_multiplier": r.multiplier,
				"rate_adjustment":  r.rateAdj,
			}),
			Condition:     Condition{"eq_grade": r.grade},
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "employer quality grading policy v2",
			Description:   fmt.Sprintf("benefit terms for enterprise grade %s", r.grade),
		})
	}
	return entries
}

// irgSeed yields industry-risk adjustments. The PD adjustment is a
// proportion: estimated PD is scaled by (1 + pd_adjustment).
func irgSeed() []seedEntry {
	rows := []struct {
		grade    string
		pdAdj    float64
		limitCap float64
	}{
		{"L", -0.10, 1.0},
		{"M", 0, 1.0},
		{"H", 0.15, 0.9},
		{"VH", 0.30, 0.7},
	}
	entries := make([]seedEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, seedEntry{
			Key:      "irg.pd_adjustment",
			Category: "grading",
			Value: FixedValue(map[string]float64{
				"pd_adjustment": r.pdAdj,
				"limit_cap":     r.limitCap,
			}),
			Condition:     Condition{"industry_risk": r.grade},
			EffectiveFrom: mustDate("2023-01-01"),
			LegalBasis:    "industry risk grading policy v3",
			Description:   fmt.Sprintf("adjustments for industry risk grade %s", r.grade),
		})
	}
	return entries
}

// segmentSeed yields preferential-segment benefit terms. The guaranteed
// enterprise grade is stored as a rank on the EQ ladder (EQ-E=1 ..
// EQ-S=6, 0 = no guarantee) so segment floors compose with the graded
// value by taking the more favorable.
func segmentSeed() []seedEntry {
	rows := []struct {
		code     string
		rateAdj  float64
		limitMul float64
		eqFloor  float64
		desc     string
	}{
		{"SEG-DR", -0.3, 3.0, 4, "medical professionals"},
		{"SEG-JD", -0.2, 2.5, 4, "legal professionals"},
		{"SEG-ART", 0, 1.0, 0, "registered artists"},
		{"SEG-YTH", -0.5, 1.0, 0, "youth first-time borrowers"},
		{"SEG-MIL", -0.5, 2.0, 6, "active-duty service members"},
		{"SEG-MOU", -0.3, 1.5, 0, "partner institution employees"},
	}
	entries := make([]seedEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, seedEntry{
			Key:      "segment.benefit",
			Category: "segment",
			Value: FixedValue(map[string]float64{
				"rate_adjustment":  r.rateAdj,
				"limit_multiplier": r.limitMul,
				"eq_grade_floor":   r.eqFloor,
			}),
			Condition:     Condition{"segment": r.code},
			EffectiveFrom: mustDate("2023-06-01"),
			LegalBasis:    "preferential segment program terms",
			Description:   fmt.Sprintf("benefit terms for %s", r.desc),
		})
	}
	return entries
}

// Seed loads the builtin parameter baseline into the store as active
// versions. Entries that already exist are skipped, so Seed is safe to
// run on every startup.
func Seed(ctx context.Context, store Store) (int, error) {
	entries := builtinSeed()
	entries = append(entries, eqGradeSeed()...)
	entries = append(entries, irgSeed()...)
	entries = append(entries, segmentSeed()...)
	return seedEntries(ctx, store, entries)
}

func seedEntries(ctx context.Context, store Store, entries []seedEntry) (int, error) {
	now := time.Now()
	inserted := 0
	for _, e := range entries {
		value := e.Value
		if e.Unit != "" {
			value.Unit = e.Unit
		}
		p := Parameter{
			ID:            uuid.New(),
			Key:           e.Key,
			Category:      e.Category,
			PhaseLabel:    e.PhaseLabel,
			Value:         value,
			Condition:     e.Condition,
			EffectiveFrom: e.EffectiveFrom,
			EffectiveTo:   e.EffectiveTo,
			IsActive:      true,
			LegalBasis:    e.LegalBasis,
			Description:   e.Description,
			CreatedBy:     seedActor,
			ApprovedBy:    seedActor,
			ApprovedAt:    &now,
			ChangeReason:  "baseline seed",
			CreatedAt:     now,
		}
		if err := store.Insert(ctx, p); err != nil {
			if dErrors.Is(err, dErrors.CodeConflict) {
				continue
			}
			return inserted, fmt.Errorf("seed %s: %w", e.Key, err)
		}
		inserted++
	}
	return inserted, nil
}

type seedFile struct {
	Parameters []struct {
		Key           string             `yaml:"key"`
		Category      string             `yaml:"category"`
		PhaseLabel    string             `yaml:"phase_label"`
		Fields        map[string]float64 `yaml:"fields"`
		Unit          string             `yaml:"unit"`
		Condition     map[string]string  `yaml:"condition"`
		EffectiveFrom string             `yaml:"effective_from"`
		EffectiveTo   string             `yaml:"effective_to"`
		LegalBasis    string             `yaml:"legal_basis"`
		Description   string             `yaml:"description"`
	} `yaml:"parameters"`
}

// SeedFromFile loads additional parameter versions from a YAML file,
// typically environment-specific overrides layered on the builtin seed.
func SeedFromFile(ctx context.Context, store Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	entries := make([]seedEntry, 0, len(file.Parameters))
	for i, p := range file.Parameters {
		from, err := time.Parse("2006-01-02", p.EffectiveFrom)
		if err != nil {
			return 0, fmt.Errorf("seed file entry %d: invalid effective_from: %w", i, err)
		}
		var to *time.Time
		if p.EffectiveTo != "" {
			t, err := time.Parse("2006-01-02", p.EffectiveTo)
			if err != nil {
				return 0, fmt.Errorf("seed file entry %d: invalid effective_to: %w", i, err)
			}
			to = &t
		}
		value := FixedValue(p.Fields)
		value.Unit = p.Unit
		entries = append(entries, seedEntry{
			Key:           p.Key,
			Category:      p.Category,
			PhaseLabel:    p.PhaseLabel,
			Value:         value,
			Condition:     Condition(p.Condition),
			EffectiveFrom: from,
			EffectiveTo:   to,
			LegalBasis:    p.LegalBasis,
			Description:   p.Description,
		})
	}
	return seedEntries(ctx, store, entries)
}
