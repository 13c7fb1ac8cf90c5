// Package grading resolves the qualitative inputs of an evaluation: the
// employer's enterprise quality grade, the industry risk grade, and the
// preferential segments the applicant qualifies for. Grades come from
// administratively maintained tables; the engine only reads them.
package grading

import "time"

// EnterpriseGrade classifies employer quality, EQ-S (public bodies,
// financial institutions) down to EQ-E (distressed). An employer absent
// from the table is unclassified and earns no benefit or penalty.
type EnterpriseGrade string

const (
	EQGradeS EnterpriseGrade = "EQ-S"
	EQGradeA EnterpriseGrade = "EQ-A"
	EQGradeB EnterpriseGrade = "EQ-B"
	EQGradeC EnterpriseGrade = "EQ-C"
	EQGradeD EnterpriseGrade = "EQ-D"
	EQGradeE EnterpriseGrade = "EQ-E"

	EQUnclassified EnterpriseGrade = "unclassified"
)

var eqRanks = map[EnterpriseGrade]int{
	EQGradeE: 1,
	EQGradeD: 2,
	EQGradeC: 3,
	EQGradeB: 4,
	EQGradeA: 5,
	EQGradeS: 6,
}

// Rank places the grade on the EQ ladder, 1 (EQ-E) to 6 (EQ-S).
// Unclassified ranks 0, below every graded value.
func (g EnterpriseGrade) Rank() int {
	return eqRanks[g]
}

// GradeForRank is the inverse of Rank. Rank 0 maps to unclassified.
func GradeForRank(rank int) EnterpriseGrade {
	for g, r := range eqRanks {
		if r == rank {
			return g
		}
	}
	return EQUnclassified
}

// IndustryGrade classifies the risk of the applicant's industry. An
// unknown industry code resolves to unclassified, treated as neutral.
type IndustryGrade string

const (
	IRGLow      IndustryGrade = "L"
	IRGModerate IndustryGrade = "M"
	IRGHigh     IndustryGrade = "H"
	IRGVeryHigh IndustryGrade = "VH"

	IRGUnclassified IndustryGrade = "unclassified"
)

// Segment codes for preferential lending programs.
const (
	SegmentMedical  = "SEG-DR"
	SegmentLegal    = "SEG-JD"
	SegmentArtist   = "SEG-ART"
	SegmentYouth    = "SEG-YTH"
	SegmentMilitary = "SEG-MIL"
	SegmentMOU      = "SEG-MOU"
)

// EnterpriseRecord is one graded employer. Lookup is by the registration
// number hash; the normalized name is a fallback for applicants who
// cannot supply the registration number.
type EnterpriseRecord struct {
	RegHash    string
	Name       string
	Grade      EnterpriseGrade
	MOUPartner bool
	GradedAt   time.Time
}

// IndustryRecord is one graded industry classification code.
type IndustryRecord struct {
	IndustryCode string
	Grade        IndustryGrade
	GradedAt     time.Time
}

// Profile carries the applicant attributes the segment predicates read.
type Profile struct {
	Age             int
	OccupationCode  string
	LicenseNumber   string
	ResidentHash    string
	MilitaryActive  bool
	EmployerRegHash string
	EmployerName    string
	IndustryCode    string
}

// Result is the full grading outcome for one applicant.
type Result struct {
	Enterprise EnterpriseGrade
	Industry   IndustryGrade
	MOUPartner bool
	Segments   []string
}
