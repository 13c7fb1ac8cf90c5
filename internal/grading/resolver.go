package grading

import (
	"context"
	"errors"
	"log/slog"
	"sort"
)

// youth segment age bracket, inclusive.
const (
	youthMinAge = 19
	youthMaxAge = 34
)

// Resolver derives the grading result for one applicant. Lookups that
// find nothing resolve to the unclassified neutral grade; grading never
// fails an evaluation.
type Resolver struct {
	store    Store
	verifier LicenseVerifier
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithVerifier attaches the profession registry verifier. Without one,
// license-based segments are simply never granted.
func WithVerifier(v LicenseVerifier) ResolverOption {
	return func(r *Resolver) { r.verifier = v }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a grading resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("grade store is required")
	}
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve grades the applicant's employer and industry and collects
// every preferential segment the profile qualifies for.
func (r *Resolver) Resolve(ctx context.Context, profile Profile) (Result, error) {
	result := Result{
		Enterprise: EQUnclassified,
		Industry:   IRGUnclassified,
	}

	if rec := r.enterprise(ctx, profile); rec != nil {
		result.Enterprise = rec.Grade
		result.MOUPartner = rec.MOUPartner
	}

	if profile.IndustryCode != "" {
		rec, err := r.store.IndustryByCode(ctx, profile.IndustryCode)
		switch {
		case err == nil:
			result.Industry = rec.Grade
		case errors.Is(err, ErrNotFound):
			// unknown industry stays unclassified
		default:
			return Result{}, err
		}
	}

	result.Segments = r.segments(ctx, profile, result.MOUPartner)
	return result, nil
}

// enterprise looks the employer up by registration hash first, by
// normalized name second. Store errors degrade to unclassified; the
// grade tables are advisory, not load-bearing.
func (r *Resolver) enterprise(ctx context.Context, profile Profile) *EnterpriseRecord {
	if profile.EmployerRegHash != "" {
		rec, err := r.store.EnterpriseByRegHash(ctx, profile.EmployerRegHash)
		if err == nil {
			return rec
		}
		if !errors.Is(err, ErrNotFound) && r.logger != nil {
			r.logger.WarnContext(ctx, "enterprise grade lookup failed", "error", err)
		}
	}
	if profile.EmployerName != "" {
		rec, err := r.store.EnterpriseByName(ctx, profile.EmployerName)
		if err == nil {
			return rec
		}
		if !errors.Is(err, ErrNotFound) && r.logger != nil {
			r.logger.WarnContext(ctx, "enterprise grade lookup failed", "error", err)
		}
	}
	return nil
}

// segments evaluates every predicate independently and returns the codes
// sorted for deterministic audit records.
func (r *Resolver) segments(ctx context.Context, profile Profile, mouPartner bool) []string {
	set := make(map[string]struct{})

	if code := r.licensedSegment(ctx, profile); code != "" {
		set[code] = struct{}{}
	}
	if profile.MilitaryActive {
		set[SegmentMilitary] = struct{}{}
	}
	if profile.Age >= youthMinAge && profile.Age <= youthMaxAge {
		set[SegmentYouth] = struct{}{}
	}
	if mouPartner {
		set[SegmentMOU] = struct{}{}
	}

	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// licensedSegment verifies profession licenses through the registry. A
// registry failure means the segment is not granted this time; it never
// fails the evaluation.
func (r *Resolver) licensedSegment(ctx context.Context, profile Profile) string {
	if r.verifier == nil || profile.LicenseNumber == "" {
		return ""
	}
	licenseType, ok := licenseTypes[profile.OccupationCode]
	if !ok {
		return ""
	}

	code, err := r.verifier.VerifyLicense(ctx, profile.ResidentHash, licenseType, profile.LicenseNumber)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "license verification failed",
				"occupation_code", profile.OccupationCode,
				"error", err,
			)
		}
		return ""
	}
	return code
}
