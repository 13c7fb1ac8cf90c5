package regparam

import (
	"context"
	"log/slog"
	"time"

	"lendgate/internal/regparam/metrics"
	dErrors "lendgate/pkg/domain-errors"
)

// Resolver answers point-in-time parameter lookups. Selection rule: among
// active versions whose condition is satisfied by the context and whose
// effective interval contains asOf, the most specific condition wins.
// Equal specificity among distinct candidates is a configuration error;
// the resolver fails closed rather than pick one.
type Resolver struct {
	store   Store
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache attaches a cache for hot keys.
func WithCache(cache Cache) ResolverOption {
	return func(r *Resolver) { r.cache = cache }
}

// WithResolverLogger attaches a logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// WithResolverMetrics attaches resolver metrics.
func WithResolverMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a parameter resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the effective value of key for the given context as of
// asOf. Returns CodeNotFound when no version applies and
// CodeConfiguration when more than one does.
func (r *Resolver) Resolve(ctx context.Context, key string, asOf time.Time, matchCtx Context) (Resolved, error) {
	condHash := Condition(matchCtx).Hash()

	// Cached entries are only trusted if their effective interval still
	// covers asOf; anything else falls through to the store. This is what
	// keeps a slightly stale cache correct during phase transitions.
	if r.cache != nil {
		if p, ok := r.cache.Get(ctx, key, condHash); ok && p.IsActive && p.CoversAt(asOf) && p.Condition.Matches(matchCtx) {
			if r.metrics != nil {
				r.metrics.CacheHits.Inc()
			}
			return resolved(*p), nil
		}
	}
	if r.metrics != nil {
		r.metrics.CacheMisses.Inc()
	}

	candidates, err := r.store.ListActiveByKey(ctx, key)
	if err != nil {
		return Resolved{}, dErrors.Wrap(err, dErrors.CodeInternal, "parameter lookup failed")
	}

	best, err := selectCandidate(key, candidates, asOf, matchCtx)
	if err != nil {
		if r.metrics != nil && dErrors.Is(err, dErrors.CodeConfiguration) {
			r.metrics.ConfigurationErrors.Inc()
		}
		if r.logger != nil && dErrors.Is(err, dErrors.CodeConfiguration) {
			r.logger.ErrorContext(ctx, "ambiguous parameter resolution",
				"param_key", key,
				"as_of", asOf,
			)
		}
		return Resolved{}, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, key, condHash, *best)
	}
	return resolved(*best), nil
}

// selectCandidate applies the selection rule to active versions of a key.
func selectCandidate(key string, candidates []Parameter, asOf time.Time, matchCtx Context) (*Parameter, error) {
	var (
		best          *Parameter
		bestSpecificity int
		ambiguous     bool
	)
	for i := range candidates {
		p := &candidates[i]
		if !p.CoversAt(asOf) || !p.Condition.Matches(matchCtx) {
			continue
		}
		switch {
		case best == nil || p.Condition.Specificity() > bestSpecificity:
			best = p
			bestSpecificity = p.Condition.Specificity()
			ambiguous = false
		case p.Condition.Specificity() == bestSpecificity:
			ambiguous = true
		}
	}

	if best == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no effective parameter: %s", key)
	}
	if ambiguous {
		return nil, dErrors.Newf(dErrors.CodeConfiguration,
			"overlapping active versions for %s as of %s", key, asOf.Format(time.RFC3339))
	}
	return best, nil
}

func resolved(p Parameter) Resolved {
	return Resolved{
		Key:           p.Key,
		Value:         p.Value,
		PhaseLabel:    p.PhaseLabel,
		LegalBasis:    p.LegalBasis,
		EffectiveFrom: p.EffectiveFrom,
	}
}
