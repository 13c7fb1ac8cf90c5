package bureau

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lendgate/pkg/requestcontext"
)

// Fetcher is the upstream abstraction the chain walks.
type Fetcher interface {
	Fetch(ctx context.Context, residentHash string) (*Report, error)
}

// Service walks the bureau chain for one applicant: primary bureau,
// secondary bureau, last cached report, conservative default. It never
// returns an error; the defaulted report carries the degradation flag.
type Service struct {
	primary   Fetcher
	secondary Fetcher
	cache     Cache
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSecondary attaches the secondary bureau.
func WithSecondary(f Fetcher) Option {
	return func(s *Service) { s.secondary = f }
}

// WithCache attaches the last-good-report cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a bureau service over the primary upstream.
func NewService(primary Fetcher, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("primary bureau is required")
	}
	s := &Service{primary: primary}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetReport fetches the applicant's credit report, degrading down the
// chain as upstreams fail.
func (s *Service) GetReport(ctx context.Context, residentHash string) Report {
	requestID := requestcontext.RequestID(ctx)

	rep, err := s.primary.Fetch(ctx, residentHash)
	if err == nil {
		s.store(ctx, residentHash, *rep)
		return *rep
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "primary bureau unavailable",
			"request_id", requestID,
			"error", err,
		)
	}

	if s.secondary != nil {
		rep, err = s.secondary.Fetch(ctx, residentHash)
		if err == nil {
			s.store(ctx, residentHash, *rep)
			return *rep
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "secondary bureau unavailable",
				"request_id", requestID,
				"error", err,
			)
		}
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, residentHash); ok {
			cached.Source = SourceCached
			return *cached
		}
	}

	if s.logger != nil {
		s.logger.ErrorContext(ctx, "all bureau sources unavailable, using conservative default",
			"request_id", requestID,
		)
	}
	return defaultReport(time.Now())
}

func (s *Service) store(ctx context.Context, residentHash string, rep Report) {
	if s.cache != nil {
		s.cache.Set(ctx, residentHash, rep)
	}
}
