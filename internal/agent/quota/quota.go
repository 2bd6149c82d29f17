package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/pamonha-express/server/internal/metrics"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// Tier is one of the three backing-model quota pools.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
)

func (t Tier) String() string {
	switch t {
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// dateLayout keys the daily counter.
const dateLayout = "2006-01-02"

// Config holds the tier boundaries. A count below Tier2Threshold selects Tier1,
// below Tier3Threshold selects Tier2, anything above selects Tier3.
type Config struct {
	Tier2Threshold int64 `envconfig:"QUOTA_TIER2_THRESHOLD" default:"1500"`
	Tier3Threshold int64 `envconfig:"QUOTA_TIER3_THRESHOLD" default:"2500"`
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	return Config{Tier2Threshold: 1500, Tier3Threshold: 2500}
}

// State is the process-wide daily request counter.
type State struct {
	RequestCount int64  `json:"request_count"`
	ResetDate    string `json:"reset_date"`
}

// Store keeps the per-day request count. Incr is a single atomic step that
// returns the count including the increment. The count resets when day changes.
type Store interface {
	Count(ctx context.Context, day string) (int64, error)
	Incr(ctx context.Context, day string) (int64, error)
}

// Selector maps today's request count onto a tier.
type Selector struct {
	store Store
	cfg   Config
	now   func() time.Time
}

type Option func(*Selector)

// WithClock overrides the time source used to derive the current day.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		s.now = now
	}
}

func NewSelector(store Store, cfg Config, opts ...Option) (*Selector, error) {
	if cfg.Tier2Threshold <= 0 || cfg.Tier3Threshold <= cfg.Tier2Threshold {
		return nil, fmt.Errorf("invalid quota thresholds: tier2=%d tier3=%d", cfg.Tier2Threshold, cfg.Tier3Threshold)
	}
	s := &Selector{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Selector) today() string {
	return s.now().Format(dateLayout)
}

// TierFor is the pure step function behind SelectTier.
func (s *Selector) TierFor(count int64) Tier {
	switch {
	case count < s.cfg.Tier2Threshold:
		return Tier1
	case count < s.cfg.Tier3Threshold:
		return Tier2
	default:
		return Tier3
	}
}

// SelectTier reads today's count and returns the pool to draw from.
func (s *Selector) SelectTier(ctx context.Context) (Tier, error) {
	count, err := s.store.Count(ctx, s.today())
	if err != nil {
		return Tier1, fmt.Errorf("read quota count: %w", err)
	}
	tier := s.TierFor(count)
	if tier != Tier1 {
		logx.Warn().Int64("request_count", count).Str("tier", tier.String()).Msg("primary quota exhausted, using backup tier")
	}
	return tier, nil
}

// Acquire counts one generative attempt and returns the tier for it. The tier
// is derived from the count before the increment, so two callers never both
// see the same count.
func (s *Selector) Acquire(ctx context.Context) (Tier, error) {
	n, err := s.store.Incr(ctx, s.today())
	if err != nil {
		return Tier1, fmt.Errorf("acquire quota: %w", err)
	}
	metrics.QuotaRequests.Set(float64(n))
	tier := s.TierFor(n - 1)
	if tier != Tier1 {
		logx.Warn().Int64("request_count", n).Str("tier", tier.String()).Msg("primary quota exhausted, using backup tier")
	}
	return tier, nil
}

// Record counts one generative attempt against today's quota.
func (s *Selector) Record(ctx context.Context) (int64, error) {
	n, err := s.store.Incr(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("record quota attempt: %w", err)
	}
	metrics.QuotaRequests.Set(float64(n))
	logx.Debug().Int64("request_count", n).Msg("generative request counted")
	return n, nil
}

// Snapshot reports today's state.
func (s *Selector) Snapshot(ctx context.Context) (State, error) {
	day := s.today()
	n, err := s.store.Count(ctx, day)
	if err != nil {
		return State{}, fmt.Errorf("read quota count: %w", err)
	}
	return State{RequestCount: n, ResetDate: day}, nil
}
