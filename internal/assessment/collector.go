package assessment

import (
	"context"
	"time"

	"github.com/pamonha-express/server/internal/archive"
	errx "github.com/pamonha-express/server/internal/core/error"
	"github.com/pamonha-express/server/internal/metrics"
	logx "github.com/pamonha-express/server/pkg/logger"
)

const namePrefix = "questionario_"

// Collector persists completed questionnaires.
type Collector struct {
	archive archive.Archive
	now     func() time.Time
}

type Option func(*Collector)

func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

func NewCollector(a archive.Archive, opts ...Option) *Collector {
	c := &Collector{archive: a, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save writes {arm, answers} as questionario_{session}_{ts}.txt and adds it to
// the assessment index.
func (c *Collector) Save(ctx context.Context, sessionID, arm string, answers Answers) (string, error) {
	doc := &Document{Arm: arm, Answers: answers}
	want := archive.DocumentName(namePrefix, sessionID, c.now())
	name, err := c.archive.Put(ctx, archive.Assessments, want, doc.Render())
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(string(archive.Assessments)).Inc()
		logx.Error().Err(err).Str("session_id", sessionID).Str("name", want).Msg("failed to save questionnaire")
		return want, errx.Persistence(err)
	}
	logx.Info().Str("session_id", sessionID).Str("name", name).Str("arm", arm).Msg("questionnaire saved")
	return name, nil
}
