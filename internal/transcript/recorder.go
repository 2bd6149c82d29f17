package transcript

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pamonha-express/server/internal/archive"
	errx "github.com/pamonha-express/server/internal/core/error"
	"github.com/pamonha-express/server/internal/metrics"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// ErrEmpty is returned by Flush when the session has nothing recorded.
var ErrEmpty = errors.New("transcript is empty")

// Recorder buffers the current cycle of every session in memory until Flush.
// Buffers untouched for longer than the idle TTL are dropped.
type Recorder struct {
	archive archive.Archive
	now     func() time.Time
	idleTTL time.Duration

	mu      sync.Mutex
	buffers *cache.Cache
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithIdleTTL drops a session's buffer after d without a recorded entry.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Recorder) {
		r.idleTTL = d
	}
}

func NewRecorder(a archive.Archive, opts ...Option) *Recorder {
	r := &Recorder{archive: a, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	exp := cache.NoExpiration
	if r.idleTTL > 0 {
		exp = r.idleTTL
	}
	r.buffers = cache.New(exp, 10*time.Minute)
	return r
}

func (r *Recorder) stamp() time.Time {
	return r.now().Truncate(time.Second)
}

// entries must be called with mu held.
func (r *Recorder) entries(sessionID string) []Entry {
	if v, ok := r.buffers.Get(sessionID); ok {
		return v.([]Entry)
	}
	return nil
}

func (r *Recorder) append(sessionID string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers.SetDefault(sessionID, append(r.entries(sessionID), e))
}

// BeginCycle starts a fresh buffer with an interaction-start marker. Anything
// left over from an unflushed cycle is dropped.
func (r *Recorder) BeginCycle(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.entries(sessionID)); n > 0 {
		logx.Warn().Str("session_id", sessionID).Int("entries", n).Msg("discarding unflushed transcript")
	}
	r.buffers.SetDefault(sessionID, []Entry{{Kind: StartMarker, Timestamp: r.stamp()}})
}

func (r *Recorder) Record(sessionID string, speaker Speaker, text string) {
	r.append(sessionID, Entry{Kind: Turn, Timestamp: r.stamp(), Speaker: speaker, Text: text})
}

func (r *Recorder) EndCycle(sessionID string) {
	r.append(sessionID, Entry{Kind: EndMarker, Timestamp: r.stamp()})
}

// Discard drops the session's buffer without persisting it.
func (r *Recorder) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers.Delete(sessionID)
}

// Flush renders the buffer under the arm label, archives it and clears the
// buffer whether or not the write succeeded. It returns the document name.
func (r *Recorder) Flush(ctx context.Context, sessionID, arm string) (string, error) {
	r.mu.Lock()
	entries := r.entries(sessionID)
	r.buffers.Delete(sessionID)
	r.mu.Unlock()

	if len(entries) == 0 {
		return "", ErrEmpty
	}

	doc := &Document{Arm: arm, Entries: entries}
	want := archive.DocumentName("", sessionID, r.now())
	name, err := r.archive.Put(ctx, archive.Transcripts, want, doc.Render())
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(string(archive.Transcripts)).Inc()
		logx.Error().Err(err).Str("session_id", sessionID).Str("name", want).Msg("failed to save transcript")
		return want, errx.Persistence(err)
	}
	logx.Info().Str("session_id", sessionID).Str("name", name).Str("arm", arm).Msg("transcript saved")
	return name, nil
}
