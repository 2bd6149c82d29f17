package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamonha-express/server/internal/agent/bridge"
	"github.com/pamonha-express/server/internal/agent/model"
	"github.com/pamonha-express/server/internal/agent/provider"
	"github.com/pamonha-express/server/internal/agent/quota"
	"github.com/pamonha-express/server/internal/agent/repo"
	"github.com/pamonha-express/server/internal/archive"
	"github.com/pamonha-express/server/internal/assessment"
	"github.com/pamonha-express/server/internal/order"
	"github.com/pamonha-express/server/internal/transcript"
)

// blockingGenerator answers only once ctx is done.
type blockingGenerator struct{}

func (blockingGenerator) SendTurn(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingGenerator) EndConversation(context.Context, string) {}

func newEngine(t *testing.T, store Store, gen Generator, picker ArmPicker) *Engine {
	t.Helper()
	docs := archive.NewFileArchive(t.TempDir())
	e, err := NewEngine(Deps{
		Store:       store,
		Catalog:     order.DefaultCatalog(),
		Generator:   gen,
		Recorder:    transcript.NewRecorder(docs),
		Assessments: assessment.NewCollector(docs),
		Picker:      picker,
	})
	require.NoError(t, err)
	return e
}

func TestNewCycleAfterExpiryStartsFreshConversation(t *testing.T) {
	ctx := context.Background()
	sel, err := quota.NewSelector(quota.NewMemoryStore(), quota.DefaultConfig())
	require.NoError(t, err)
	chains := provider.NewChainProvider(provider.MockFactory, model.DefaultTierModels(), repo.NewMemoryConversationRepository(time.Hour))
	gen := bridge.New(sel, chains, "<instruções>persona</fim das instruções>")

	e := newEngine(t, NewMemoryStore(50*time.Millisecond), gen, FixedPicker(GenerativeArm))

	r, err := e.HandleTurn(ctx, "g1", "oi")
	require.NoError(t, err)
	assert.Contains(t, r.Text, `#1] Anotado: "oi"`)
	r, err = e.HandleTurn(ctx, "g1", "tem pamonha salgada?")
	require.NoError(t, err)
	assert.Contains(t, r.Text, `#2] Anotado: "tem pamonha salgada?"`)

	time.Sleep(100 * time.Millisecond)
	_, err = e.Session(ctx, "g1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	r, err = e.HandleTurn(ctx, "g1", "oi")
	require.NoError(t, err)
	assert.Contains(t, r.Text, `#1] Anotado: "oi"`)
}

func TestSessionSavedWhenGenerativeTurnTimesOut(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, time.Hour)
	picker := &countingPicker{arm: GenerativeArm}
	e := newEngine(t, store, blockingGenerator{}, picker)

	for range 2 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		r, err := e.HandleTurn(ctx, "t1", "oi")
		cancel()
		require.NoError(t, err)
		assert.Equal(t, engineFailureText, r.Text)
	}

	s, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, GenerativeArm, s.Arm)
	assert.Equal(t, Generative, s.State)
	assert.Equal(t, 1, picker.calls)
}
