package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/patrickmn/go-cache"

	"github.com/pamonha-express/server/internal/agent/model"
)

// MemoryConversationRepository keeps histories in process memory with the same
// touch-to-extend expiry as the Redis repository.
type MemoryConversationRepository struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	exp := cache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	return &MemoryConversationRepository{items: cache.New(exp, 10*time.Minute), ttl: ttl}
}

func (r *MemoryConversationRepository) load(conversationID string) []*schema.Message {
	if v, ok := r.items.Get(conversationID); ok {
		return v.([]*schema.Message)
	}
	return nil
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, conversationID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append(r.load(conversationID), message)
	r.items.Set(conversationID, msgs, cache.DefaultExpiration)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, conversationID string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append([]*schema.Message{}, r.load(conversationID)...)
	return &model.ConversationHistory{ConversationID: conversationID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Delete(conversationID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.load(conversationID)), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
