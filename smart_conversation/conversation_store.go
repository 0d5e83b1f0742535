package smart_conversation

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/meysamhadeli/gitai/metrics"
	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
)

// Defaults for the conversation store, also used as the config defaults.
const (
	DefaultMaxConversations = 256
	DefaultConversationTTL  = 2 * time.Hour
)

// Conversation is the in-memory state of one conversation. Its lock is held by the
// orchestrator for the whole of a request.
type Conversation struct {
	ID      string
	Tracker contracts.IContextTracker
	mu      sync.Mutex
}

// ConversationStore hands out conversations by id. The least recently used ones are evicted
// beyond the size limit, and idle ones after the ttl.
type ConversationStore struct {
	mu            sync.Mutex
	conversations *expirable.LRU[string, *Conversation]
}

func NewConversationStore(maxConversations int, ttl time.Duration) *ConversationStore {
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &ConversationStore{
		conversations: expirable.NewLRU[string, *Conversation](maxConversations, nil, ttl),
	}
}

func (s *ConversationStore) getOrCreate(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations.Get(id)
	if !ok {
		conversation = &Conversation{ID: id, Tracker: NewFileContextTracker()}
	}
	// re-adding refreshes the expiry
	s.conversations.Add(id, conversation)
	metrics.SetActiveConversations(s.conversations.Len())
	return conversation
}

// Acquire returns the conversation for id, creating it when needed, and locks it.
// The returned release func must be called once the request is done.
func (s *ConversationStore) Acquire(id string) (*Conversation, func()) {
	conversation := s.getOrCreate(id)
	conversation.mu.Lock()
	return conversation, conversation.mu.Unlock
}

// Get returns the conversation without creating or locking it.
func (s *ConversationStore) Get(id string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.Get(id)
}

func (s *ConversationStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations.Remove(id)
	metrics.SetActiveConversations(s.conversations.Len())
}

func (s *ConversationStore) Len() int {
	return s.conversations.Len()
}
