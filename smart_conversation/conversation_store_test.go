package smart_conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStore_AcquireReturnsSameConversation(t *testing.T) {
	store := NewConversationStore(10, time.Hour)

	first, release := store.Acquire("conv-1")
	first.Tracker.TrackFileRead("main.py", "x")
	release()

	second, release := store.Acquire("conv-1")
	defer release()

	assert.Same(t, first, second)
	assert.Len(t, second.Tracker.GetReadHistory(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestConversationStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store := NewConversationStore(2, time.Hour)

	for _, id := range []string{"a", "b"} {
		_, release := store.Acquire(id)
		release()
	}
	_, release := store.Acquire("a")
	release()
	_, release = store.Acquire("c")
	release()

	_, ok := store.Get("b")
	assert.False(t, ok)
	_, ok = store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestConversationStore_ExpiresIdleConversations(t *testing.T) {
	store := NewConversationStore(10, 50*time.Millisecond)

	conversation, release := store.Acquire("short-lived")
	release()

	time.Sleep(120 * time.Millisecond)

	_, ok := store.Get("short-lived")
	assert.False(t, ok)

	fresh, release := store.Acquire("short-lived")
	defer release()
	assert.NotSame(t, conversation, fresh)
}

func TestConversationStore_Delete(t *testing.T) {
	store := NewConversationStore(0, 0)
	_, release := store.Acquire("gone")
	release()

	store.Delete("gone")

	_, ok := store.Get("gone")
	assert.False(t, ok)
}

func TestConversationStore_SerializesRequests(t *testing.T) {
	store := NewConversationStore(10, time.Hour)
	conversation, release := store.Acquire("busy")

	acquired := make(chan struct{})
	go func() {
		_, release := store.Acquire("busy")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second request entered while the first one held the conversation")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second request never entered")
	}
	require.NotNil(t, conversation)
}

func TestConversationStore_ConcurrentDistinctIDs(t *testing.T) {
	store := NewConversationStore(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%10))
			_, release := store.Acquire(id)
			release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
}
