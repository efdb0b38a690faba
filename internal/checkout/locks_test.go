package checkout

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocks_Serializes(t *testing.T) {
	locks := newSessionLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("sess-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestSessionLocks_EntriesReleased(t *testing.T) {
	locks := newSessionLocks()

	release := locks.acquire("sess-1")
	other := locks.acquire("sess-2")

	locks.mu.Lock()
	assert.Len(t, locks.locks, 2)
	locks.mu.Unlock()

	release()
	other()

	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}

func TestSessionLocks_IndependentSessions(t *testing.T) {
	locks := newSessionLocks()

	release := locks.acquire("sess-1")
	defer release()

	done := make(chan struct{})
	go func() {
		r := locks.acquire("sess-2")
		r()
		close(done)
	}()
	<-done
}
