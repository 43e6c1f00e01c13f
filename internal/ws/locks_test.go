package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairLocksMutualExclusion(t *testing.T) {
	locks := newPairLocks()

	const workers = 8
	const iterations = 200

	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				unlock := locks.Lock("1:2")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}

func TestPairLocksIndependentKeys(t *testing.T) {
	locks := newPairLocks()

	unlockA := locks.Lock("1:2")
	defer unlockA()

	// A different pair must not block behind the first.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("3:4")
		unlockB()
		close(done)
	}()
	<-done
}

func TestPairLocksCleanup(t *testing.T) {
	locks := newPairLocks()

	unlock := locks.Lock("1:2")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released locks should not accumulate")
}
