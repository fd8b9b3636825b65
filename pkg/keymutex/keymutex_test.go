package keymutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := New()
	const goroutines = 50

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("charger-1")
			defer km.Unlock("charger-1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	km := New()
	km.Lock("a")
	defer km.Unlock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on unrelated key blocked")
	}
}

func TestEntriesAreReclaimed(t *testing.T) {
	km := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("k")
			km.Unlock("k")
		}()
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}

func TestUnlockWithoutLockPanics(t *testing.T) {
	km := New()
	require.Panics(t, func() { km.Unlock("never-locked") })
}
