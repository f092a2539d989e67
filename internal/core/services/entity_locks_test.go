package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntityLocks_SerializesSameEntity(t *testing.T) {
	locks := NewEntityLocks()
	unlock := locks.Lock("t1")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("t1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, locks.held("t1"))

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not handed over")
	}
	assert.Eventually(t, func() bool { return locks.held("t1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestEntityLocks_IndependentEntities(t *testing.T) {
	locks := NewEntityLocks()
	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b waited for a")
	}
	assert.Zero(t, locks.held("b"))
}

func TestEntityLocks_CounterUnderContention(t *testing.T) {
	locks := NewEntityLocks()
	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("t1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.held("t1"))
}
