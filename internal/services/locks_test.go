package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	var inside, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("a")
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak)
	assert.Empty(t, km.locks)
}

func TestKeyedMutexUnlockIsIdempotent(t *testing.T) {
	km := newKeyedMutex()
	unlock := km.Lock("a")
	unlock()
	unlock()

	other := km.Lock("b")
	again := km.Lock("a")
	again()
	other()
	assert.Empty(t, km.locks)
}
