package xfilestore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_AcquireRelease(t *testing.T) {
	l := newLedger(100)
	assert.EqualValues(t, 100, l.Free())

	assert.EqualValues(t, 60, l.Acquire(60))
	assert.EqualValues(t, 40, l.Acquire(70), "只授予剩余额度")
	assert.Zero(t, l.Acquire(1))
	assert.Zero(t, l.Acquire(0))
	assert.Zero(t, l.Free())

	l.Release(30)
	assert.EqualValues(t, 70, l.Used())
	assert.EqualValues(t, 30, l.Free())

	l.Release(1000)
	assert.Zero(t, l.Used(), "不低于 0")
	l.Release(-5)
	assert.Zero(t, l.Used())
}

func TestLedger_ResetAboveMax(t *testing.T) {
	l := newLedger(100)
	l.reset(150)
	assert.EqualValues(t, 150, l.Used())
	assert.Zero(t, l.Free())
	assert.Zero(t, l.Acquire(10))
}

func TestLedger_ConcurrentAcquire(t *testing.T) {
	l := newLedger(1000)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got int64
			for range 10 {
				got += l.Acquire(3)
			}
			mu.Lock()
			total += got
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1000, total)
	assert.EqualValues(t, 1000, l.Used())
}
