package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAtZero(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(100)
	assert.Equal(t, int64(100), c.Current())
	assert.Equal(t, int64(101), c.Next())
}

func TestClock_NextIncrements(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current(), "Current does not advance the clock")
}

func TestClock_ConcurrentNextUnique(t *testing.T) {
	c := NewClock()
	const goroutines = 20
	const calls = 50

	var wg sync.WaitGroup
	seqs := make(chan int64, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d issued twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, goroutines*calls)
}

func TestClock_SharedAcrossSystems(t *testing.T) {
	f := newEngineFixture(t)
	clock := NewClock()
	rec := NewRecorder()

	first := NewSystem(WithClock(clock), WithObserver(rec), WithLogger(discardLogger()))
	second := NewSystem(WithClock(clock), WithObserver(rec), WithLogger(discardLogger()))
	tv := f.NewVariable("T")
	rv := f.NewVariable("R")
	first.RegisterVariables(vars(tv), false)
	second.RegisterVariables(vars(rv), false)

	first.AddConstraint(f.sub(f.Int(), f.v(tv)))
	second.AddConstraint(f.sub(f.Int(), f.v(rv)))

	events := rec.Events()
	if assert.Len(t, events, 2) {
		assert.Equal(t, int64(1), events[0].Seq)
		assert.Equal(t, int64(2), events[1].Seq)
	}
}
