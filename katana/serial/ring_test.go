package serial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBasics(t *testing.T) {
	r := NewRing(8)

	_, ok := r.Consume()
	assert.False(t, ok)

	for i := 0; i < 8; i++ {
		require.True(t, r.Produce(byte(i)))
	}
	assert.False(t, r.Produce(99), "full ring rejects")
	assert.Equal(t, 8, r.Len())

	for i := 0; i < 8; i++ {
		b, ok := r.Consume()
		require.True(t, ok)
		assert.Equal(t, byte(i), b)
	}
	assert.Zero(t, r.Len())
}

func TestRingWraparound(t *testing.T) {
	r := NewRing(4)
	for round := 0; round < 100; round++ {
		require.True(t, r.Produce(byte(round)))
		b, ok := r.Consume()
		require.True(t, ok)
		assert.Equal(t, byte(round), b)
	}
}

func TestRingCapacityValidation(t *testing.T) {
	assert.Panics(t, func() { NewRing(3) })
}

// TestRingSPSC hammers the ring from one producer and one consumer
// goroutine and checks that every byte arrives once, in order.
func TestRingSPSC(t *testing.T) {
	r := NewRing(64)
	const total = 100000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if r.Produce(byte(i)) {
				i++
			}
		}
	}()

	errs := make(chan error, 1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			b, ok := r.Consume()
			if !ok {
				continue
			}
			if b != byte(i) {
				select {
				case errs <- assert.AnError:
				default:
				}
				return
			}
			i++
		}
	}()

	wg.Wait()
	select {
	case <-errs:
		t.Fatal("byte stream corrupted")
	default:
	}
}

func TestConduitPending(t *testing.T) {
	c := NewConduit()
	assert.False(t, c.TakePending())

	c.Signal()
	assert.True(t, c.TakePending())
	assert.False(t, c.TakePending(), "flag is one-shot")
}

func TestLogSinkPump(t *testing.T) {
	c := NewConduit()
	sink := NewLogSink(c)

	for _, b := range []byte("boot ok\npartial") {
		require.True(t, c.Tx.Produce(b))
	}
	sink.Pump()

	// everything consumed; the partial line is buffered for later
	assert.Zero(t, c.Tx.Len())
	assert.Equal(t, "partial", string(sink.line))
}
