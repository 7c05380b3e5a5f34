package channel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceiveOrder(t *testing.T) {
	ch := New[int]()
	for i := 0; i < 5; i++ {
		require.NoError(t, ch.Send(i))
	}
	assert.Equal(t, 5, ch.Len())

	for i := 0; i < 5; i++ {
		v, err := ch.Receive(10 * time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, ch.Len())
}

func TestReceiveTimeout(t *testing.T) {
	ch := New[string]()

	start := time.Now()
	_, err := ch.Receive(10 * time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestReceiveWakesOnSend(t *testing.T) {
	ch := New[int]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = ch.Send(42)
	}()

	v, err := ch.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCloseDrainsThenDisconnects(t *testing.T) {
	ch := New[int]()
	require.NoError(t, ch.Send(1))
	require.NoError(t, ch.Send(2))
	ch.Close()

	v, err := ch.Receive(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = ch.Receive(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = ch.Receive(time.Millisecond)
	assert.ErrorIs(t, err, ErrDisconnected)

	assert.ErrorIs(t, ch.Send(3), ErrClosed)
}

func TestCloseWakesWaitingReceiver(t *testing.T) {
	ch := New[int]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		ch.Close()
	}()

	start := time.Now()
	_, err := ch.Receive(time.Second)
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSendAfterAbandon(t *testing.T) {
	ch := New[int]()
	require.NoError(t, ch.Send(1))
	ch.Abandon()

	err := ch.Send(2)
	assert.True(t, errors.Is(err, ErrReceiverGone))
	assert.Equal(t, 0, ch.Len())
}

func TestSendNeverBlocks(t *testing.T) {
	ch := New[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100000; i++ {
			_ = ch.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer blocked without a consumer")
	}
	assert.Equal(t, 100000, ch.Len())
}

func TestConcurrentProducerConsumer(t *testing.T) {
	ch := New[int]()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = ch.Send(i)
		}
		ch.Close()
	}()

	var got []int
	for {
		v, err := ch.Receive(50 * time.Millisecond)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if errors.Is(err, ErrDisconnected) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	wg.Wait()

	require.Len(t, got, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDisconnectedSignal(t *testing.T) {
	ch := New[int]()
	select {
	case <-ch.Disconnected():
		t.Fatal("open channel reported disconnect")
	default:
	}

	require.NoError(t, ch.Send(1))
	ch.Close()
	ch.Close()

	select {
	case <-ch.Disconnected():
	case <-time.After(time.Second):
		t.Fatal("Close did not signal Disconnected")
	}
	v, err := ch.Receive(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
