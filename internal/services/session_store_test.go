package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/interviewer/internal/models"
)

func TestMemorySessionStoreHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	_, found, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, found)

	st := models.NewSessionState("s-1")
	st.Append(models.SpeakerInterviewer, "hello")
	require.NoError(t, s.Save(ctx, st))

	loaded, found, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	require.True(t, found)
	loaded.Append(models.SpeakerCandidate, "not saved")

	again, _, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, again.History, 1)
}

func TestSessionLocksSerializePerSession(t *testing.T) {
	locks := newSessionLocks()

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("s-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	assert.Empty(t, locks.locks)

	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	unlockB()
	unlockA()
}
