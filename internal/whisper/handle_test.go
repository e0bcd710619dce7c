package whisper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	id int
}

func (s *stubEngine) Transcribe(context.Context, Request) (Result, error) {
	return Result{}, nil
}

func TestHandleConstructsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	var constructions atomic.Int64
	handle := NewHandle(func(context.Context) (Engine, error) {
		constructions.Add(1)
		return &stubEngine{id: 1}, nil
	})

	const callers = 32
	engines := make([]Engine, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engine, err := handle.Get(context.Background())
			require.NoError(t, err)
			engines[i] = engine
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, constructions.Load())
	for _, engine := range engines {
		require.Same(t, engines[0], engine)
	}
}

func TestHandleRetriesAfterFailedConstruction(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	buildErr := errors.New("model weights missing")
	handle := NewHandle(func(context.Context) (Engine, error) {
		if attempts.Add(1) == 1 {
			return nil, buildErr
		}
		return &stubEngine{id: 2}, nil
	})

	_, err := handle.Get(context.Background())
	require.ErrorIs(t, err, buildErr)

	engine, err := handle.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, engine)
	require.EqualValues(t, 2, attempts.Load())

	again, err := handle.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, engine, again)
	require.EqualValues(t, 2, attempts.Load())
}
