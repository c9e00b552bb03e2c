package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"netbaseline/internal/retry"
	"netbaseline/internal/types"
	"netbaseline/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeService fails the first failures calls of every baseline with err
type fakeService struct {
	mu       sync.Mutex
	calls    map[string]int
	failures int
	err      error
}

func (s *fakeService) CompareBaselineScan(_ context.Context, input *types.CompareInput) (*types.CompareResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[input.BaselineID]++
	if s.calls[input.BaselineID] <= s.failures {
		return nil, s.err
	}
	return &types.CompareResult{BaselineID: input.BaselineID}, nil
}

func (s *fakeService) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

// chanSource serves deliveries from a channel
type chanSource struct {
	ch chan *Delivery
}

func (s *chanSource) Next(ctx context.Context) (*Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.ch:
		if !ok {
			return nil, errors.New("source closed")
		}
		return d, nil
	}
}

func (s *chanSource) Close() error { return nil }

func fastRetry() *retry.Config {
	return &retry.Config{Enable: true, InitialAttempts: 3, InitialInterval: time.Millisecond}
}

func TestConsumerHandle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		failures  int
		err       error
		wantErr   error
		wantCalls int
	}{
		{"success", `{"baselineId":"b-1","orgId":"o","siteId":"s"}`, 0, nil, nil, 1},
		{"transient then success", `{"baselineId":"b-1","orgId":"o","siteId":"s"}`, 2, errors.New("deadlock"), nil, 3},
		{"transient exhausted", `{"baselineId":"b-1","orgId":"o","siteId":"s"}`, 5, errors.New("deadlock"), errors.New("deadlock"), 3},
		{"not found is permanent", `{"baselineId":"b-1","orgId":"o","siteId":"s"}`, 5, fmt.Errorf("%w: b-1", types.ErrBaselineNotFound), types.ErrNotFound, 1},
		{"invalid input is permanent", `{"baselineId":"b-1"}`, 5, fmt.Errorf("%w: orgId is required", validator.ErrValidation), validator.ErrValidation, 1},
		{"malformed json", `{`, 0, nil, errors.New("decode"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{failures: tt.failures, err: tt.err}
			c := NewConsumer(&chanSource{}, svc, fastRetry(), 1, zaptest.NewLogger(t))

			err := c.Handle(context.Background(), []byte(tt.body))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				if errors.Is(tt.wantErr, types.ErrNotFound) || errors.Is(tt.wantErr, validator.ErrValidation) {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			}
			assert.Equal(t, tt.wantCalls, svc.callCount("b-1"))
		})
	}
}

func TestConsumerRun(t *testing.T) {
	svc := &fakeService{}
	source := &chanSource{ch: make(chan *Delivery)}
	c := NewConsumer(source, svc, fastRetry(), 4, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	var settled, failed atomic.Int32
	for i := 0; i < 10; i++ {
		body := fmt.Sprintf(`{"baselineId":"b-%d","orgId":"o","siteId":"s"}`, i)
		if i == 9 {
			body = `not json`
		}
		source.ch <- &Delivery{
			Body: []byte(body),
			Done: func(err error) error {
				if err != nil {
					failed.Add(1)
				}
				settled.Add(1)
				return nil
			},
		}
	}

	assert.Eventually(t, func() bool { return settled.Load() == 10 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), failed.Load())
	for i := 0; i < 9; i++ {
		assert.Equal(t, 1, svc.callCount(fmt.Sprintf("b-%d", i)))
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumerRunSourceFailure(t *testing.T) {
	source := &chanSource{ch: make(chan *Delivery)}
	close(source.ch)
	c := NewConsumer(source, &fakeService{}, fastRetry(), 1, zaptest.NewLogger(t))

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source closed")
}
