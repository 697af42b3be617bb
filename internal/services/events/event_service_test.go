package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/interfaces"
)

func TestService_PublishSync(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var calls int32

	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	require.NoError(t, svc.Subscribe(interfaces.EventTaskProgress, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventTaskProgress, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventTaskProgress}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// other event types are not delivered
	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventBackupStatus}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestService_PublishSyncReportsErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	require.NoError(t, svc.Subscribe(interfaces.EventBackupStatus, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("boom")
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventBackupStatus})
	assert.Error(t, err)
}

func TestService_PublishAsync(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	done := make(chan interface{}, 1)

	require.NoError(t, svc.Subscribe(interfaces.EventTaskProgress, func(ctx context.Context, event interfaces.Event) error {
		done <- event.Payload
		return nil
	}))
	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventTaskProgress, Payload: "x"}))

	select {
	case payload := <-done:
		assert.Equal(t, "x", payload)
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestService_UnsubscribeAndClose(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	var calls int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventTaskProgress, handler))
	require.NoError(t, svc.Unsubscribe(interfaces.EventTaskProgress, handler))
	assert.Error(t, svc.Unsubscribe(interfaces.EventTaskProgress, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventTaskProgress}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	require.NoError(t, svc.Close())
	assert.Error(t, svc.Subscribe(interfaces.EventTaskProgress, handler))
	assert.Error(t, svc.Subscribe(interfaces.EventTaskProgress, nil))
}
