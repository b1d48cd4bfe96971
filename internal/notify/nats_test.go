package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/sakila-migration/internal/config"
)

// --- Mock NATS connection ---
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Publish(subj string, data []byte) error {
	args := m.Called(subj, data)
	return args.Error(0)
}

func (m *MockConn) FlushTimeout(timeout time.Duration) error {
	args := m.Called(timeout)
	return args.Error(0)
}

func (m *MockConn) Drain() error {
	args := m.Called()
	return args.Error(0)
}

type event struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

func TestPublisher_Publish(t *testing.T) {
	conn := new(MockConn)
	conn.On("Publish", "sakila.migration.completed", []byte(`{"run_id":"r1","status":"partial"}`)).Return(nil)
	conn.On("FlushTimeout", flushTimeout).Return(nil)

	p := NewPublisher(conn, "sakila.migration.completed", nil)
	err := p.Publish(context.Background(), event{RunID: "r1", Status: "partial"})

	require.NoError(t, err)
	conn.AssertExpectations(t)
}

func TestPublisher_PublishErrors(t *testing.T) {
	t.Run("Publish Fails", func(t *testing.T) {
		conn := new(MockConn)
		conn.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats: connection closed"))

		err := NewPublisher(conn, "subj", nil).Publish(context.Background(), event{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish to subj")
		conn.AssertNotCalled(t, "FlushTimeout", mock.Anything)
	})

	t.Run("Flush Fails", func(t *testing.T) {
		conn := new(MockConn)
		conn.On("Publish", mock.Anything, mock.Anything).Return(nil)
		conn.On("FlushTimeout", mock.Anything).Return(errors.New("nats: timeout"))

		err := NewPublisher(conn, "subj", nil).Publish(context.Background(), event{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nats: timeout")
	})

	t.Run("Unmarshalable Event", func(t *testing.T) {
		conn := new(MockConn)

		err := NewPublisher(conn, "subj", nil).Publish(context.Background(), make(chan int))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal event")
		conn.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		conn := new(MockConn)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(conn, "subj", nil).Publish(ctx, event{})

		assert.ErrorIs(t, err, context.Canceled)
		conn.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestPublisher_Close(t *testing.T) {
	conn := new(MockConn)
	conn.On("Drain").Return(nil)

	require.NoError(t, NewPublisher(conn, "subj", nil).Close())
	conn.AssertExpectations(t)
}

func TestConnect_UnreachableServer(t *testing.T) {
	p, err := Connect(config.NATSConfig{URL: "nats://127.0.0.1:1", Subject: "sakila.migration.completed"}, nil)

	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "failed to connect to NATS at nats://127.0.0.1:1")
}
