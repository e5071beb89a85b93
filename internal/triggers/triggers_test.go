package triggers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Envelope decoding
// ==========================

func TestDecode(t *testing.T) {
	change, err := Decode("test", []byte(`{
		"collection": "friendRequests",
		"operation": "update",
		"recordId": "fr1",
		"before": {"status": "pending", "senderId": "u1"},
		"after": {"status": "accepted", "senderId": "u1"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, CollectionFriendRequests, change.Collection)
	assert.Equal(t, OperationUpdate, change.Operation)
	assert.Equal(t, "fr1", change.RecordID)

	var before, after models.FriendRequest
	ok, err := change.DecodeBefore(&before)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = change.DecodeAfter(&after)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, models.IsAcceptance(&before, &after))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{not json`},
		{"missing collection", `{"operation": "create"}`},
		{"missing operation", `{"collection": "users"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("test", []byte(tt.payload))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodePayloadParseFailed, apperrors.GetErrorCode(err))
		})
	}
}

func TestChange_DecodeAbsentState(t *testing.T) {
	change := &Change{Collection: CollectionUsers, Operation: OperationCreate, After: []byte(`null`)}

	var user models.User
	ok, err := change.DecodeBefore(&user)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = change.DecodeAfter(&user)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ==========================
// Router
// ==========================

func TestRouter_Dispatch(t *testing.T) {
	router := NewRouter(logger.NewTestLogger(t))

	var got []string
	router.Register(CollectionUsers, OperationCreate, HandlerFunc(func(ctx context.Context, c *Change) {
		got = append(got, "users/create:"+c.RecordID)
	}))
	router.Register(CollectionFriendRequests, OperationUpdate, HandlerFunc(func(ctx context.Context, c *Change) {
		got = append(got, "friendRequests/update:"+c.RecordID)
	}))

	assert.True(t, router.Dispatch(context.Background(), "test", &Change{Collection: CollectionUsers, Operation: OperationCreate, RecordID: "u1"}))
	assert.True(t, router.Dispatch(context.Background(), "test", &Change{Collection: CollectionFriendRequests, Operation: OperationUpdate, RecordID: "fr1"}))
	assert.False(t, router.Dispatch(context.Background(), "test", &Change{Collection: CollectionUsers, Operation: OperationUpdate, RecordID: "u1"}))

	assert.Equal(t, []string{"users/create:u1", "friendRequests/update:fr1"}, got)
}

// ==========================
// Postgres source
// ==========================

type fakeSource struct {
	ch       chan *pq.Notification
	pingErr  error
	mu       sync.Mutex
	pingHits int
}

func (f *fakeSource) NotificationChannel() <-chan *pq.Notification { return f.ch }

func (f *fakeSource) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingHits++
	return f.pingErr
}

func TestPostgresSource_Run(t *testing.T) {
	src := &fakeSource{ch: make(chan *pq.Notification, 4), pingErr: errors.New("ignored")}

	router := NewRouter(logger.NewNoOpLogger())
	var (
		mu       sync.Mutex
		received []string
	)
	router.Register(CollectionUsers, OperationCreate, HandlerFunc(func(ctx context.Context, c *Change) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, c.RecordID)
	}))

	src.ch <- &pq.Notification{Channel: "record_changes", Extra: `{"collection":"users","operation":"create","recordId":"u1","after":{"username":"alice"}}`}
	src.ch <- nil
	src.ch <- &pq.Notification{Channel: "record_changes", Extra: `garbage`}
	src.ch <- &pq.Notification{Channel: "record_changes", Extra: `{"collection":"users","operation":"create","recordId":"u2"}`}
	close(src.ch)

	p := NewPostgresSource(src, router, time.Hour, logger.NewTestLogger(t))
	require.NoError(t, p.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"u1", "u2"}, received)
}

func TestPostgresSource_RunStopsOnCancel(t *testing.T) {
	src := &fakeSource{ch: make(chan *pq.Notification)}
	p := NewPostgresSource(src, NewRouter(logger.NewNoOpLogger()), time.Hour, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
