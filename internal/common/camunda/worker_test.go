package camunda

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/triggers"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockJob(key int64, variables interface{}) entities.Job {
	var raw string
	switch v := variables.(type) {
	case string:
		raw = v
	default:
		b, _ := json.Marshal(v)
		raw = string(b)
	}

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               "send-welcome-email",
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "user-onboarding",
		ElementId:          "Activity_SendWelcomeEmail",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          raw,
	}}
}

func TestChangeJobHandler_Process(t *testing.T) {
	var got *triggers.Change
	h := NewChangeJobHandler("send-welcome-email", triggers.HandlerFunc(func(ctx context.Context, c *triggers.Change) {
		got = c
	}), time.Second, logger.NewTestLogger(t))

	h.process(context.Background(), createMockJob(1, map[string]interface{}{
		"collection": "users",
		"operation":  "create",
		"recordId":   "u1",
		"after":      map[string]interface{}{"username": "alice", "email": "a@b.com"},
	}))

	require.NotNil(t, got)
	assert.Equal(t, triggers.CollectionUsers, got.Collection)
	assert.Equal(t, triggers.OperationCreate, got.Operation)
	assert.Equal(t, "u1", got.RecordID)
	assert.JSONEq(t, `{"username":"alice","email":"a@b.com"}`, string(got.After))
}

func TestChangeJobHandler_Process_MalformedPayload(t *testing.T) {
	called := false
	h := NewChangeJobHandler("send-welcome-email", triggers.HandlerFunc(func(ctx context.Context, c *triggers.Change) {
		called = true
	}), time.Second, logger.NewNoOpLogger())

	h.process(context.Background(), createMockJob(2, "not json"))
	h.process(context.Background(), createMockJob(3, map[string]interface{}{"recordId": "u1"}))

	assert.False(t, called)
}

func TestWithRetry(t *testing.T) {
	fast := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("retries transient errors", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), fast, "complete job", func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("rpc error: code = Unavailable desc = connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), fast, "complete job", func(ctx context.Context) error {
			attempts++
			return errors.New("rpc error: code = NotFound desc = job not found")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), fast, "complete job", func(ctx context.Context) error {
			attempts++
			return errors.New("deadline exceeded")
		})
		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})
}
