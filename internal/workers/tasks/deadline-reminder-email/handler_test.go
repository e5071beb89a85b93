package deadlinereminderemail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"synctask-notifications/internal/common/auth"
	apperrors "synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html, text string) (*mail.Result, error) {
	args := m.Called(ctx, to, subject, html, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mail.Result), args.Error(1)
}

var (
	anySend = []interface{}{mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything}
	caller  = &auth.Caller{UserID: "u-frank"}
)

func createValidPayload() map[string]interface{} {
	return map[string]interface{}{
		"userEmail": "frank@x.com",
		"username":  "frank",
		"taskText":  "File taxes",
		"deadline":  "2026-04-15 17:00",
	}
}

func newTestHandler(t *testing.T, mailer mail.Sender) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Mailer: mailer, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestExecute_GroupLine(t *testing.T) {
	t.Run("personal task", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, "frank@x.com", "⏰ Task Deadline Reminder: File taxes",
			mock.Anything,
			mock.MatchedBy(func(text string) bool { return !strings.Contains(text, "Group:") }),
		).Return(&mail.Result{Success: true}, nil).Once()

		ack, err := newTestHandler(t, mailer).Execute(context.Background(), caller, createValidPayload())
		require.NoError(t, err)
		assert.Equal(t, "Task deadline reminder email sent successfully", ack.Message)
		mailer.AssertExpectations(t)
	})

	t.Run("group task", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, "frank@x.com", mock.Anything,
			mock.Anything,
			mock.MatchedBy(func(text string) bool { return strings.Contains(text, "Group: Household") }),
		).Return(&mail.Result{Success: true}, nil).Once()

		payload := createValidPayload()
		payload["groupName"] = "Household"

		ack, err := newTestHandler(t, mailer).Execute(context.Background(), caller, payload)
		require.NoError(t, err)
		assert.True(t, ack.Success)
		mailer.AssertExpectations(t)
	})

	t.Run("null group", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(text string) bool { return !strings.Contains(text, "Group:") }),
		).Return(&mail.Result{Success: true}, nil).Once()

		payload := createValidPayload()
		payload["groupName"] = nil

		_, err := newTestHandler(t, mailer).Execute(context.Background(), caller, payload)
		require.NoError(t, err)
		mailer.AssertExpectations(t)
	})
}

func TestExecute_NumericDeadline(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, "frank@x.com", mock.Anything,
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "1767225600000") }),
		mock.MatchedBy(func(text string) bool { return strings.Contains(text, "Deadline: 1767225600000") }),
	).Return(&mail.Result{Success: true}, nil).Once()

	payload := createValidPayload()
	payload["deadline"] = float64(1767225600000)

	ack, err := newTestHandler(t, mailer).Execute(context.Background(), caller, payload)
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, float64(1767225600000), payload["deadline"])
	mailer.AssertExpectations(t)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		caller  *auth.Caller
		mutate  func(p map[string]interface{})
		status  apperrors.CallableStatus
		message string
	}{
		{
			name:    "unauthenticated",
			status:  apperrors.StatusUnauthenticated,
			message: "User must be authenticated",
		},
		{
			name:    "missing deadline",
			caller:  caller,
			mutate:  func(p map[string]interface{}) { delete(p, "deadline") },
			status:  apperrors.StatusInvalidArgument,
			message: "Missing required parameters",
		},
		{
			name:    "missing userEmail",
			caller:  caller,
			mutate:  func(p map[string]interface{}) { delete(p, "userEmail") },
			status:  apperrors.StatusInvalidArgument,
			message: "Missing required parameters",
		},
		{
			name:    "zero deadline",
			caller:  caller,
			mutate:  func(p map[string]interface{}) { p["deadline"] = float64(0) },
			status:  apperrors.StatusInvalidArgument,
			message: "Missing required parameters",
		},
		{
			name:    "empty taskText",
			caller:  caller,
			mutate:  func(p map[string]interface{}) { p["taskText"] = "" },
			status:  apperrors.StatusInvalidArgument,
			message: "Missing required parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			payload := createValidPayload()
			if tt.mutate != nil {
				tt.mutate(payload)
			}

			_, err := newTestHandler(t, mailer).Execute(context.Background(), tt.caller, payload)
			require.Error(t, err)
			var ce *apperrors.CallableError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.status, ce.Status)
			assert.Equal(t, tt.message, ce.Message)
			mailer.AssertNotCalled(t, "Send", anySend...)
		})
	}
}

func TestExecute_DeliveryFailureIsGeneric(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("Send", anySend...).Return(nil, errors.New("dial tcp 142.250.0.1:587: i/o timeout")).Once()

	_, err := newTestHandler(t, mailer).Execute(context.Background(), caller, createValidPayload())
	require.Error(t, err)
	var ce *apperrors.CallableError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, apperrors.StatusInternal, ce.Status)
	assert.NotContains(t, ce.Message, "i/o timeout")
}
