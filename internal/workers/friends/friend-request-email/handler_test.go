package friendrequestemail

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	apperrors "synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/models"
	"synctask-notifications/internal/records"
	"synctask-notifications/internal/triggers"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

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

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type blockingUsers struct{}

func (blockingUsers) GetUser(ctx context.Context, _ string) (*models.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ==========================
// Test Helpers
// ==========================

func createRequestChange(t *testing.T, after map[string]interface{}) *triggers.Change {
	t.Helper()
	raw, err := json.Marshal(after)
	require.NoError(t, err)
	return &triggers.Change{
		Collection: triggers.CollectionFriendRequests,
		Operation:  triggers.OperationCreate,
		RecordID:   "fr1",
		After:      raw,
	}
}

func newTestHandler(t *testing.T, mailer mail.Sender, users records.UserLookup) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{Mailer: mailer, Users: users, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

var anySend = []interface{}{mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything}

// ==========================
// Tests
// ==========================

func TestNewHandler_RequiresDependencies(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Users: new(MockUsers)})
	assert.ErrorContains(t, err, "mailer is required")

	_, err = NewHandler(HandlerOptions{Mailer: new(MockMailer)})
	assert.ErrorContains(t, err, "user lookup is required")
}

// bob sends carol a request; carol's record resolves through Postgres.
func TestExecute_EndToEnd_BobToCarol(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT username, email FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"username", "email"}).AddRow("carol", "carol@x.com"))

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, "carol@x.com",
		mock.MatchedBy(func(subject string) bool { return strings.Contains(subject, "bob") }),
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "carol") }),
		mock.MatchedBy(func(text string) bool { return strings.Contains(text, "carol") }),
	).Return(&mail.Result{Success: true, MessageID: "<m1@synctask.app>"}, nil).Once()

	h := newTestHandler(t, mailer, records.NewUserStore(db))
	out, err := h.Execute(context.Background(), createRequestChange(t, map[string]interface{}{
		"senderUsername": "bob",
		"receiverId":     "u1",
	}))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "carol@x.com", out.Recipient)
	mailer.AssertNumberOfCalls(t, "Send", 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestExecute_Skips(t *testing.T) {
	tests := []struct {
		name     string
		after    map[string]interface{}
		receiver *models.User
		lookErr  error
	}{
		{
			name:    "receiver not found",
			after:   map[string]interface{}{"senderUsername": "bob", "receiverId": "ghost"},
			lookErr: records.ErrNotFound,
		},
		{
			name:     "receiver has no email",
			after:    map[string]interface{}{"senderUsername": "bob", "receiverId": "u2"},
			receiver: &models.User{ID: "u2", Username: "dave"},
		},
		{
			name:  "no receiver id",
			after: map[string]interface{}{"senderUsername": "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUsers)
			if receiverID, ok := tt.after["receiverId"].(string); ok {
				if tt.receiver != nil {
					users.On("GetUser", mock.Anything, receiverID).Return(tt.receiver, nil)
				} else {
					users.On("GetUser", mock.Anything, receiverID).Return(nil, tt.lookErr)
				}
			}
			mailer := new(MockMailer)

			out, err := newTestHandler(t, mailer, users).Execute(context.Background(), createRequestChange(t, tt.after))
			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, out.Status)
			mailer.AssertNotCalled(t, "Send", anySend...)
		})
	}
}

func TestExecute_LookupError(t *testing.T) {
	users := new(MockUsers)
	users.On("GetUser", mock.Anything, "u1").Return(nil, errors.New("connection reset"))
	mailer := new(MockMailer)

	_, err := newTestHandler(t, mailer, users).Execute(context.Background(), createRequestChange(t, map[string]interface{}{
		"senderUsername": "bob",
		"receiverId":     "u1",
	}))

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRecordLookupFailed, apperrors.GetErrorCode(err))
	mailer.AssertNotCalled(t, "Send", anySend...)
}

func TestHandleChange_SwallowsFailures(t *testing.T) {
	users := new(MockUsers)
	users.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1", Username: "carol", Email: "carol@x.com"}, nil)
	mailer := new(MockMailer)
	mailer.On("Send", anySend...).Return(nil, errors.New("smtp down")).Once()

	h := newTestHandler(t, mailer, users)
	assert.NotPanics(t, func() {
		h.HandleChange(context.Background(), createRequestChange(t, map[string]interface{}{
			"senderUsername": "bob",
			"receiverId":     "u1",
		}))
	})
	mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandleChange_AppliesConfiguredTimeout(t *testing.T) {
	mailer := new(MockMailer)
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: 50 * time.Millisecond},
		Mailer:       mailer,
		Users:        blockingUsers{},
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	change := createRequestChange(t, map[string]interface{}{"senderUsername": "bob", "receiverId": "u1"})
	done := make(chan struct{})
	go func() {
		h.HandleChange(context.WithoutCancel(context.Background()), change)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleChange did not return after the handler timeout")
	}
	mailer.AssertNotCalled(t, "Send", anySend...)
}
