package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUsageResetter struct {
	mock.Mock
}

func (m *MockUsageResetter) ResetMonthlyUsage(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(int64), args.Error(1)
}

func TestHandleResetMonthlyUsage_UsesPayloadTime(t *testing.T) {
	resetAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	users := new(MockUsageResetter)
	users.On("ResetMonthlyUsage", mock.Anything, resetAt).Return(int64(42), nil)

	task, err := NewResetMonthlyUsageTask(ResetMonthlyUsagePayload{ResetAt: resetAt})
	require.NoError(t, err)

	p := NewUsageProcessor(users, nil)
	err = p.HandleResetMonthlyUsage(context.Background(), task)

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestHandleResetMonthlyUsage_DefaultsToNow(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 3, 0, time.UTC)
	users := new(MockUsageResetter)
	users.On("ResetMonthlyUsage", mock.Anything, now).Return(int64(0), nil)

	p := NewUsageProcessor(users, nil)
	p.now = func() time.Time { return now }

	err := p.HandleResetMonthlyUsage(context.Background(), asynq.NewTask(TypeResetMonthlyUsage, nil))

	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestHandleResetMonthlyUsage_StoreErrorIsRetried(t *testing.T) {
	users := new(MockUsageResetter)
	users.On("ResetMonthlyUsage", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))

	task, err := NewResetMonthlyUsageTask(ResetMonthlyUsagePayload{})
	require.NoError(t, err)

	err = NewUsageProcessor(users, nil).HandleResetMonthlyUsage(context.Background(), task)

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHandleResetMonthlyUsage_BadPayloadSkipsRetry(t *testing.T) {
	users := new(MockUsageResetter)

	err := NewUsageProcessor(users, nil).HandleResetMonthlyUsage(context.Background(),
		asynq.NewTask(TypeResetMonthlyUsage, []byte("{not json")))

	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	users.AssertNotCalled(t, "ResetMonthlyUsage", mock.Anything, mock.Anything)
}

func TestNewResetMonthlyUsageTask(t *testing.T) {
	task, err := NewResetMonthlyUsageTask(ResetMonthlyUsagePayload{})
	require.NoError(t, err)
	assert.Equal(t, TypeResetMonthlyUsage, task.Type())

	var payload ResetMonthlyUsagePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.True(t, payload.ResetAt.IsZero())
	assert.Equal(t, "{}", string(task.Payload()))
}

func TestSentryMiddleware_RecoversPanic(t *testing.T) {
	h := SentryMiddleware(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		panic("boom")
	}))

	err := h.ProcessTask(context.Background(), asynq.NewTask("test", nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestOTelMiddleware_PassesThrough(t *testing.T) {
	want := errors.New("failed")
	h := OTelMiddleware(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		return want
	}))

	assert.ErrorIs(t, h.ProcessTask(context.Background(), asynq.NewTask("test", nil)), want)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		addr    string
		user    string
		pass    string
		db      int
		tls     bool
		wantErr bool
	}{
		{name: "Plain host", url: "localhost:6379", addr: "localhost:6379"},
		{name: "URL with password", url: "redis://:secret@cache:6379", addr: "cache:6379", pass: "secret"},
		{name: "URL with user and db", url: "redis://app:pw@cache:6379/3", addr: "cache:6379", user: "app", pass: "pw", db: 3},
		{name: "TLS", url: "rediss://cache.example:6380", addr: "cache.example:6380", tls: true},
		{name: "Bad db", url: "redis://cache:6379/x", wantErr: true},
		{name: "Empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := ParseRedisURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, opt.Addr)
			assert.Equal(t, tt.user, opt.Username)
			assert.Equal(t, tt.pass, opt.Password)
			assert.Equal(t, tt.db, opt.DB)
			assert.Equal(t, tt.tls, opt.TLSConfig != nil)
		})
	}
}
