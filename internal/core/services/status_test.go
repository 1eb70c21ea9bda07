package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

func TestStatusService_NotConfigured(t *testing.T) {
	service := NewStatusService("abc", nil, nil)

	_, err := service.Status(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestStatusService_Empty(t *testing.T) {
	service := NewStatusService("abc", newMockTokenStore(nil), newMockSchedulerStore())

	status, err := service.Status(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "abc", status.ResumeID)
	assert.Equal(t, domain.TokenNamespace, status.Namespace)
	assert.False(t, status.HasAccessToken)
	assert.False(t, status.HasRefreshToken)
	assert.Nil(t, status.Task)
	assert.Empty(t, status.History)
}

func TestStatusService_WithState(t *testing.T) {
	ctx := context.Background()
	tokens := newMockTokenStore(map[string]string{
		domain.KeyAccessToken:  "a1",
		domain.KeyRefreshToken: "",
	})
	scheduler := newMockSchedulerStore()
	now := time.Now()
	require.NoError(t, scheduler.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDResumeRefresh,
		Name:     "Resume Refresh",
		Interval: domain.DefaultRefreshInterval,
		LastRun:  now,
		NextRun:  now.Add(domain.DefaultRefreshInterval),
		Enabled:  true,
	}))
	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.RecordResult(ctx, &domain.TaskResult{
			TaskID:  domain.TaskIDResumeRefresh,
			Success: true,
		}))
	}

	status, err := NewStatusService("abc", tokens, scheduler).Status(ctx, 2)
	require.NoError(t, err)

	assert.True(t, status.HasAccessToken)
	assert.False(t, status.HasRefreshToken)
	require.NotNil(t, status.Task)
	assert.Equal(t, domain.DefaultRefreshInterval, status.Task.Interval)
	assert.Len(t, status.History, 2)
}

func TestStatusService_TokenStoreError(t *testing.T) {
	tokens := newMockTokenStore(nil)
	tokens.getErr = errors.New("connection refused")

	_, err := NewStatusService("abc", tokens, newMockSchedulerStore()).Status(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStatusService_SchedulerStoreError(t *testing.T) {
	scheduler := newMockSchedulerStore()
	scheduler.getErr = errors.New("db locked")

	_, err := NewStatusService("abc", newMockTokenStore(nil), scheduler).Status(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get task")
}
