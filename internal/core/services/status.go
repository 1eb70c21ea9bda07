package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// DefaultHistoryLimit is used when a non-positive limit is requested.
const DefaultHistoryLimit = 10

// StatusService reports stored tokens and scheduler state.
type StatusService struct {
	resumeID       string
	tokenStore     driven.TokenStore
	schedulerStore driven.SchedulerStore
}

// NewStatusService creates a new status service.
func NewStatusService(
	resumeID string,
	tokenStore driven.TokenStore,
	schedulerStore driven.SchedulerStore,
) *StatusService {
	return &StatusService{
		resumeID:       resumeID,
		tokenStore:     tokenStore,
		schedulerStore: schedulerStore,
	}
}

// Status returns the current state. Token values are never exposed.
func (s *StatusService) Status(ctx context.Context, historyLimit int) (*driving.Status, error) {
	if s.tokenStore == nil || s.schedulerStore == nil {
		return nil, domain.ErrNotConfigured
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	status := &driving.Status{
		ResumeID:  s.resumeID,
		Namespace: s.tokenStore.Namespace(),
	}

	var err error
	if status.HasAccessToken, err = s.hasValue(ctx, domain.KeyAccessToken); err != nil {
		return nil, err
	}
	if status.HasRefreshToken, err = s.hasValue(ctx, domain.KeyRefreshToken); err != nil {
		return nil, err
	}

	if status.Task, err = s.schedulerStore.GetTask(ctx, domain.TaskIDResumeRefresh); err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if status.History, err = s.schedulerStore.GetTaskHistory(ctx, domain.TaskIDResumeRefresh, historyLimit); err != nil {
		return nil, fmt.Errorf("get task history: %w", err)
	}

	return status, nil
}

func (s *StatusService) hasValue(ctx context.Context, key string) (bool, error) {
	val, err := s.tokenStore.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return val != "", nil
}
