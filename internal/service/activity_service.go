package service

import (
	"context"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"
)

// журнал действий админов
type ActivityService struct {
	repo ActivityStore
}

func NewActivityService(repo ActivityStore) *ActivityService {
	return &ActivityService{repo: repo}
}

// создает новую запись в журнале, ошибка только логируется
func (s *ActivityService) Log(ctx context.Context, adminID int64, action string, targetID int64, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	entry := &domain.ActivityLog{
		AdminID:  adminID,
		Action:   action,
		TargetID: targetID,
		Details:  details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("не удалось создать запись журнала", "error", err, "action", action, "admin_id", adminID)
	}
}

// последние записи, action можно не указывать
func (s *ActivityService) Recent(ctx context.Context, action string, limit int) ([]*domain.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.GetRecent(ctx, action, limit)
}
