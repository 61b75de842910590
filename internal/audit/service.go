package audit

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gaughar-backend/internal/models"
)

type LogOptions struct {
	UserID      string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Service writes and reads the per-user audit trail.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	log := models.AuditLog{
		UserID:      opts.UserID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return errors.Annotate(err, "writing audit log")
	}
	return nil
}

// Record writes a log entry and only logs a failure. The audited write has
// already been committed.
func (s *Service) Record(ctx context.Context, opts LogOptions) {
	if err := s.WriteLog(ctx, opts); err != nil {
		s.logger.Warn("audit log not written",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}

type ListFilter struct {
	EntityType string
	EntityID   *uint
	Limit      int
}

const defaultListLimit = 200

// List returns the caller's audit entries, newest first.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{}).Where("user_id = ?", userID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	logs := make([]models.AuditLog, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, errors.Annotate(err, "listing audit logs")
	}
	return logs, nil
}
