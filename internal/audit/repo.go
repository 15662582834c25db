package audit

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	"github.com/rakapradana/pustaka-backend/pkg/pagination"
)

// Repository handles admin event persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.AdminEvent) error
	List(ctx context.Context, params ListQuery) ([]models.AdminEvent, *pagination.Cursor, error)
}

// ListQuery configures admin event list queries.
type ListQuery struct {
	Type   *enums.AdminEventType
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.AdminEvent) error {
	if event == nil {
		return errors.New("event is required")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.AdminEvent, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.AdminEvent{})
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var events []models.AdminEvent
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > limit {
		events = events[:limit]
		// The cursor points at the last returned row; the strict predicate
		// above then resumes on the row after it.
		last := events[limit-1]
		return events, &pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		}, nil
	}

	return events, nil, nil
}
