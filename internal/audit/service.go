package audit

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
	"github.com/rakapradana/pustaka-backend/pkg/outbox"
	"github.com/rakapradana/pustaka-backend/pkg/pagination"
)

// Entry is a single audit record to append.
type Entry struct {
	Type        enums.AdminEventType
	Title       string
	Description string
	Metadata    any
}

// ServiceParams groups dependencies for the audit service.
type ServiceParams struct {
	Repo   Repository
	Outbox *outbox.Service
	Logger *logger.Logger
}

// Service appends admin events and mirrors them onto the outbox.
type Service struct {
	repo   Repository
	outbox *outbox.Service
	logg   *logger.Logger
}

// NewService builds an audit service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{
		repo:   params.Repo,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

var outboxEventByAdminEvent = map[enums.AdminEventType]enums.OutboxEventType{
	enums.AdminEventSubscriptionActivated: enums.EventSubscriptionActivated,
	enums.AdminEventSubscriptionCancelled: enums.EventSubscriptionCancelled,
	enums.AdminEventSubscriptionExpired:   enums.EventSubscriptionExpired,
	enums.AdminEventCheckoutCreated:       enums.EventCheckoutCreated,
	enums.AdminEventCheckoutAbandoned:     enums.EventCheckoutAbandoned,
}

// RecordTx appends the entry inside the caller's transaction and, when the
// event type has a downstream consumer, queues a matching outbox event.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !entry.Type.IsValid() {
		return errors.New("invalid admin event type")
	}

	var metadata json.RawMessage
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = encoded
	}

	event := models.AdminEvent{
		Type:        entry.Type,
		Title:       entry.Title,
		Description: entry.Description,
		Metadata:    metadata,
	}
	if err := s.repo.WithTx(tx).Create(ctx, &event); err != nil {
		return err
	}

	if s.outbox != nil {
		if eventType, ok := outboxEventByAdminEvent[entry.Type]; ok {
			err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     eventType,
				AggregateType: enums.AggregateAdminEvent,
				AggregateID:   event.ID,
				Data:          entry.Metadata,
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// List pages through admin events, newest first.
func (s *Service) List(ctx context.Context, params ListQuery) ([]models.AdminEvent, *pagination.Cursor, error) {
	return s.repo.List(ctx, params)
}
