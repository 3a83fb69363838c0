package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

// Publisher raises notifications from inside another component's transaction.
type Publisher interface {
	// Notify stores the notification unless an unread one with the same
	// type, product and rule already exists. It reports whether a row was written.
	Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) (bool, error)
}

// Service defines notification list/read operations.
type Service interface {
	Publisher
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type NotifyInput struct {
	Type      enums.NotificationType
	ProductID *uuid.UUID
	RuleID    *uuid.UUID
	Title     string
	Message   string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Type       *enums.NotificationType
	ProductID  *uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult = types.Page[models.Notification]

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) (bool, error) {
	if input.Type == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "notification type required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	repo := s.repo.WithTx(tx)
	exists, err := repo.ExistsUnread(ctx, DedupeKey{Type: input.Type, ProductID: input.ProductID, RuleID: input.RuleID})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing notification")
	}
	if exists {
		return false, nil
	}
	notification := &models.Notification{
		Type:      input.Type,
		ProductID: input.ProductID,
		RuleID:    input.RuleID,
		Title:     input.Title,
		Message:   input.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := repo.Create(ctx, notification); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return true, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Type:       params.Type,
		ProductID:  params.ProductID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return pagination.NewPage(rows, next), nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	result, err := s.repo.MarkRead(ctx, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return updated, nil
}
