package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

// Entry is one audited change. Details is marshalled to JSON as-is.
type Entry struct {
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Actor      string
	Details    any
}

// Recorder appends audit entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

// Service lists and records audit entries.
type Service interface {
	Recorder
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type ListParams struct {
	EntityType string
	EntityID   uuid.UUID
	Limit      int
	Cursor     string
}

type ListResult = types.Page[models.AuditEntry]

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.Action == "" || entry.EntityType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action and entity type required")
	}
	row := &models.AuditEntry{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Actor:      entry.Actor,
	}
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit details")
		}
		row.Details = raw
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		Limit:      params.Limit,
	}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return pagination.NewPage(rows, next), nil
}
