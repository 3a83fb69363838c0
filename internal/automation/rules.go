package automation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// RuleService manages automation rules.
type RuleService interface {
	CreateRule(ctx context.Context, input RuleInput) (*models.AutomationRule, error)
	ListRules(ctx context.Context) ([]models.AutomationRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, input RuleUpdate) (*models.AutomationRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

type RuleInput struct {
	Name    string
	Trigger enums.RuleTrigger
	Action  enums.RuleAction
	Enabled *bool
}

type RuleUpdate struct {
	Name    *string
	Enabled *bool
}

type ruleService struct {
	repo Repository
}

func NewRuleService(repo Repository) (RuleService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automation repository required")
	}
	return &ruleService{repo: repo}, nil
}

func (s *ruleService) CreateRule(ctx context.Context, input RuleInput) (*models.AutomationRule, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule name required")
	}
	if !input.Trigger.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rule trigger")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rule action")
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	rule := &models.AutomationRule{Name: name, Trigger: input.Trigger, Action: input.Action, Enabled: enabled}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rule")
	}
	return rule, nil
}

func (s *ruleService) ListRules(ctx context.Context) ([]models.AutomationRule, error) {
	rules, err := s.repo.ListRules(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rules")
	}
	return rules, nil
}

func (s *ruleService) UpdateRule(ctx context.Context, id uuid.UUID, input RuleUpdate) (*models.AutomationRule, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule name required")
		}
		updates["name"] = name
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if err := s.repo.UpdateRule(ctx, id, updates); err != nil {
		return nil, mapRuleErr(err, "update rule")
	}
	rule, err := s.repo.FindRule(ctx, id)
	if err != nil {
		return nil, mapRuleErr(err, "load rule")
	}
	return rule, nil
}

func (s *ruleService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return mapRuleErr(err, "delete rule")
	}
	return nil
}

func mapRuleErr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "rule not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
