package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

func TestRuleLifecycle(t *testing.T) {
	svc, err := NewRuleService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, RuleInput{Name: " restock ", Trigger: enums.RuleTriggerOutOfStock, Action: enums.RuleActionReorder})
	require.NoError(t, err)
	require.Equal(t, "restock", rule.Name)
	require.True(t, rule.Enabled)

	off := false
	updated, err := svc.UpdateRule(ctx, rule.ID, RuleUpdate{Enabled: &off})
	require.NoError(t, err)
	require.False(t, updated.Enabled)

	rules, err := svc.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	require.NoError(t, svc.DeleteRule(ctx, rule.ID))
	err = svc.DeleteRule(ctx, rule.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRuleValidation(t *testing.T) {
	svc, err := NewRuleService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.CreateRule(ctx, RuleInput{Name: "x", Trigger: "sold_out", Action: enums.RuleActionNotify})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CreateRule(ctx, RuleInput{Name: "x", Trigger: enums.RuleTriggerLowStock, Action: "email"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CreateRule(ctx, RuleInput{Trigger: enums.RuleTriggerLowStock, Action: enums.RuleActionNotify})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateRule(ctx, uuid.New(), RuleUpdate{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	name := "y"
	_, err = svc.UpdateRule(ctx, uuid.New(), RuleUpdate{Name: &name})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
