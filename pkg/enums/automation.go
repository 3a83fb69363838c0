package enums

import "fmt"

// RuleTrigger names the stock condition an automation rule reacts to. The values
// double as alert kinds produced by the stock scan.
type RuleTrigger string

const (
	RuleTriggerLowStock         RuleTrigger = "low_stock"
	RuleTriggerOutOfStock       RuleTrigger = "out_of_stock"
	RuleTriggerOverstock        RuleTrigger = "overstock"
	RuleTriggerPendingBackorder RuleTrigger = "pending_backorder"
)

var validRuleTriggers = []RuleTrigger{
	RuleTriggerLowStock,
	RuleTriggerOutOfStock,
	RuleTriggerOverstock,
	RuleTriggerPendingBackorder,
}

// IsValid reports whether the value is a known RuleTrigger.
func (r RuleTrigger) IsValid() bool {
	for _, candidate := range validRuleTriggers {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRuleTrigger converts raw input into a RuleTrigger.
func ParseRuleTrigger(value string) (RuleTrigger, error) {
	for _, candidate := range validRuleTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule trigger %q", value)
}

// RuleAction is what an automation rule does when its trigger fires.
type RuleAction string

const (
	RuleActionNotify  RuleAction = "notify"
	RuleActionReorder RuleAction = "reorder"
)

var validRuleActions = []RuleAction{
	RuleActionNotify,
	RuleActionReorder,
}

// IsValid reports whether the value is a known RuleAction.
func (r RuleAction) IsValid() bool {
	for _, candidate := range validRuleActions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRuleAction converts raw input into a RuleAction.
func ParseRuleAction(value string) (RuleAction, error) {
	for _, candidate := range validRuleActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule action %q", value)
}
