package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom/api/responses"
	"github.com/angelmondragon/stockroom/api/validators"
	"github.com/angelmondragon/stockroom/internal/automation"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

type ruleRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Trigger string `json:"trigger" validate:"required"`
	Action  string `json:"action" validate:"required"`
	Enabled *bool  `json:"enabled"`
}

type ruleUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Enabled *bool   `json:"enabled"`
}

func ListRules(svc automation.RuleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("automation"))
			return
		}
		rules, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

func CreateRule(svc automation.RuleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("automation"))
			return
		}
		var req ruleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trigger, err := enums.ParseRuleTrigger(req.Trigger)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validationErr(err, "trigger"))
			return
		}
		action, err := enums.ParseRuleAction(req.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validationErr(err, "action"))
			return
		}
		rule, err := svc.CreateRule(r.Context(), automation.RuleInput{
			Name:    validators.SanitizeString(req.Name, 200),
			Trigger: trigger,
			Action:  action,
			Enabled: req.Enabled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

func UpdateRule(svc automation.RuleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("automation"))
			return
		}
		id, err := validators.ParseURLUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req ruleUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rule, err := svc.UpdateRule(r.Context(), id, automation.RuleUpdate{Name: req.Name, Enabled: req.Enabled})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

func DeleteRule(svc automation.RuleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("automation"))
			return
		}
		id, err := validators.ParseURLUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteRule(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RunScan triggers the stock alert scan outside the cron schedule.
func RunScan(scanner automation.Scanner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scanner == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scanner"))
			return
		}
		report, err := scanner.Scan(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
