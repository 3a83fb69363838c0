package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockroom/api/middleware"
	"github.com/angelmondragon/stockroom/api/validators"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

type page struct {
	limit  int
	cursor string
}

func parsePage(r *http.Request) (page, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return page{}, err
	}
	return page{limit: limit, cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}

// enumQuery parses an optional enum query parameter with the supplied parser.
func enumQuery[T ~string](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(raw)
	if err != nil {
		return nil, validationErr(err, key)
	}
	return &value, nil
}

func actorOf(r *http.Request) string {
	return middleware.ActorFromContext(r.Context())
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func routeParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func validationErr(err error, field string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
}
