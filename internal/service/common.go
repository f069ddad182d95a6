package service

import (
	"strings"

	"grocery-storefront/pkg/validator"
)

// Recorder receives domain events for metrics. metrics.HTTPMetrics implements it.
type Recorder interface {
	OrderTransition(store, status string)
	StockConflict(store, scope string)
	EnrichFailed()
}

type noopRecorder struct{}

func (noopRecorder) OrderTransition(string, string) {}
func (noopRecorder) StockConflict(string, string)   {}
func (noopRecorder) EnrichFailed()                  {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

var tagMessages = map[string]string{
	"required":      "is required",
	"uuid_required": "must be a valid id",
	"gt":            "must be greater than %s",
	"gte":           "must be at least %s",
	"min":           "must have at least %s entries",
	"max":           "must be at most %s characters",
	"email":         "must be a valid email",
	"slug":          "must be lowercase letters, digits and dashes",
	"hexcolor":      "must be a hex color like #0A7C2F",
	"oneof":         "must be one of: %s",
	"url":           "must be a valid URL",
}

// validate runs struct validation and returns the first failure as a *FieldError.
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg, ok := tagMessages[first.Tag]
	if !ok {
		return invalid(first.FailedField, "failed on '%s'", first.Tag)
	}
	if strings.Contains(msg, "%s") {
		msg = strings.Replace(msg, "%s", first.Value, 1)
	}
	return invalid(first.FailedField, "%s", msg)
}

func actorOr(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}
