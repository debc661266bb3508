package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
	"github.com/sudeengin/DnDbug-sub002/internal/export"
	"github.com/sudeengin/DnDbug-sub002/internal/generator"
	"github.com/sudeengin/DnDbug-sub002/internal/history"
	"github.com/sudeengin/DnDbug-sub002/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var campaignErr *campaign.Error
	if errors.As(err, &campaignErr) {
		var messages any
		if len(campaignErr.Messages) > 0 {
			messages = map[string]any{"messages": campaignErr.Messages}
		}
		switch campaignErr.Kind {
		case campaign.KindValidationFailed:
			return http.StatusUnprocessableEntity, campaignErr.Code, campaignErr.Message, messages
		case campaign.KindNotFound:
			return http.StatusNotFound, campaignErr.Code, campaignErr.Message, nil
		default:
			return http.StatusConflict, campaignErr.Code, campaignErr.Message, messages
		}
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil
	case errors.Is(err, store.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found", nil
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict, "VERSION_CONFLICT", "Session was modified concurrently, reload and retry", nil
	case errors.Is(err, history.ErrRevisionNotFound):
		return http.StatusNotFound, "REVISION_NOT_FOUND", "History revision not found", nil
	case errors.Is(err, history.ErrInvalidSessionID):
		return http.StatusBadRequest, "INVALID_SESSION_ID", "Invalid session id", nil
	case errors.Is(err, generator.ErrInvalidRequest):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, generator.ErrInvalidResponse):
		return http.StatusBadGateway, "GENERATION_FAILED", "Generator returned unusable content", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be one of md, html, pdf, yaml, json", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF export requires a Chromium runtime", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
