package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClaimsErrorAlreadyExists    = "CLAIMS_ALREADY_EXISTS"
	ClaimsErrorNotFound         = "CLAIMS_NOT_FOUND"
	ClaimsErrorValidationFailed = "CLAIMS_VALIDATION_FAILED"
	ClaimsErrorBadInput         = "CLAIMS_BAD_INPUT"
	ClaimsErrorProviderFailed   = "CLAIMS_IDENTITY_PROVIDER_FAILED"
	ClaimsErrorInternal         = "CLAIMS_INTERNAL_ERROR"
)

func claimsErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClaimsErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "duplicate"):
		return newClaimsError(err.Error(), goerrors.CategoryConflict, ClaimsErrorAlreadyExists)
	case strings.Contains(msg, "not found"):
		return newClaimsError(err.Error(), goerrors.CategoryNotFound, ClaimsErrorNotFound)
	case strings.Contains(msg, "identity provider"):
		return newClaimsError(err.Error(), goerrors.CategoryExternal, ClaimsErrorProviderFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newClaimsError(err.Error(), goerrors.CategoryBadInput, ClaimsErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClaimsErrorEnvelope(mapped)
}

func newClaimsError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureClaimsErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureClaimsErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = claimsHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClaimsTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultClaimsTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return ClaimsErrorBadInput
	case goerrors.CategoryValidation:
		return ClaimsErrorValidationFailed
	case goerrors.CategoryNotFound:
		return ClaimsErrorNotFound
	case goerrors.CategoryConflict:
		return ClaimsErrorAlreadyExists
	case goerrors.CategoryExternal:
		return ClaimsErrorProviderFailed
	default:
		return ClaimsErrorInternal
	}
}

func claimsHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
