package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"expense-tracker/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Error responses sent by the API, by code, route and status",
	},
	[]string{"code", "endpoint", "status"},
)

// statusCodes maps the statuses Echo raises on its own (routing, binding,
// body limit) onto catalogue codes
var statusCodes = map[int]errors.ErrorCode{
	http.StatusBadRequest:            errors.ValidationGeneral,
	http.StatusUnauthorized:          errors.AuthMissingToken,
	http.StatusForbidden:             errors.AuthInsufficientPermission,
	http.StatusNotFound:              errors.SystemRouteNotFound,
	http.StatusMethodNotAllowed:      errors.SystemMethodNotAllowed,
	http.StatusRequestEntityTooLarge: errors.ValidationOutOfRange,
	http.StatusUnsupportedMediaType:  errors.ValidationInvalidFormat,
	http.StatusUnprocessableEntity:   errors.ValidationGeneral,
	http.StatusTooManyRequests:       errors.SystemRateLimitExceeded,
	http.StatusInternalServerError:   errors.SystemInternalError,
	http.StatusServiceUnavailable:    errors.SystemServiceUnavailable,
}

// CustomHTTPErrorHandler renders any error that escapes a handler as the
// standard error body and counts it in api_errors_total
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = "unknown"
	}

	response, status := buildErrorResponse(err, traceID)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "request failed",
		"trace_id", traceID,
		"code", response.Error.Code,
		"status", status,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)

	recordAPIError(c, response.Error.Code, status)

	if sendErr := c.JSON(status, response); sendErr != nil {
		slog.Error("failed to write error response",
			"trace_id", traceID,
			"error", sendErr,
		)
	}
}

func buildErrorResponse(err error, traceID string) (*errors.ErrorResponse, int) {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = describeFieldError(fe)
		}
		return errors.NewValidationError(details, traceID), http.StatusBadRequest
	}

	var httpErr *echo.HTTPError
	if stderrors.As(err, &httpErr) {
		return errors.NewErrorResponse(codeForStatus(httpErr.Code), traceID, httpErrorOptions(httpErr)...), httpErr.Code
	}

	response, _ := errors.WrapSystemError(err, traceID)
	return response, http.StatusInternalServerError
}

func codeForStatus(status int) errors.ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return errors.SystemUnexpectedError
}

// Echo's bare errors carry http.StatusText as their message; only a custom
// message replaces the catalogue one
func httpErrorOptions(httpErr *echo.HTTPError) []errors.ErrorOption {
	msg, ok := httpErr.Message.(string)
	if !ok || msg == "" || msg == http.StatusText(httpErr.Code) {
		return nil
	}
	return []errors.ErrorOption{errors.WithMessage(msg)}
}

func recordAPIError(c echo.Context, code string, status int) {
	endpoint := c.Path()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	apiErrorsTotal.WithLabelValues(code, endpoint, strconv.Itoa(status)).Inc()
}

var fieldMessages = map[string]string{
	"required":         "is required",
	"uuid":             "must be a valid UUID",
	"numeric":          "must be a valid number",
	"expense_category": "must be one of: food, transportation, entertainment, utilities, healthcare, shopping, education, travel, other",
	"category_filter":  "must be an expense category or 'all'",
	"expense_amount":   "must be a non-negative number with at most 2 decimal places",
	"iso8601":          "must be an ISO-8601 date",
}

// describeFieldError turns a validator failure into the text shown in error details
func describeFieldError(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg
	}

	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be %s %s characters long", bound, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must have %s %s items", bound, fe.Param())
		default:
			return fmt.Sprintf("must be %s %s", bound, fe.Param())
		}
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for '%s'", fe.Tag())
	}
}
