package controllers

import (
	"errors"
	"net/http"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Stable error kinds returned to clients.
const (
	KindUnauthorized        = "Unauthorized"
	KindForbidden           = "Forbidden"
	KindNotFound            = "NotFound"
	KindInsufficientBalance = "InsufficientBalance"
	KindSlotUnavailable     = "SlotUnavailable"
	KindBelowMinimum        = "BelowMinimum"
	KindAlreadyApproved     = "AlreadyApproved"
	KindInvalidInput        = "InvalidInput"
	KindUpstreamFailure     = "UpstreamFailure"
)

type errorMapping struct {
	target error
	kind   string
	status int
}

var errorMappings = []errorMapping{
	{models.ErrUnauthorized, KindUnauthorized, http.StatusUnauthorized},
	{models.ErrForbidden, KindForbidden, http.StatusForbidden},
	{models.ErrUserNotFound, KindNotFound, http.StatusNotFound},
	{models.ErrTaskNotFound, KindNotFound, http.StatusNotFound},
	{models.ErrSubmissionNotFound, KindNotFound, http.StatusNotFound},
	{models.ErrWithdrawalNotFound, KindNotFound, http.StatusNotFound},
	{models.ErrPurchaseNotFound, KindNotFound, http.StatusNotFound},
	{models.ErrInsufficientBalance, KindInsufficientBalance, http.StatusBadRequest},
	{models.ErrSlotUnavailable, KindSlotUnavailable, http.StatusConflict},
	{models.ErrBelowMinimum, KindBelowMinimum, http.StatusBadRequest},
	{models.ErrAlreadyApproved, KindAlreadyApproved, http.StatusConflict},
	{models.ErrInvalidInput, KindInvalidInput, http.StatusBadRequest},
	{models.ErrUpstream, KindUpstreamFailure, http.StatusBadGateway},
}

// classify maps an error chain to its kind, status and client-safe message.
func classify(err error) (string, int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.kind, m.status, m.target.Error()
		}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return KindInvalidInput, http.StatusBadRequest, validationMessage(verrs)
	}
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		switch herr.Code {
		case http.StatusUnauthorized:
			return KindUnauthorized, herr.Code, models.ErrUnauthorized.Error()
		case http.StatusForbidden:
			return KindForbidden, herr.Code, models.ErrForbidden.Error()
		case http.StatusNotFound:
			return KindNotFound, herr.Code, "resource not found"
		case http.StatusMethodNotAllowed:
			return KindNotFound, herr.Code, "method not allowed"
		}
		if herr.Code < http.StatusInternalServerError {
			return KindInvalidInput, http.StatusBadRequest, models.ErrInvalidInput.Error()
		}
	}
	return KindUpstreamFailure, http.StatusServiceUnavailable, models.ErrUpstream.Error()
}

func validationMessage(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return models.ErrInvalidInput.Error()
	}
	f := verrs[0]
	return "invalid input: " + f.Field() + " failed " + f.Tag()
}

// respondError writes the error envelope. Unclassified errors are logged and reported
// as an upstream failure without details.
func respondError(c echo.Context, err error) error {
	kind, status, message := classify(err)
	if kind == KindUpstreamFailure {
		c.Logger().Errorf("request %s %s failed: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Kind:    kind,
		Message: message,
	})
}

// HTTPErrorHandler renders errors returned from middleware and unmatched routes in
// the same envelope as handler errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if rerr := respondError(c, err); rerr != nil {
		c.Logger().Error(rerr)
	}
}
