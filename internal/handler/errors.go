package handler

import (
	"errors"

	"github.com/deppfellow/start-service/internal/errs"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/service"
	"github.com/deppfellow/start-service/internal/sqlerr"
)

var missingPrimaryKeyCode = "MISSING_PRIMARY_KEY"

// toHTTPError maps service and model errors to client errors. Database
// errors, including not found, go through sqlerr.
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError

	switch {
	case errors.As(err, &httpErr):
		return httpErr

	case errors.Is(err, service.ErrMissingPrimaryKey):
		return errs.NewBadRequestError(err.Error(), true, &missingPrimaryKeyCode, nil, nil)

	case errors.Is(err, model.ErrUnknownColumn),
		errors.Is(err, model.ErrUnknownRelation),
		errors.Is(err, model.ErrInvalidValue):
		return errs.NewBadRequestError(err.Error(), true, nil, nil, nil)

	case errors.Is(err, service.ErrModelNotFound):
		return errs.NewInternalServerError()
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}
	return errs.NewInternalServerError()
}
