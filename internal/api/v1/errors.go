package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskline/internal/domain"
)

// domainError maps the domain error taxonomy onto HTTP problem responses.
// Denied access surfaces as 404 because AccessError unwraps to ErrNotFound;
// hiding a project's existence from outsiders is part of the contract.
func domainError(err error, resource string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("operation not permitted")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(resource + " conflict")
	case errors.Is(err, domain.ErrValidation):
		return huma.Error422UnprocessableEntity("invalid " + resource)
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("missing authentication")
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
