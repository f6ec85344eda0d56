package v1

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/utils"
)

var validate = validator.New()

// writeDomainError maps sentinel domain errors onto HTTP status codes.
// Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyAssigned):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUploadInFlight):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotEligible):
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireUser pulls the authenticated user off the context; the auth
// middleware guarantees it exists on protected routes, but handlers still
// guard against miswired routing.
func requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user := domain.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

func pagination(page, limit int, total int64) domain.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return domain.Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
