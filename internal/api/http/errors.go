package http

import (
	"errors"
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

type errorResponse struct {
	Error      string             `json:"error"`
	Shortfalls []domain.Shortfall `json:"shortfalls,omitempty"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *domain.ValidationError
		notFoundErr     *domain.NotFoundError
		availabilityErr *domain.InsufficientAvailabilityError
		transitionErr   *domain.InvalidStateTransitionError
		cycleErr        *domain.CycleError
		stockErr        *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, errorBody(validationErr.Error()))
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, errorBody(notFoundErr.Error()))
	case errors.As(err, &availabilityErr):
		respondJSON(w, http.StatusConflict, errorResponse{
			Error:      availabilityErr.Error(),
			Shortfalls: availabilityErr.Shortfalls,
		})
	case errors.As(err, &transitionErr):
		respondJSON(w, http.StatusConflict, errorBody(transitionErr.Error()))
	case errors.As(err, &cycleErr):
		respondJSON(w, http.StatusConflict, errorBody(cycleErr.Error()))
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, errorBody(stockErr.Error()))
	case errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, errorBody("the operation lost a concurrent update race, please retry"))
	default:
		logger.Error("Unhandled error", "error", err, "path", r.URL.Path, "request_id", RequestID(r.Context()))
		respondJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
