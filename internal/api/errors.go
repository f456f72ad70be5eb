package api

import (
	"errors"
	"net/http"

	"agencyboard/internal/board"
	"agencyboard/internal/documents"
	"agencyboard/internal/webhooks"
)

// errorResponse maps collaborator errors onto HTTP status codes.
func errorResponse(err error) (int, ErrorResponse) {
	payload := ErrorResponse{Error: err.Error()}

	var illegal *board.IllegalTransitionError
	var partial *board.PartialCommitError
	switch {
	case errors.As(err, &illegal):
		payload.Reason = string(illegal.Reason)
		payload.Detail = illegal.Detail
		return http.StatusUnprocessableEntity, payload
	case errors.As(err, &partial):
		payload.Reason = "PARTIAL_COMMIT"
		payload.Failed = partial.Failed
		payload.Completed = partial.Completed
		return http.StatusBadGateway, payload
	case errors.Is(err, board.ErrValidation), errors.Is(err, documents.ErrInvalidName):
		return http.StatusBadRequest, payload
	case errors.Is(err, board.ErrRecordNotFound), errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound, payload
	case errors.Is(err, board.ErrBusy):
		return http.StatusConflict, payload
	case errors.Is(err, board.ErrRemote):
		return http.StatusBadGateway, payload
	case errors.Is(err, documents.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, payload
	case errors.Is(err, documents.ErrExpired):
		return http.StatusGone, payload
	case errors.Is(err, documents.ErrBadSignature):
		return http.StatusForbidden, payload
	case errors.Is(err, documents.ErrSigningDisabled), errors.Is(err, webhooks.ErrDisabled):
		return http.StatusServiceUnavailable, payload
	case webhooks.StatusCode(err) != 0:
		return http.StatusBadGateway, payload
	}
	return http.StatusInternalServerError, payload
}
