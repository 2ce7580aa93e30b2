package ticket_api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-concerts/internal/models"
	"ms-concerts/internal/utils"
)

type errorMapping struct {
	target error
	status int
	detail string
}

var errorMappings = []errorMapping{
	{models.ErrConcertNotFound, http.StatusNotFound, "Concert not found"},
	{models.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{models.ErrTicketNotFound, http.StatusNotFound, "Ticket not found"},

	{models.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
	{models.ErrNoTicketsAvailable, http.StatusBadRequest, "No tickets available"},
	{models.ErrAlreadyPurchased, http.StatusBadRequest, "Ticket already purchased"},
	{models.ErrTicketNotReserved, http.StatusBadRequest, "Ticket must be reserved before purchase"},
	{models.ErrNotPurchased, http.StatusBadRequest, "Ticket must be purchased before use"},
	{models.ErrAlreadyAvailable, http.StatusBadRequest, "Ticket is already available"},
	{models.ErrUsedNotCancellable, http.StatusBadRequest, "Used tickets cannot be cancelled"},
	{models.ErrTicketUsed, http.StatusBadRequest, "Ticket already used"},
	{models.ErrInvalidTransition, http.StatusBadRequest, "Invalid ticket transition"},

	{models.ErrTicketBusy, http.StatusConflict, "Ticket is being processed, try again"},
	{models.ErrConcurrentUpdate, http.StatusConflict, "Ticket was modified by another request, try again"},
}

// writeError maps domain errors to their status and detail. Anything
// unrecognised is logged and reported as a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrValidation) {
		utils.SendDetail(w, http.StatusBadRequest, validationDetail(err))
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			utils.SendDetail(w, m.status, m.detail)
			return
		}
	}

	h.Logger.Error("HTTP", fmt.Sprintf("%s %s failed: %v", r.Method, r.URL.Path, err))
	utils.SendDetail(w, http.StatusInternalServerError, "Internal server error")
}

func validationDetail(err error) string {
	detail := strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
	if detail == "" || detail == err.Error() {
		return "Invalid request"
	}
	return strings.ToUpper(detail[:1]) + detail[1:]
}
