package ticket_api

import (
	"net/http"

	"ms-concerts/internal/models"
	"ms-concerts/internal/utils"

	"github.com/go-chi/chi/v5"
)

// TicketCountResponse is the response format for the GetTotalTicketsCount endpoint
type TicketCountResponse struct {
	TotalCount int `json:"total_count"`
}

type ConcertTicketCountsResponse struct {
	ConcertID string               `json:"concert_id"`
	Counts    []models.TicketCount `json:"counts"`
}

// GetTotalTicketsCount handles the request to get the total ticket count
func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.TicketService.GetTotalTicketsCount(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, TicketCountResponse{TotalCount: count})
}

func (h *Handler) GetTicketCountsForConcert(w http.ResponseWriter, r *http.Request) {
	concertID := chi.URLParam(r, "concert_id")
	counts, err := h.TicketService.GetTicketCountsForConcert(r.Context(), concertID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []models.TicketCount{}
	}
	utils.SendJSON(w, http.StatusOK, ConcertTicketCountsResponse{ConcertID: concertID, Counts: counts})
}
