package ticket_api

import (
	"net/http"
	"strconv"

	"ms-concerts/internal/logger"
	"ms-concerts/internal/models"
	tickets "ms-concerts/internal/tickets/service"
	"ms-concerts/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, logger *logger.Logger) *Handler {
	return &Handler{
		TicketService: ticketService,
		Logger:        logger,
	}
}

// RegisterRoutes registers the concert, user and ticket routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/concerts", func(r chi.Router) {
		r.Post("/", h.CreateConcert)
		r.Get("/", h.ListConcerts)
		r.Get("/{concert_id}/ticket-counts", h.GetTicketCountsForConcert)
		r.Get("/{concert_id}/tickets", h.ListTicketsByConcert)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/{user_id}/tickets", h.ListTicketsByUser)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Post("/reserve", h.ReserveTicket)
		r.Post("/purchase/{ticket_id}", h.PurchaseTicket)
		r.Post("/cancel/{ticket_id}", h.CancelTicket)
		r.Post("/{ticket_id}/use", h.UseTicket)
		r.Get("/count", h.GetTotalTicketsCount)
		r.Get("/{ticket_id}", h.ViewTicket)
		r.Get("/{ticket_id}/qr", h.TicketQR)
	})

	r.Get("/reports/executions", h.ExecutionReport)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------------- CONCERTS ----------------

type createConcertRequest struct {
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Venue        string  `json:"venue"`
	TotalTickets int     `json:"total_tickets"`
	Price        float64 `json:"price"`
}

func (req *createConcertRequest) fromForm(form formValues) error {
	var err error
	req.Name = form.Get("name")
	req.Date = form.Get("date")
	req.Venue = form.Get("venue")
	if req.TotalTickets, err = form.Int("total_tickets"); err != nil {
		return err
	}
	req.Price, err = form.Float("price")
	return err
}

func (h *Handler) CreateConcert(w http.ResponseWriter, r *http.Request) {
	var req createConcertRequest
	if err := bind(r, &req, req.fromForm); err != nil {
		h.writeError(w, r, err)
		return
	}

	date, err := utils.ParseDateTime(req.Date)
	if err != nil {
		h.writeError(w, r, invalid("%s", err.Error()))
		return
	}

	concert, err := h.TicketService.CreateConcert(r.Context(), tickets.CreateConcertInput{
		Name:         req.Name,
		Date:         date,
		Venue:        req.Venue,
		TotalTickets: req.TotalTickets,
		Price:        req.Price,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{
		Message:   "Concert created successfully",
		ConcertID: concert.ID,
	})
}

func (h *Handler) ListConcerts(w http.ResponseWriter, r *http.Request) {
	concerts, err := h.TicketService.ListConcerts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, concerts)
}

// ---------------- USERS ----------------

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (req *createUserRequest) fromForm(form formValues) error {
	req.Email = form.Get("email")
	req.Name = form.Get("name")
	return nil
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := bind(r, &req, req.fromForm); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.TicketService.CreateUser(r.Context(), tickets.CreateUserInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{
		Message: "User created successfully",
		UserID:  user.ID,
	})
}

// ---------------- TICKETS ----------------

type reserveTicketRequest struct {
	ConcertID string `json:"concert_id"`
	UserID    string `json:"user_id"`
}

func (req *reserveTicketRequest) fromForm(form formValues) error {
	req.ConcertID = form.Get("concert_id")
	req.UserID = form.Get("user_id")
	return nil
}

func (h *Handler) ReserveTicket(w http.ResponseWriter, r *http.Request) {
	var req reserveTicketRequest
	if err := bind(r, &req, req.fromForm); err != nil {
		h.writeError(w, r, err)
		return
	}

	ticket, err := h.TicketService.ReserveTicket(r.Context(), req.ConcertID, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{
		Message:  "Ticket reserved successfully",
		TicketID: ticket.ID,
	})
}

func (h *Handler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	if _, err := h.TicketService.PurchaseTicket(r.Context(), chi.URLParam(r, "ticket_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{Message: "Ticket purchased successfully"})
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	if _, err := h.TicketService.CancelTicket(r.Context(), chi.URLParam(r, "ticket_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{Message: "Ticket cancelled successfully"})
}

func (h *Handler) UseTicket(w http.ResponseWriter, r *http.Request) {
	if _, err := h.TicketService.UseTicket(r.Context(), chi.URLParam(r, "ticket_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, utils.MessageResponse{Message: "Ticket marked as used"})
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "ticket_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, ticket)
}

func (h *Handler) ListTicketsByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.TicketService.ListTicketsByUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, list)
}

// ListTicketsByConcert lists a concert's tickets, filtered by ?status= when given.
func (h *Handler) ListTicketsByConcert(w http.ResponseWriter, r *http.Request) {
	var status models.TicketStatus
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := models.ParseTicketStatus(v)
		if err != nil {
			h.writeError(w, r, invalid("status must be one of available, reserved, purchased or used"))
			return
		}
		status = parsed
	}

	list, err := h.TicketService.ListTicketsByConcert(r.Context(), chi.URLParam(r, "concert_id"), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, list)
}

const defaultQRSize = 256

// TicketQR serves the PNG QR code of a purchased ticket. ?size= sets the
// edge length in pixels.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			h.writeError(w, r, invalid("size must be between 64 and 2048"))
			return
		}
		size = n
	}

	png, err := h.TicketService.TicketQR(r.Context(), chi.URLParam(r, "ticket_id"), size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
