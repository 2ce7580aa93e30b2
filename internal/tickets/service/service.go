package tickets

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"ms-concerts/internal/logger"
	"ms-concerts/internal/models"
	"ms-concerts/internal/tickets/ledger"
	"ms-concerts/internal/tickets/lifecycle"
	qr "ms-concerts/internal/tickets/qr_generator"

	"github.com/google/uuid"
)

type TicketDBLayer interface {
	ledger.Store
	TicketCountDBLayer

	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateConcert(ctx context.Context, concert *models.Concert) error
	GetConcertByID(ctx context.Context, id string) (*models.Concert, error)
	ListConcerts(ctx context.Context) ([]models.Concert, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticket *models.Ticket, from models.TicketStatus) (bool, error)
	GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
	GetTicketsByConcert(ctx context.Context, concertID string) ([]models.Ticket, error)
	GetTotalTicketsCount(ctx context.Context) (int, error)
}

// TicketLocker serializes transitions of one ticket across instances.
type TicketLocker interface {
	LockTicket(ctx context.Context, ticketID, owner string) (bool, error)
	UnlockTicket(ctx context.Context, ticketID, owner string) error
}

type EventPublisher interface {
	PublishTicketEvent(ctx context.Context, event models.TicketEvent) error
}

type TicketService struct {
	DB     TicketDBLayer
	Ledger *ledger.Ledger
	Locker TicketLocker
	Events EventPublisher
	QR     *qr.QRGenerator
	Logger *logger.Logger
	Now    func() time.Time
}

type Option func(*TicketService)

func WithLocker(locker TicketLocker) Option {
	return func(s *TicketService) { s.Locker = locker }
}

func WithEventPublisher(events EventPublisher) Option {
	return func(s *TicketService) { s.Events = events }
}

func WithQRGenerator(gen *qr.QRGenerator) Option {
	return func(s *TicketService) { s.QR = gen }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *TicketService) { s.Logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *TicketService) { s.Now = now }
}

func NewTicketService(db TicketDBLayer, opts ...Option) *TicketService {
	s := &TicketService{
		DB:     db,
		Ledger: ledger.New(db),
		Now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TicketService) now() time.Time {
	return s.Now().UTC()
}

// ---------------- CONCERTS & USERS ----------------

type CreateConcertInput struct {
	Name         string
	Date         time.Time
	Venue        string
	TotalTickets int
	Price        float64
}

func (in CreateConcertInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	case strings.TrimSpace(in.Venue) == "":
		return fmt.Errorf("%w: venue is required", models.ErrValidation)
	case in.Date.IsZero():
		return fmt.Errorf("%w: date is required", models.ErrValidation)
	case in.TotalTickets < 0:
		return fmt.Errorf("%w: total_tickets must not be negative", models.ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	return nil
}

func (s *TicketService) CreateConcert(ctx context.Context, in CreateConcertInput) (*models.Concert, error) {
	concert, err := s.createConcert(ctx, in)
	s.Logger.Audit("create_concert", strings.TrimSpace(in.Name), err)
	return concert, err
}

func (s *TicketService) createConcert(ctx context.Context, in CreateConcertInput) (*models.Concert, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	concert := &models.Concert{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(in.Name),
		Date:             in.Date.UTC(),
		Venue:            strings.TrimSpace(in.Venue),
		TotalTickets:     in.TotalTickets,
		AvailableTickets: in.TotalTickets,
		Price:            in.Price,
		CreatedAt:        s.now(),
	}
	if err := s.DB.CreateConcert(ctx, concert); err != nil {
		return nil, fmt.Errorf("failed to create concert: %w", err)
	}
	return concert, nil
}

type CreateUserInput struct {
	Email string
	Name  string
}

func (s *TicketService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	user, err := s.createUser(ctx, in)
	s.Logger.Audit("create_user", strings.TrimSpace(in.Email), err)
	return user, err
}

func (s *TicketService) createUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", models.ErrValidation)
	}
	// "Name <addr>" forms register the bare address.
	email := strings.ToLower(addr.Address)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: s.now(),
	}
	err = s.DB.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.DB.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrDuplicateEmail
		}
		return s.DB.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ---------------- TICKETS ----------------

// ReserveTicket takes one unit of the concert's inventory and binds a new
// ticket to the user, all in one transaction.
func (s *TicketService) ReserveTicket(ctx context.Context, concertID, userID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.DB.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.DB.GetConcertByID(ctx, concertID); err != nil {
			return err
		}
		if _, err := s.DB.GetUserByID(ctx, userID); err != nil {
			return err
		}
		if err := s.Ledger.Decrement(ctx, concertID); err != nil {
			return err
		}

		ticket = lifecycle.Reserve(concertID, userID, s.now())
		if err := s.DB.CreateTicket(ctx, &ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		return s.DB.IncrementTicketCount(ctx, concertID, ticket.ReservedAt)
	})
	s.Logger.Audit("reserve_ticket", fmt.Sprintf("concert=%s user=%s", concertID, userID), err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.TicketReserved, ticket)
	return &ticket, nil
}

func (s *TicketService) PurchaseTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, lifecycle.OpPurchase)
}

// CancelTicket returns a reserved or purchased ticket to the pool and its
// unit to the concert's inventory.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, lifecycle.OpCancel)
}

func (s *TicketService) UseTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, lifecycle.OpUse)
}

func (s *TicketService) transition(ctx context.Context, ticketID string, op lifecycle.Operation) (*models.Ticket, error) {
	var ticket *models.Ticket
	err := s.withTicketLock(ctx, ticketID, func() error {
		return s.DB.RunInTx(ctx, func(ctx context.Context) error {
			t, err := s.DB.GetTicketByID(ctx, ticketID)
			if err != nil {
				return err
			}

			from := t.Status
			if err := lifecycle.Apply(t, op, s.now()); err != nil {
				return err
			}
			ok, err := s.DB.UpdateTicketStatus(ctx, t, from)
			if err != nil {
				return fmt.Errorf("failed to update ticket: %w", err)
			}
			if !ok {
				return models.ErrConcurrentUpdate
			}

			if lifecycle.Releases(op) {
				if err := s.Ledger.Increment(ctx, t.ConcertID); err != nil {
					return err
				}
			}
			ticket = t
			return nil
		})
	})
	s.Logger.Audit(string(op)+"_ticket", ticketID, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, lifecycle.Event(op), *ticket)
	return ticket, nil
}

func (s *TicketService) withTicketLock(ctx context.Context, ticketID string, fn func() error) error {
	if s.Locker == nil {
		return fn()
	}

	owner := uuid.New().String()
	locked, err := s.Locker.LockTicket(ctx, ticketID, owner)
	if err != nil {
		return fmt.Errorf("failed to lock ticket: %w", err)
	}
	if !locked {
		return models.ErrTicketBusy
	}
	s.Logger.Debug("REDIS", fmt.Sprintf("Locked ticket %s for %s", ticketID, owner))
	defer func() {
		if err := s.Locker.UnlockTicket(ctx, ticketID, owner); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Failed to unlock ticket %s: %v", ticketID, err))
		}
	}()
	return fn()
}

func (s *TicketService) publish(ctx context.Context, eventType models.TicketEventType, ticket models.Ticket) {
	s.Logger.LogTicket(string(eventType), ticket.ID, fmt.Sprintf("status=%s concert=%s", ticket.Status, ticket.ConcertID))
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishTicketEvent(ctx, models.NewTicketEvent(eventType, ticket, s.now())); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s event for ticket %s: %v", eventType, ticket.ID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", string(eventType), "ticket "+ticket.ID)
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.DB.GetTicketByID(ctx, ticketID)
}

// TicketQR renders the QR code presented at the venue. Only purchased
// tickets have one.
func (s *TicketService) TicketQR(ctx context.Context, ticketID string, size int) ([]byte, error) {
	if s.QR == nil {
		return nil, fmt.Errorf("qr generator not configured")
	}
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case models.TicketStatusPurchased:
	case models.TicketStatusUsed:
		return nil, models.ErrTicketUsed
	default:
		return nil, models.ErrNotPurchased
	}
	return s.QR.GenerateEncryptedQR(*ticket, size)
}

// ---------------- QUERIES ----------------

// ListTicketsByUser returns the tickets currently held by a user.
func (s *TicketService) ListTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	if _, err := s.DB.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.DB.GetTicketsByUser(ctx, userID)
}

// ListTicketsByConcert returns a concert's tickets, optionally only those in
// status. An empty status lists all of them.
func (s *TicketService) ListTicketsByConcert(ctx context.Context, concertID string, status models.TicketStatus) ([]models.Ticket, error) {
	if _, err := s.DB.GetConcertByID(ctx, concertID); err != nil {
		return nil, err
	}
	all, err := s.DB.GetTicketsByConcert(ctx, concertID)
	if err != nil || status == "" {
		return all, err
	}

	filtered := make([]models.Ticket, 0, len(all))
	for _, t := range all {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// ListConcerts returns the public projection of every concert.
func (s *TicketService) ListConcerts(ctx context.Context) ([]models.ConcertSummary, error) {
	concerts, err := s.DB.ListConcerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}

	summaries := make([]models.ConcertSummary, 0, len(concerts))
	for _, c := range concerts {
		summaries = append(summaries, c.Summary())
	}
	return summaries, nil
}
