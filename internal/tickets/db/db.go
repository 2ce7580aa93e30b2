package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-concerts/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

type txKey struct{}

// RunInTx runs fn in a transaction carried on the context. Nested calls join
// the outer transaction.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (d *DB) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return d.Bun
}

// ---------------- CONCERTS ----------------

func (d *DB) CreateConcert(ctx context.Context, concert *models.Concert) error {
	_, err := d.conn(ctx).NewInsert().Model(concert).Exec(ctx)
	return err
}

func (d *DB) GetConcertByID(ctx context.Context, id string) (*models.Concert, error) {
	var concert models.Concert
	err := d.conn(ctx).NewSelect().
		Model(&concert).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrConcertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &concert, nil
}

func (d *DB) ListConcerts(ctx context.Context) ([]models.Concert, error) {
	concerts := make([]models.Concert, 0)
	err := d.conn(ctx).NewSelect().
		Model(&concerts).
		Order("date ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return concerts, nil
}

// DecrementAvailable is an atomic compare-and-decrement on the concert row.
func (d *DB) DecrementAvailable(ctx context.Context, concertID string) (bool, error) {
	res, err := d.conn(ctx).NewUpdate().
		Model((*models.Concert)(nil)).
		Set("available_tickets = available_tickets - 1").
		Where("id = ?", concertID).
		Where("available_tickets > 0").
		Exec(ctx)
	return affected(res, err)
}

// IncrementAvailable returns a unit to the concert, never past its capacity.
func (d *DB) IncrementAvailable(ctx context.Context, concertID string) (bool, error) {
	res, err := d.conn(ctx).NewUpdate().
		Model((*models.Concert)(nil)).
		Set("available_tickets = available_tickets + 1").
		Where("id = ?", concertID).
		Where("available_tickets < total_tickets").
		Exec(ctx)
	return affected(res, err)
}

// ---------------- USERS ----------------

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.conn(ctx).NewInsert().Model(user).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return models.ErrDuplicateEmail
	}
	return err
}

func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.conn(ctx).NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.conn(ctx).NewSelect().
		Model((*models.User)(nil)).
		Where("email = ?", email).
		Exists(ctx)
}

// ---------------- TICKETS ----------------

func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.conn(ctx).NewInsert().Model(ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.conn(ctx).NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateTicketStatus writes the transition fields of ticket only if the
// stored status is still from. It reports false when another request won.
func (d *DB) UpdateTicketStatus(ctx context.Context, ticket *models.Ticket, from models.TicketStatus) (bool, error) {
	res, err := d.conn(ctx).NewUpdate().
		Model(ticket).
		Column("status", "user_id", "purchase_date", "used_at", "cancelled_at").
		Where("id = ?", ticket.ID).
		Where("status = ?", from).
		Exec(ctx)
	return affected(res, err)
}

func (d *DB) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.conn(ctx).NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("reserved_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByConcert(ctx context.Context, concertID string) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.conn(ctx).NewSelect().
		Model(&tickets).
		Where("concert_id = ?", concertID).
		Order("reserved_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
