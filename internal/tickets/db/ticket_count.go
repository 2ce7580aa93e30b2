package db

import (
	"context"
	"fmt"
	"time"

	"ms-concerts/internal/models"
)

const dayLayout = "2006-01-02"

// GetTotalTicketsCount returns the total count of tickets ever issued
func (d *DB) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return d.conn(ctx).NewSelect().
		Model((*models.Ticket)(nil)).
		Count(ctx)
}

// IncrementTicketCount bumps the reservation count of a concert for the UTC
// day of timestamp, creating the row on first use.
func (d *DB) IncrementTicketCount(ctx context.Context, concertID string, timestamp time.Time) error {
	day := timestamp.UTC().Format(dayLayout)

	for attempt := 0; attempt < 2; attempt++ {
		bumped, err := d.bumpTicketCount(ctx, concertID, day)
		if err != nil || bumped {
			return err
		}

		res, err := d.conn(ctx).NewInsert().
			Model(&models.TicketCount{ConcertID: concertID, Day: day, ReservedCount: 1}).
			On("CONFLICT (concert_id, day) DO NOTHING").
			Returning("NULL").
			Exec(ctx)
		inserted, err := affected(res, err)
		if err != nil || inserted {
			return err
		}
		// Lost the insert race; the row exists now.
	}
	return fmt.Errorf("ticket count for concert %s on %s not recorded", concertID, day)
}

func (d *DB) bumpTicketCount(ctx context.Context, concertID, day string) (bool, error) {
	res, err := d.conn(ctx).NewUpdate().
		Model((*models.TicketCount)(nil)).
		Set("reserved_count = reserved_count + 1").
		Where("concert_id = ?", concertID).
		Where("day = ?", day).
		Exec(ctx)
	return affected(res, err)
}

// GetTicketCountsForConcert returns all daily counts for a concert
func (d *DB) GetTicketCountsForConcert(ctx context.Context, concertID string) ([]models.TicketCount, error) {
	counts := make([]models.TicketCount, 0)
	err := d.conn(ctx).NewSelect().
		Model(&counts).
		Where("concert_id = ?", concertID).
		Order("day ASC").
		Scan(ctx)
	return counts, err
}
