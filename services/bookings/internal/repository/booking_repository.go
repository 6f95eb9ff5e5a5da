package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/luxsuv-rentals/internal/daterange"
	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

// CapacityGuard inspects the item and its overlapping active bookings inside
// the insert transaction. A non-nil error aborts the insert.
type CapacityGuard func(item *domain.Item, existing []domain.Booking) error

type BookingRepository interface {
	Getter[domain.Booking]
	CreateChecked(ctx context.Context, b *domain.Booking, guard CapacityGuard) (*domain.Booking, error)
	ListOverlapping(ctx context.Context, itemID int64, r daterange.Range) ([]domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
}

// ErrItemNotFound is returned by CreateChecked when the item row is missing.
var ErrItemNotFound = errors.New("item not found")

type bookingRepository struct {
	pool *pgxpool.Pool
}

var _ BookingRepository = (*bookingRepository)(nil)

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, user_id, item_id, start_date, end_date, selected_dates, total_price, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ItemID, &b.StartDate, &b.EndDate, &b.SelectedDates,
		&b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

const overlapQuery = `SELECT ` + bookingCols + ` FROM bookings
	WHERE item_id=$1 AND status <> 'cancelled' AND start_date < $3 AND end_date > $2`

// CreateChecked locks the item row, loads overlapping active bookings, runs
// guard and inserts b in one transaction. Concurrent creators for the same
// item queue on the row lock, so the guard always sees committed bookings.
func (r *bookingRepository) CreateChecked(ctx context.Context, b *domain.Booking, guard CapacityGuard) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemCols+` FROM items WHERE id=$1 FOR UPDATE`, b.ItemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock item: %w", err)
	}

	rows, err := tx.Query(ctx, overlapQuery, b.ItemID, b.StartDate, b.EndDate)
	if err != nil {
		return nil, fmt.Errorf("load overlapping: %w", err)
	}
	existing, err := collectBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("load overlapping: %w", err)
	}

	if err := guard(item, existing); err != nil {
		return nil, err
	}

	var selected []time.Time
	if len(b.SelectedDates) > 0 {
		selected = b.SelectedDates
	}

	created, err := scanBooking(tx.QueryRow(ctx, `INSERT INTO bookings
		(user_id, item_id, start_date, end_date, selected_dates, total_price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+bookingCols,
		b.UserID, b.ItemID, b.StartDate, b.EndDate, selected, b.TotalPrice, b.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListOverlapping(ctx context.Context, itemID int64, rng daterange.Range) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, overlapQuery+` ORDER BY start_date`, itemID, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *bookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var status string
	if f.Status != nil {
		status = string(*f.Status)
	}

	const q = `SELECT ` + bookingCols + ` FROM bookings
	WHERE ($1 = 0 OR user_id = $1)
	  AND ($2 = 0 OR item_id = $2)
	  AND ($3 = '' OR status = $3)
	ORDER BY created_at DESC, id DESC
	LIMIT $4 OFFSET $5`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, f.UserID, f.ItemID, status, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// UpdateStatus moves a booking from one status to another. It returns nil
// when the booking does not exist or is no longer in the from status.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings SET status=$3, updated_at=now() WHERE id=$1 AND status=$2 RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}
