package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/luxsuv-rentals/services/bookings/internal/domain"
)

// Getter loads one entity by primary key. Missing rows yield nil, nil.
type Getter[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
}

type ItemRepository interface {
	Getter[domain.Item]
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	List(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error)
	Update(ctx context.Context, item *domain.Item) (*domain.Item, error)
	SetStatus(ctx context.Context, id int64, status domain.ItemStatus) (*domain.Item, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type itemRepository struct {
	pool *pgxpool.Pool
}

var _ ItemRepository = (*itemRepository)(nil)

func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

const itemCols = `id, kind, title, description, price_per_unit, capacity, availability, status, is_deleted, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(
		&it.ID, &it.Kind, &it.Title, &it.Description, &it.PricePerUnit, &it.Capacity,
		&it.Availability, &it.Status, &it.IsDeleted, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	const q = `INSERT INTO items (kind, title, description, price_per_unit, capacity, availability, status)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	RETURNING ` + itemCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanItem(r.pool.QueryRow(ctx, q,
		item.Kind, item.Title, item.Description, item.PricePerUnit, item.Capacity, item.Availability, item.Status,
	))
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	const q = `SELECT ` + itemCols + ` FROM items WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	it, err := scanItem(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (r *itemRepository) List(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `SELECT ` + itemCols + ` FROM items WHERE ($1 = '' OR kind = $1)`
	if !f.IncludeHidden {
		q += ` AND status = 'active' AND NOT is_deleted`
	}
	q += ` ORDER BY id LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, string(f.Kind), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	const q = `UPDATE items SET
		title=$2, description=$3, price_per_unit=$4, capacity=$5, availability=$6, updated_at=now()
	WHERE id=$1 AND NOT is_deleted
	RETURNING ` + itemCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	it, err := scanItem(r.pool.QueryRow(ctx, q,
		item.ID, item.Title, item.Description, item.PricePerUnit, item.Capacity, item.Availability,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (r *itemRepository) SetStatus(ctx context.Context, id int64, status domain.ItemStatus) (*domain.Item, error) {
	const q = `UPDATE items SET status=$2, updated_at=now() WHERE id=$1 AND NOT is_deleted RETURNING ` + itemCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	it, err := scanItem(r.pool.QueryRow(ctx, q, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (r *itemRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE items SET is_deleted=true, updated_at=now() WHERE id=$1 AND NOT is_deleted`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
