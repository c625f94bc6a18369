package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	ListCalendar(ctx context.Context, filter CalendarFilter) ([]*Booking, error)
	Update(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id string) error

	// HasConflict reports whether another booking on the resource, in one of
	// the given statuses, overlaps [Start, End).
	HasConflict(ctx context.Context, q ConflictQuery) (bool, error)

	// WithResourceLock runs fn in a transaction holding an exclusive lock
	// scoped to resourceID. The Repository passed to fn is bound to that
	// transaction; the transaction commits when fn returns nil.
	WithResourceLock(ctx context.Context, resourceID string, fn func(repo Repository) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, db: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.user_id", "u.name", "b.resource_id", "r.name",
	"b.start_time", "b.end_time", "b.purpose", "b.status", "b.reject_reason",
	"b.created_at", "b.updated_at",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(append([]string{}, bookingColumns...), extra...)...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.users u ON b.user_id = u.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.UserID, &b.UserName, &b.ResourceID, &b.ResourceName,
		&b.StartTime, &b.EndTime, &b.Purpose, &b.Status, &b.RejectReason,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

// mapWriteError turns the overlap exclusion constraint into ErrTimeConflict.
func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
		return ErrTimeConflict
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns("user_id", "resource_id", "start_time", "end_time", "purpose", "status", "reject_reason").
		Values(b.UserID, b.ResourceID, b.StartTime, b.EndTime, b.Purpose, b.Status, b.RejectReason).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return mapWriteError(err, "create booking")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() as total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"b.end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"b.start_time": *filter.To})
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	sql, args, err := query.
		OrderBy("b.start_time DESC", "b.id").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) ListCalendar(ctx context.Context, filter CalendarFilter) ([]*Booking, error) {
	sql, args, err := selectBookings().
		Where(squirrel.Eq{"b.status": filter.Status}).
		Where(squirrel.GtOrEq{"b.end_time": filter.From}).
		Where(squirrel.LtOrEq{"b.start_time": filter.To}).
		OrderBy("b.start_time ASC", "b.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build calendar query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calendar failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("purpose", b.Purpose).
		Set("status", b.Status).
		Set("reject_reason", b.RejectReason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err, "update booking")
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasConflict(ctx context.Context, q ConflictQuery) (bool, error) {
	sql, args, err := conflictQuery(q)
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

// conflictQuery builds the EXISTS probe behind HasConflict.
func conflictQuery(q ConflictQuery) (string, []any, error) {
	// Half-open overlap: existing.start < new.end AND new.start < existing.end
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": q.ResourceID}).
		Where(squirrel.Eq{"status": q.Statuses}).
		Where(squirrel.Lt{"start_time": q.End}).
		Where(squirrel.Gt{"end_time": q.Start})

	if q.ExcludeID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": q.ExcludeID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "SELECT EXISTS (" + sql + ")", args, nil
}

// resourceLockSQL takes a transaction-scoped lock keyed by the resource id.
const resourceLockSQL = "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))"

func (r *pgxRepository) WithResourceLock(ctx context.Context, resourceID string, fn func(repo Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, resourceLockSQL, resourceID); err != nil {
			return fmt.Errorf("acquire resource lock failed: %w", err)
		}
		return fn(&pgxRepository{pool: r.pool, db: tx, inTx: true})
	})
}
