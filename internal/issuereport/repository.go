package issuereport

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create stores the report and links its images in one transaction.
	Create(ctx context.Context, r *IssueReport) error
	GetByID(ctx context.Context, id string) (*IssueReport, error)
	List(ctx context.Context, filter Filter) ([]*IssueReport, int, error)
	UpdateStatus(ctx context.Context, r *IssueReport) error
	Delete(ctx context.Context, id string) error
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func selectReports(extra ...string) squirrel.SelectBuilder {
	cols := []string{
		"ir.id", "ir.user_id", "u.name", "ir.resource_id", "r.name",
		"ir.title", "ir.description", "ir.status", "ir.created_at", "ir.updated_at",
		"ARRAY(SELECT i.file_id::text FROM public.issue_report_images i WHERE i.report_id = ir.id ORDER BY i.position) AS image_ids",
	}
	return psql.Select(append(cols, extra...)...).
		From("public.issue_reports ir").
		Join("public.users u ON u.id = ir.user_id").
		Join("public.resources r ON r.id = ir.resource_id")
}

func scanReport(row pgx.Row, extra ...any) (*IssueReport, error) {
	var ir IssueReport
	dest := []any{
		&ir.ID, &ir.UserID, &ir.UserName, &ir.ResourceID, &ir.ResourceName,
		&ir.Title, &ir.Description, &ir.Status, &ir.CreatedAt, &ir.UpdatedAt,
		&ir.ImageIDs,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &ir, nil
}

func (r *pgxRepository) Create(ctx context.Context, ir *IssueReport) error {
	query, args, err := psql.Insert("public.issue_reports").
		Columns("user_id", "resource_id", "title", "description", "status").
		Values(ir.UserID, ir.ResourceID, ir.Title, ir.Description, ir.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create issue report query failed: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, args...).Scan(&ir.ID, &ir.CreatedAt, &ir.UpdatedAt); err != nil {
			return fmt.Errorf("create issue report failed: %w", err)
		}
		if len(ir.ImageIDs) == 0 {
			return nil
		}

		insert := psql.Insert("public.issue_report_images").Columns("report_id", "file_id", "position")
		for i, fileID := range ir.ImageIDs {
			insert = insert.Values(ir.ID, fileID, i)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build link images query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("link issue report images failed: %w", err)
		}
		return nil
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*IssueReport, error) {
	query, args, err := selectReports().Where(squirrel.Eq{"ir.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get issue report query failed: %w", err)
	}

	ir, err := scanReport(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get issue report failed: %w", err)
	}
	return ir, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*IssueReport, int, error) {
	query := selectReports("count(*) OVER() AS total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"ir.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"ir.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"ir.status": filter.Status})
	}

	query = query.OrderBy("ir.created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64((filter.Page - 1) * filter.Limit))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list issue reports query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list issue reports failed: %w", err)
	}
	defer rows.Close()

	var result []*IssueReport
	var total int
	for rows.Next() {
		ir, err := scanReport(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan issue report failed: %w", err)
		}
		result = append(result, ir)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate issue reports failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, ir *IssueReport) error {
	query, args, err := psql.Update("public.issue_reports").
		Set("status", ir.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": ir.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update issue report query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&ir.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update issue report failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.issue_reports").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete issue report query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete issue report failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
