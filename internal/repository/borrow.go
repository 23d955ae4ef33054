package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amits-library/library-service/internal/errs"
	"github.com/amits-library/library-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=borrow.go -destination=mocks/borrow.go

type BorrowRepository interface {
	Create(ctx context.Context, req model.CreateBorrowRequest) (model.Borrow, error)
	Get(ctx context.Context, id string) (model.Borrow, error)
	List(ctx context.Context, filter model.BorrowFilter, page, limit int) ([]model.Borrow, int, error)
	Return(ctx context.Context, id string, returnedAt time.Time) (model.Borrow, error)
	Delete(ctx context.Context, id string) error
	ListOverdue(ctx context.Context) ([]model.Borrow, error)
	Summary(ctx context.Context) ([]model.BorrowSummary, error)
}

type borrowRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBorrowRepository(db *sqlx.DB, log *zap.Logger) (*borrowRepository, error) {
	return &borrowRepository{
		db:  db,
		log: log.Named("borrow-repo"),
	}, nil
}

// statusExpr settles the lazy active -> overdue transition at read time, so
// stored rows never need a background sweep.
const statusExpr = `case when b.status = 'active' and b.due_date < now() then 'overdue' else b.status end`

var borrowColumns = []string{
	"b.id", "b.book_id", "b.quantity", "b.due_date",
	statusExpr + " as status",
	"b.returned_date", "b.created_at", "b.updated_at",
}

var borrowJoinedColumns = append(append([]string{}, borrowColumns...),
	"bk.title as book_title", "bk.author as book_author", "bk.isbn as book_isbn")

type borrowRow struct {
	model.Borrow
	RefTitle  sql.NullString `db:"book_title"`
	RefAuthor sql.NullString `db:"book_author"`
	RefISBN   sql.NullString `db:"book_isbn"`
}

func (row borrowRow) toBorrow() model.Borrow {
	b := row.Borrow
	if row.RefTitle.Valid {
		b.Book = &model.BookRef{
			ID:     b.BookID,
			Title:  row.RefTitle.String,
			Author: row.RefAuthor.String,
			ISBN:   row.RefISBN.String,
		}
	}
	return b
}

// Create inserts the borrow row and takes the copies off the shelf in a single
// transaction. The decrement is a conditional update, so two concurrent
// borrows of the same book cannot oversell it.
func (r *borrowRepository) Create(ctx context.Context, req model.CreateBorrowRequest) (model.Borrow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrow{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	const decrement = `
update books
    set copies = copies - $2, available = copies - $2 > 0, updated_at = now()
where id = $1 and available and copies >= $2`

	res, err := tx.ExecContext(ctx, decrement, req.BookID, req.Quantity)
	if err != nil {
		return model.Borrow{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Borrow{}, err
	}
	if affected == 0 {
		var copies int
		if err := tx.GetContext(ctx, &copies, `select copies from books where id = $1`, req.BookID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.Borrow{}, errs.ErrBookNotFound
			}
			return model.Borrow{}, err
		}
		return model.Borrow{}, &errs.InvalidQuantityError{Requested: req.Quantity, Available: copies}
	}

	query, args, err := qb.Insert(borrowsTableName).
		Columns("id", "book_id", "quantity", "due_date", "status").
		Values(uuid.New(), req.BookID, req.Quantity, req.DueDate, model.StatusActive).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Borrow{}, err
	}

	var borrow model.Borrow
	if err := tx.GetContext(ctx, &borrow, query, args...); err != nil {
		r.log.Error("Create", zap.String("q", query), zap.Any("args", args))
		return model.Borrow{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Borrow{}, err
	}
	return borrow, nil
}

func (r *borrowRepository) Get(ctx context.Context, id string) (model.Borrow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := qb.Select(borrowJoinedColumns...).
		From(borrowsTableName + " b").
		LeftJoin(booksTableName + " bk on bk.id = b.book_id").
		Where(sq.Eq{"b.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Borrow{}, err
	}

	var row borrowRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrow{}, errs.ErrBorrowNotFound
		}
		return model.Borrow{}, err
	}
	return row.toBorrow(), nil
}

func (r *borrowRepository) List(ctx context.Context, filter model.BorrowFilter, page, limit int) ([]model.Borrow, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := sq.And{}
	if filter.Status != "" {
		where = append(where, sq.Expr(statusExpr+" = ?", filter.Status))
	}
	if filter.BookID != "" {
		where = append(where, sq.Eq{"b.book_id": filter.BookID})
	}

	q := qb.Select(borrowJoinedColumns...).
		From(borrowsTableName + " b").
		LeftJoin(booksTableName + " bk on bk.id = b.book_id").
		OrderBy("b.created_at desc").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))
	countq := qb.Select("count(*)").From(borrowsTableName + " b")
	if len(where) > 0 {
		q = q.Where(where)
		countq = countq.Where(where)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	countQuery, countArgs, err := countq.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var (
		rows  []borrowRow
		total int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.SelectContext(gCtx, &rows, query, args...)
	})
	g.Go(func() error {
		return r.db.GetContext(gCtx, &total, countQuery, countArgs...)
	})
	if err := g.Wait(); err != nil {
		r.log.Error("List", zap.String("q", query), zap.Any("args", args))
		return nil, 0, err
	}

	borrows := make([]model.Borrow, 0, len(rows))
	for _, row := range rows {
		borrows = append(borrows, row.toBorrow())
	}
	return borrows, total, nil
}

// Return marks the borrow returned. Returned is terminal: the guard refuses
// rows already in that state.
func (r *borrowRepository) Return(ctx context.Context, id string, returnedAt time.Time) (model.Borrow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := `
update borrows
    set status = 'returned', returned_date = $2, updated_at = now()
where id = $1 and status <> 'returned'
returning *`

	var borrow model.Borrow
	if err := r.db.GetContext(ctx, &borrow, q, id, returnedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrow{}, errs.ErrAlreadyReturned
		}
		return model.Borrow{}, err
	}
	return borrow, nil
}

func (r *borrowRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := qb.Delete(borrowsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrBorrowNotFound
	}
	return nil
}

func (r *borrowRepository) ListOverdue(ctx context.Context) ([]model.Borrow, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := qb.Select(borrowJoinedColumns...).
		From(borrowsTableName + " b").
		LeftJoin(booksTableName + " bk on bk.id = b.book_id").
		Where(sq.Expr(`b.status in ('active', 'overdue')`)).
		Where(sq.Expr(`b.due_date < now()`)).
		OrderBy("b.due_date asc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []borrowRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	borrows := make([]model.Borrow, 0, len(rows))
	for _, row := range rows {
		borrows = append(borrows, row.toBorrow())
	}
	return borrows, nil
}

// Summary aggregates the whole borrow history per book. Borrows whose book has
// been deleted drop out of the join, matching the lookup+unwind of the
// original aggregation.
func (r *borrowRepository) Summary(ctx context.Context) ([]model.BorrowSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const q = `
	select b.book_id, bk.title as book_title, bk.isbn,
	       coalesce(sum(b.quantity), 0) as total_quantity_borrowed,
	       coalesce(sum(b.quantity) filter (where b.status = 'active' and b.due_date >= now()), 0) as active_borrows,
	       coalesce(sum(b.quantity) filter (where b.status = 'overdue' or (b.status = 'active' and b.due_date < now())), 0) as overdue_borrows
	from borrows b
	join books bk on bk.id = b.book_id
	group by b.book_id, bk.title, bk.isbn
	order by total_quantity_borrowed desc
`
	var summary []model.BorrowSummary
	if err := r.db.SelectContext(ctx, &summary, q); err != nil {
		return nil, err
	}
	return summary, nil
}
