package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amits-library/library-service/internal/errs"
	"github.com/amits-library/library-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=book.go -destination=mocks/book.go

type BookRepository interface {
	Create(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	Get(ctx context.Context, id string) (model.Book, error)
	List(ctx context.Context, filter model.BookFilter, page, limit int) ([]model.Book, int, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	Delete(ctx context.Context, id string) error
	ReturnCopies(ctx context.Context, id string, quantity int) (model.Book, error)
}

type bookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) (*bookRepository, error) {
	return &bookRepository{
		db:  db,
		log: log.Named("book-repo"),
	}, nil
}

const (
	booksTableName   = `books`
	borrowsTableName = `borrows`

	queryTimeout = 5 * time.Second
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{"id", "title", "author", "genre", "isbn", "description", "copies", "available", "created_at", "updated_at"}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *bookRepository) Create(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	copies := 1
	if req.Copies != nil {
		copies = *req.Copies
	}
	query, args, err := qb.Insert(booksTableName).
		Columns("id", "title", "author", "genre", "isbn", "description", "copies", "available").
		Values(uuid.New(), req.Title, req.Author, req.Genre, req.ISBN, req.Description, copies, copies > 0).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		r.log.Error("Create", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	book.Recompute()
	return book, nil
}

func (r *bookRepository) Get(ctx context.Context, id string) (model.Book, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	book.Recompute()
	return book, nil
}

func (r *bookRepository) bookFilter(filter model.BookFilter) sq.And {
	where := sq.And{}
	if filter.Genre != "" {
		where = append(where, sq.Eq{"genre": filter.Genre})
	}
	if filter.Available != nil {
		where = append(where, sq.Eq{"available": *filter.Available})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"author": pattern},
			sq.ILike{"isbn": pattern},
		})
	}
	return where
}

func (r *bookRepository) List(ctx context.Context, filter model.BookFilter, page, limit int) ([]model.Book, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := r.bookFilter(filter)

	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		OrderBy("created_at desc").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	countQuery, countArgs, err := qb.Select("count(*)").
		From(booksTableName).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var (
		books []model.Book
		total int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.db.SelectContext(gCtx, &books, query, args...)
	})
	g.Go(func() error {
		return r.db.GetContext(gCtx, &total, countQuery, countArgs...)
	})
	if err := g.Wait(); err != nil {
		r.log.Error("List", zap.String("q", query), zap.Any("args", args))
		return nil, 0, err
	}

	for i := range books {
		books[i].Recompute()
	}
	return books, total, nil
}

func (r *bookRepository) ListAvailable(ctx context.Context) ([]model.Book, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"available": true}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Recompute()
	}
	return books, nil
}

func (r *bookRepository) Update(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := map[string]interface{}{
		"updated_at": sq.Expr("now()"),
	}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Author != nil {
		set["author"] = *req.Author
	}
	if req.Genre != nil {
		set["genre"] = *req.Genre
	}
	if req.ISBN != nil {
		set["isbn"] = *req.ISBN
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Copies != nil {
		set["copies"] = *req.Copies
		set["available"] = *req.Copies > 0
	}

	query, args, err := qb.Update(booksTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, err
	}
	book.Recompute()
	return book, nil
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// unconditional: outstanding borrows do not block deletion
	query, args, err := qb.Delete(booksTableName).
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
		return errs.ErrBookNotFound
	}
	return nil
}

// ReturnCopies restocks quantity copies. Availability is restored
// unconditionally on any return.
func (r *bookRepository) ReturnCopies(ctx context.Context, id string, quantity int) (model.Book, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := `
update books
    set copies = copies + $2, available = true, updated_at = now()
where id = $1
returning *`

	var book model.Book
	if err := r.db.GetContext(ctx, &book, q, id, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	book.Recompute()
	return book, nil
}
