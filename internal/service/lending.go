package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/amits-library/library-service/internal/errs"
	"github.com/amits-library/library-service/internal/model"
	"github.com/amits-library/library-service/internal/repository"
)

// LendingService coordinates a borrow's lifecycle with the referenced book's
// inventory.
type LendingService struct {
	log       *zap.Logger
	repo      repository.BorrowRepository
	inventory *InventoryService
}

func NewLendingService(repo repository.BorrowRepository, inventory *InventoryService, log *zap.Logger) *LendingService {
	return &LendingService{
		log:       log,
		repo:      repo,
		inventory: inventory,
	}
}

func (s *LendingService) CreateBorrow(ctx context.Context, req model.CreateBorrowRequest) (model.Borrow, error) {
	book, err := s.inventory.GetBook(ctx, req.BookID)
	if err != nil {
		return model.Borrow{}, err
	}

	// checked before any write happens
	now := time.Now()
	if !req.DueDate.After(now) {
		return model.Borrow{}, errs.ErrInvalidDueDate
	}

	if !s.inventory.CanBorrow(book, req.Quantity) {
		return model.Borrow{}, &errs.InvalidQuantityError{Requested: req.Quantity, Available: book.Copies}
	}

	// insert and decrement run in one transaction with a conditional update,
	// so a concurrent borrow of the last copies fails here instead of
	// overselling
	borrow, err := s.repo.Create(ctx, req)
	if err != nil {
		return model.Borrow{}, err
	}

	borrow.Book = &model.BookRef{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		ISBN:   book.ISBN,
	}
	borrow.Refresh(now)
	return borrow, nil
}

func (s *LendingService) GetBorrow(ctx context.Context, id string) (model.Borrow, error) {
	borrow, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Borrow{}, err
	}
	borrow.Refresh(time.Now())
	return borrow, nil
}

func (s *LendingService) ListBorrows(ctx context.Context, filter model.BorrowFilter, page, limit int) ([]model.Borrow, int, error) {
	borrows, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for i := range borrows {
		borrows[i].Refresh(now)
	}
	return borrows, total, nil
}

// ReturnBorrow marks the borrow returned and restocks the book. A borrow
// whose book has been deleted still returns successfully; only the restock is
// skipped.
func (s *LendingService) ReturnBorrow(ctx context.Context, id string) (model.Borrow, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Borrow{}, err
	}
	if current.Status == model.StatusReturned {
		return model.Borrow{}, errs.ErrAlreadyReturned
	}

	now := time.Now()
	borrow, err := s.repo.Return(ctx, id, now)
	if err != nil {
		return model.Borrow{}, err
	}

	if _, err := s.inventory.ReturnCopies(ctx, borrow.BookID, borrow.Quantity); err != nil {
		if !errors.Is(err, errs.ErrBookNotFound) {
			return model.Borrow{}, err
		}
		s.log.Warn("return: book no longer exists, restock skipped",
			zap.String("borrowId", id), zap.String("bookId", borrow.BookID))
	}

	borrow.Book = current.Book
	borrow.Refresh(now)
	return borrow, nil
}

// DeleteBorrow removes the borrow record. Copies of a not-yet-returned borrow
// are restocked first, with the same missing-book skip as ReturnBorrow.
func (s *LendingService) DeleteBorrow(ctx context.Context, id string) error {
	borrow, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if borrow.Status != model.StatusReturned {
		if _, err := s.inventory.ReturnCopies(ctx, borrow.BookID, borrow.Quantity); err != nil {
			if !errors.Is(err, errs.ErrBookNotFound) {
				return err
			}
			s.log.Warn("delete: book no longer exists, restock skipped",
				zap.String("borrowId", id), zap.String("bookId", borrow.BookID))
		}
	}

	return s.repo.Delete(ctx, id)
}

func (s *LendingService) ListOverdue(ctx context.Context) ([]model.Borrow, error) {
	borrows, err := s.repo.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range borrows {
		borrows[i].Refresh(now)
	}
	return borrows, nil
}

func (s *LendingService) Summary(ctx context.Context) ([]model.BorrowSummary, error) {
	return s.repo.Summary(ctx)
}
