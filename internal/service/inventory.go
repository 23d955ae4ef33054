package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/amits-library/library-service/internal/model"
	"github.com/amits-library/library-service/internal/repository"
)

// InventoryService owns the copies/availability invariant of a book:
// available == (copies > 0) after every mutation.
type InventoryService struct {
	log  *zap.Logger
	repo repository.BookRepository
}

func NewInventoryService(repo repository.BookRepository, log *zap.Logger) *InventoryService {
	return &InventoryService{
		log:  log,
		repo: repo,
	}
}

func (s *InventoryService) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.Create(ctx, req)
}

func (s *InventoryService) GetBook(ctx context.Context, id string) (model.Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *InventoryService) ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) ([]model.Book, int, error) {
	return s.repo.List(ctx, filter, page, limit)
}

func (s *InventoryService) ListAvailableBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *InventoryService) UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	return s.repo.Update(ctx, id, req)
}

// DeleteBook removes the book unconditionally. Outstanding borrows keep their
// dangling reference; see LendingService for how returns handle that.
func (s *InventoryService) DeleteBook(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CanBorrow reports whether quantity copies of book can be borrowed.
// Quantity defaults to 1 when zero.
func (s *InventoryService) CanBorrow(book model.Book, quantity int) bool {
	if quantity == 0 {
		quantity = 1
	}
	return book.CanBorrow(quantity)
}

// ReturnCopies restocks quantity copies and restores availability.
func (s *InventoryService) ReturnCopies(ctx context.Context, bookID string, quantity int) (model.Book, error) {
	return s.repo.ReturnCopies(ctx, bookID, quantity)
}
