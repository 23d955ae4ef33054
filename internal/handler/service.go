package handler

import (
	"context"

	"github.com/amits-library/library-service/internal/model"
	"github.com/amits-library/library-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) ([]model.Book, int, error)
	ListAvailableBooks(ctx context.Context) ([]model.Book, error)
	UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

type LendingService interface {
	CreateBorrow(ctx context.Context, req model.CreateBorrowRequest) (model.Borrow, error)
	GetBorrow(ctx context.Context, id string) (model.Borrow, error)
	ListBorrows(ctx context.Context, filter model.BorrowFilter, page, limit int) ([]model.Borrow, int, error)
	ReturnBorrow(ctx context.Context, id string) (model.Borrow, error)
	DeleteBorrow(ctx context.Context, id string) error
	ListOverdue(ctx context.Context) ([]model.Borrow, error)
	Summary(ctx context.Context) ([]model.BorrowSummary, error)
}

var _ BookService = (*service.InventoryService)(nil)
var _ LendingService = (*service.LendingService)(nil)
