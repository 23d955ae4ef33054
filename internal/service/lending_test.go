package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amits-library/library-service/internal/errs"
	"github.com/amits-library/library-service/internal/model"
	repo_mocks "github.com/amits-library/library-service/internal/repository/mocks"
	"github.com/amits-library/library-service/internal/service"
)

func newLendingService(t *testing.T) (*repo_mocks.MockBookRepository, *repo_mocks.MockBorrowRepository, *service.LendingService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	bookRepo := repo_mocks.NewMockBookRepository(c)
	borrowRepo := repo_mocks.NewMockBorrowRepository(c)
	log := zap.NewExample().Named("test")
	inventory := service.NewInventoryService(bookRepo, log)
	lending := service.NewLendingService(borrowRepo, inventory, log)
	return bookRepo, borrowRepo, lending
}

func testBook(copies int) model.Book {
	b := model.Book{
		ID:     "b1",
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "9780441172719",
		Copies: copies,
	}
	b.Recompute()
	return b
}

func TestLendingService_CreateBorrow(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(14 * 24 * time.Hour)

	t.Run("ok", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		req := model.CreateBorrowRequest{BookID: "b1", Quantity: 2, DueDate: future}

		bookRepo.EXPECT().Get(ctx, "b1").Return(testBook(3), nil)
		borrowRepo.EXPECT().Create(ctx, req).Return(model.Borrow{
			ID:       "br1",
			BookID:   "b1",
			Quantity: 2,
			DueDate:  future,
			Status:   model.StatusActive,
		}, nil)

		borrow, err := lending.CreateBorrow(ctx, req)
		require.NoError(t, err)
		require.Equal(t, model.StatusActive, borrow.Status)
		require.NotNil(t, borrow.Book)
		require.Equal(t, "Dune", borrow.Book.Title)
		require.False(t, borrow.IsOverdue)
	})

	t.Run("book not found", func(t *testing.T) {
		bookRepo, _, lending := newLendingService(t)
		bookRepo.EXPECT().Get(ctx, "missing").Return(model.Book{}, errs.ErrBookNotFound)

		_, err := lending.CreateBorrow(ctx, model.CreateBorrowRequest{BookID: "missing", Quantity: 1, DueDate: future})
		require.ErrorIs(t, err, errs.ErrBookNotFound)
	})

	t.Run("due date in the past fails before any write", func(t *testing.T) {
		bookRepo, _, lending := newLendingService(t)
		bookRepo.EXPECT().Get(ctx, "b1").Return(testBook(3), nil)
		// no borrowRepo.Create expectation: a past due date must not reach
		// the persistence layer

		_, err := lending.CreateBorrow(ctx, model.CreateBorrowRequest{
			BookID:   "b1",
			Quantity: 1,
			DueDate:  time.Now().Add(-time.Hour),
		})
		require.ErrorIs(t, err, errs.ErrInvalidDueDate)
	})

	t.Run("quantity exceeds available copies", func(t *testing.T) {
		bookRepo, _, lending := newLendingService(t)
		bookRepo.EXPECT().Get(ctx, "b1").Return(testBook(1), nil)

		_, err := lending.CreateBorrow(ctx, model.CreateBorrowRequest{BookID: "b1", Quantity: 2, DueDate: future})

		var qErr *errs.InvalidQuantityError
		require.ErrorAs(t, err, &qErr)
		require.Equal(t, "Cannot borrow 2 copies. Only 1 copies available.", qErr.Error())
	})

	t.Run("unavailable book cannot be borrowed", func(t *testing.T) {
		bookRepo, _, lending := newLendingService(t)
		bookRepo.EXPECT().Get(ctx, "b1").Return(testBook(0), nil)

		_, err := lending.CreateBorrow(ctx, model.CreateBorrowRequest{BookID: "b1", Quantity: 1, DueDate: future})

		var qErr *errs.InvalidQuantityError
		require.ErrorAs(t, err, &qErr)
		require.Equal(t, 0, qErr.Available)
	})
}

func TestLendingService_ReturnBorrow(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 2, Status: model.StatusActive,
			DueDate: time.Now().Add(time.Hour),
		}, nil)
		returnedAt := time.Now()
		borrowRepo.EXPECT().Return(ctx, "br1", gomock.Any()).Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 2, Status: model.StatusReturned,
			ReturnedDate: &returnedAt,
		}, nil)
		bookRepo.EXPECT().ReturnCopies(ctx, "b1", 2).Return(testBook(5), nil)

		borrow, err := lending.ReturnBorrow(ctx, "br1")
		require.NoError(t, err)
		require.Equal(t, model.StatusReturned, borrow.Status)
		require.NotNil(t, borrow.ReturnedDate)
		require.Zero(t, borrow.DaysRemaining)
	})

	t.Run("already returned", func(t *testing.T) {
		_, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", Status: model.StatusReturned,
		}, nil)

		_, err := lending.ReturnBorrow(ctx, "br1")
		require.ErrorIs(t, err, errs.ErrAlreadyReturned)
	})

	t.Run("missing book: restock skipped, return still succeeds", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "gone", Quantity: 1, Status: model.StatusActive,
			DueDate: time.Now().Add(time.Hour),
		}, nil)
		borrowRepo.EXPECT().Return(ctx, "br1", gomock.Any()).Return(model.Borrow{
			ID: "br1", BookID: "gone", Quantity: 1, Status: model.StatusReturned,
		}, nil)
		bookRepo.EXPECT().ReturnCopies(ctx, "gone", 1).Return(model.Book{}, errs.ErrBookNotFound)

		borrow, err := lending.ReturnBorrow(ctx, "br1")
		require.NoError(t, err)
		require.Equal(t, model.StatusReturned, borrow.Status)
	})

	t.Run("restock failure surfaces", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 1, Status: model.StatusActive,
			DueDate: time.Now().Add(time.Hour),
		}, nil)
		borrowRepo.EXPECT().Return(ctx, "br1", gomock.Any()).Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 1, Status: model.StatusReturned,
		}, nil)
		bookRepo.EXPECT().ReturnCopies(ctx, "b1", 1).Return(model.Book{}, errors.New("db down"))

		_, err := lending.ReturnBorrow(ctx, "br1")
		require.Error(t, err)
	})
}

func TestLendingService_DeleteBorrow(t *testing.T) {
	ctx := context.Background()

	t.Run("active borrow restocks before delete", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 3, Status: model.StatusActive,
			DueDate: time.Now().Add(time.Hour),
		}, nil)
		bookRepo.EXPECT().ReturnCopies(ctx, "b1", 3).Return(testBook(3), nil)
		borrowRepo.EXPECT().Delete(ctx, "br1").Return(nil)

		require.NoError(t, lending.DeleteBorrow(ctx, "br1"))
	})

	t.Run("returned borrow deletes without restock", func(t *testing.T) {
		_, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "b1", Quantity: 3, Status: model.StatusReturned,
		}, nil)
		borrowRepo.EXPECT().Delete(ctx, "br1").Return(nil)

		require.NoError(t, lending.DeleteBorrow(ctx, "br1"))
	})

	t.Run("missing book: restock skipped, delete proceeds", func(t *testing.T) {
		bookRepo, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "br1").Return(model.Borrow{
			ID: "br1", BookID: "gone", Quantity: 1, Status: model.StatusOverdue,
			DueDate: time.Now().Add(-time.Hour),
		}, nil)
		bookRepo.EXPECT().ReturnCopies(ctx, "gone", 1).Return(model.Book{}, errs.ErrBookNotFound)
		borrowRepo.EXPECT().Delete(ctx, "br1").Return(nil)

		require.NoError(t, lending.DeleteBorrow(ctx, "br1"))
	})

	t.Run("not found", func(t *testing.T) {
		_, borrowRepo, lending := newLendingService(t)
		borrowRepo.EXPECT().Get(ctx, "missing").Return(model.Borrow{}, errs.ErrBorrowNotFound)

		require.ErrorIs(t, lending.DeleteBorrow(ctx, "missing"), errs.ErrBorrowNotFound)
	})
}

func TestLendingService_ListBorrows(t *testing.T) {
	ctx := context.Background()
	_, borrowRepo, lending := newLendingService(t)

	pastDue := time.Now().Add(-48 * time.Hour)
	borrowRepo.EXPECT().
		List(ctx, model.BorrowFilter{}, 1, 10).
		Return([]model.Borrow{
			{ID: "br1", Status: model.StatusActive, DueDate: pastDue},
			{ID: "br2", Status: model.StatusReturned, DueDate: pastDue},
		}, 2, nil)

	borrows, total, err := lending.ListBorrows(ctx, model.BorrowFilter{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	// lazy transition: an active borrow past its due date reads as overdue
	require.Equal(t, model.StatusOverdue, borrows[0].Status)
	require.True(t, borrows[0].IsOverdue)
	// returned is terminal
	require.Equal(t, model.StatusReturned, borrows[1].Status)
	require.False(t, borrows[1].IsOverdue)
}
