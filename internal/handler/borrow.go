package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/amits-library/library-service/internal/model"
	"github.com/amits-library/library-service/pkg/kafka"
)

func (h *Handler) GetBorrows(c echo.Context) error {
	ctx := c.Request().Context()

	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := model.BorrowFilter{
		BookID: c.QueryParam("book"),
	}
	if statusParam := c.QueryParam("status"); statusParam != "" {
		switch status := model.Status(statusParam); status {
		case model.StatusActive, model.StatusReturned, model.StatusOverdue:
			filter.Status = status
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Status must be active, returned or overdue")
		}
	}

	borrows, total, err := h.lendingSvc.ListBorrows(ctx, filter, page, limit)
	if err != nil {
		return err
	}
	return okPaged(c, borrows, model.NewPagination(page, limit, total))
}

func (h *Handler) GetBorrow(c echo.Context) error {
	borrow, err := h.lendingSvc.GetBorrow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, borrow)
}

func (h *Handler) CreateBorrow(c echo.Context) error {
	var req model.CreateBorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	borrow, err := h.lendingSvc.CreateBorrow(c.Request().Context(), req)
	if err != nil {
		return err
	}
	h.enqueueBorrowEvent(BorrowEventCreated, borrow)
	return created(c, "Book borrowed successfully", borrow)
}

func (h *Handler) ReturnBorrow(c echo.Context) error {
	borrow, err := h.lendingSvc.ReturnBorrow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	h.enqueueBorrowEvent(BorrowEventReturned, borrow)
	return okMessage(c, "Books returned successfully", borrow)
}

func (h *Handler) DeleteBorrow(c echo.Context) error {
	id := c.Param("id")
	borrow, err := h.lendingSvc.GetBorrow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := h.lendingSvc.DeleteBorrow(c.Request().Context(), id); err != nil {
		return err
	}
	h.enqueueBorrowEvent(BorrowEventDeleted, borrow)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Borrow record deleted successfully"})
}

func (h *Handler) GetBorrowSummary(c echo.Context) error {
	summary, err := h.lendingSvc.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *Handler) GetOverdueBorrows(c echo.Context) error {
	borrows, err := h.lendingSvc.ListOverdue(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, borrows)
}

// enqueueBorrowEvent is fire and forget: a broken broker never fails the
// request.
func (h *Handler) enqueueBorrowEvent(event string, borrow model.Borrow) {
	if err := h.enqueuer.Enqueue(kafka.BorrowEventsTopic, NewBorrowEvent(event, borrow)); err != nil {
		h.log.Warn("enqueue borrow event", zap.Error(err), zap.String("event", event))
	}
}
