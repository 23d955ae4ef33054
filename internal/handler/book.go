package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/amits-library/library-service/internal/model"
)

func (h *Handler) GetBooks(c echo.Context) error {
	ctx := c.Request().Context()

	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := model.BookFilter{
		Genre:  c.QueryParam("genre"),
		Search: c.QueryParam("search"),
	}
	if availableParam := c.QueryParam("available"); availableParam != "" {
		available, err := strconv.ParseBool(availableParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Available must be true or false")
		}
		filter.Available = &available
	}

	books, total, err := h.bookSvc.ListBooks(ctx, filter, page, limit)
	if err != nil {
		return err
	}
	return okPaged(c, books, model.NewPagination(page, limit, total))
}

func (h *Handler) GetAvailableBooks(c echo.Context) error {
	books, err := h.bookSvc.ListAvailableBooks(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.bookSvc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, book)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return created(c, "Book created successfully", book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.bookSvc.UpdateBook(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return okMessage(c, "Book updated successfully", book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.bookSvc.DeleteBook(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Book deleted successfully"})
}
