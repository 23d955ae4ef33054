package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/amits-library/library-service/internal/model"
	"github.com/amits-library/library-service/pkg/validate"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	Data       interface{}           `json:"data,omitempty"`
	Error      string                `json:"error,omitempty"`
	Errors     []validate.FieldError `json:"errors,omitempty"`
	Pagination *model.Pagination     `json:"pagination,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func okMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func okPaged(c echo.Context, data interface{}, pagination model.Pagination) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &pagination})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// pageParams parses page/limit query parameters with the API defaults.
func pageParams(c echo.Context) (page, limit int, err error) {
	page, limit = defaultPage, defaultLimit
	if p := c.QueryParam("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Page must be a positive integer")
		}
	}
	if l := c.QueryParam("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Limit must be between 1 and 100")
		}
	}
	return page, limit, nil
}
