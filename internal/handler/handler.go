package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/amits-library/library-service/internal/errs"
	md "github.com/amits-library/library-service/pkg/middleware"
	"github.com/amits-library/library-service/pkg/validate"
)

type Handler struct {
	bookSvc    BookService
	lendingSvc LendingService
	enqueuer   Enqueuer
	log        *zap.Logger
	devMode    bool
}

func New(bookSvc BookService, lendingSvc LendingService, enqueuer Enqueuer, log *zap.Logger, devMode bool) *Handler {
	h := &Handler{
		bookSvc:    bookSvc,
		lendingSvc: lendingSvc,
		enqueuer:   enqueuer,
		log:        log,
		devMode:    devMode,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.HTTPErrorHandler = h.errorHandler

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/books", h.GetBooks)
	api.GET("/books/available", h.GetAvailableBooks)
	api.GET("/books/:id", h.GetBook)
	api.POST("/books", h.CreateBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.GET("/borrows", h.GetBorrows)
	api.GET("/borrows/summary", h.GetBorrowSummary)
	api.GET("/borrows/overdue", h.GetOverdueBorrows)
	api.GET("/borrows/:id", h.GetBorrow)
	api.POST("/borrows", h.CreateBorrow)
	api.PUT("/borrows/:id/return", h.ReturnBorrow)
	api.DELETE("/borrows/:id", h.DeleteBorrow)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Library Management API is running",
	})
}

// errorHandler maps every error kind to an HTTP status and the response
// envelope. No error is fatal to the process.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		vErrs   *validate.ValidationErrors
		qErr    *errs.InvalidQuantityError
		httpErr *echo.HTTPError
	)

	resp := Response{Success: false}
	code := http.StatusInternalServerError

	switch {
	case errors.As(err, &vErrs):
		code = http.StatusBadRequest
		resp.Message = "Validation errors"
		resp.Errors = vErrs.Fields
	case errors.Is(err, errs.ErrBookNotFound), errors.Is(err, errs.ErrBorrowNotFound):
		code = http.StatusNotFound
		resp.Message = err.Error()
	case errors.As(err, &qErr),
		errors.Is(err, errs.ErrDuplicateISBN),
		errors.Is(err, errs.ErrInvalidDueDate),
		errors.Is(err, errs.ErrAlreadyReturned):
		code = http.StatusBadRequest
		resp.Message = err.Error()
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if code == http.StatusNotFound {
			resp.Message = "Route not found"
		} else {
			resp.Message = messageOf(httpErr)
		}
	default:
		resp.Message = "Something went wrong!"
		if h.devMode {
			resp.Error = err.Error()
		} else {
			resp.Error = "Internal server error"
		}
		h.log.Error("request failed", zap.Error(err))
	}

	if err := c.JSON(code, resp); err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}

func messageOf(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	if inner, ok := httpErr.Message.(error); ok {
		return inner.Error()
	}
	return http.StatusText(httpErr.Code)
}
