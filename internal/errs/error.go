package errs

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound    = errors.New("Book not found")
	ErrBorrowNotFound  = errors.New("Borrow record not found")
	ErrDuplicateISBN   = errors.New("ISBN already exists")
	ErrInvalidDueDate  = errors.New("Due date must be in the future")
	ErrAlreadyReturned = errors.New("Books have already been returned")
)

// InvalidQuantityError reports a borrow request exceeding the copies on hand.
type InvalidQuantityError struct {
	Requested int
	Available int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("Cannot borrow %d copies. Only %d copies available.", e.Requested, e.Available)
}
