package model

import (
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
)

type Book struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Genre       string    `json:"genre" db:"genre"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Description string    `json:"description" db:"description"`
	Copies      int       `json:"copies" db:"copies"`
	Available   bool      `json:"available" db:"available"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// AvailableCopies mirrors Copies: the schema does not track a separate
	// on-loan subset count.
	AvailableCopies int `json:"availableCopies" db:"-"`
}

// CanBorrow reports whether quantity copies can be taken off the shelf.
func (b Book) CanBorrow(quantity int) bool {
	return b.Available && b.Copies >= quantity
}

// Recompute derives the maintained fields from Copies. Available is a
// denormalization kept for query filtering, never a source of truth.
func (b *Book) Recompute() {
	b.Available = b.Copies > 0
	b.AvailableCopies = b.Copies
}

// BookRef is the slim book projection joined onto borrow listings.
type BookRef struct {
	ID     string `json:"id" db:"book_id"`
	Title  string `json:"title" db:"book_title"`
	Author string `json:"author" db:"book_author"`
	ISBN   string `json:"isbn" db:"book_isbn"`
}

type Borrow struct {
	ID           string     `json:"id" db:"id"`
	BookID       string     `json:"bookId" db:"book_id"`
	Quantity     int        `json:"quantity" db:"quantity"`
	DueDate      time.Time  `json:"dueDate" db:"due_date"`
	Status       Status     `json:"status" db:"status"`
	ReturnedDate *time.Time `json:"returnedDate" db:"returned_date"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`

	Book *BookRef `json:"book,omitempty" db:"-"`

	IsOverdue     bool `json:"isOverdue" db:"-"`
	DaysRemaining int  `json:"daysRemaining" db:"-"`
}

// EffectiveStatus applies the lazy active -> overdue transition at read time.
// Returned is terminal.
func (b Borrow) EffectiveStatus(now time.Time) Status {
	if b.Status == StatusActive && now.After(b.DueDate) {
		return StatusOverdue
	}
	return b.Status
}

// Overdue reports whether the borrow is past due and not yet returned.
func (b Borrow) Overdue(now time.Time) bool {
	if b.Status == StatusReturned {
		return false
	}
	return now.After(b.DueDate)
}

// RemainingDays is the number of days until the due date, rounded up.
// Zero once returned, negative when past due.
func (b Borrow) RemainingDays(now time.Time) int {
	if b.Status == StatusReturned {
		return 0
	}
	const day = 24 * time.Hour
	diff := b.DueDate.Sub(now)
	days := int(diff / day)
	if diff%day > 0 {
		days++
	}
	return days
}

// Refresh settles the derived presentation fields against now.
func (b *Borrow) Refresh(now time.Time) {
	b.Status = b.EffectiveStatus(now)
	b.IsOverdue = b.Overdue(now)
	b.DaysRemaining = b.RemainingDays(now)
}

// BorrowSummary is the per-book aggregate over the whole borrow history.
// Computed on demand, never persisted.
type BorrowSummary struct {
	BookID                string `json:"bookId" db:"book_id"`
	BookTitle             string `json:"bookTitle" db:"book_title"`
	ISBN                  string `json:"isbn" db:"isbn"`
	TotalQuantityBorrowed int    `json:"totalQuantityBorrowed" db:"total_quantity_borrowed"`
	ActiveBorrows         int    `json:"activeBorrows" db:"active_borrows"`
	OverdueBorrows        int    `json:"overdueBorrows" db:"overdue_borrows"`
}

type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Author      string `json:"author" validate:"required,max=100"`
	Genre       string `json:"genre" validate:"required,max=50"`
	ISBN        string `json:"isbn" validate:"required"`
	Description string `json:"description" validate:"required,max=1000"`
	Copies      *int   `json:"copies" validate:"required,gte=0"`
}

// UpdateBookRequest carries a partial book patch. Nil fields are left as is.
type UpdateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Author      *string `json:"author" validate:"omitempty,max=100"`
	Genre       *string `json:"genre" validate:"omitempty,max=50"`
	ISBN        *string `json:"isbn" validate:"omitempty"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Copies      *int    `json:"copies" validate:"omitempty,gte=0"`
}

type CreateBorrowRequest struct {
	BookID   string    `json:"bookId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1,lte=100"`
	DueDate  time.Time `json:"dueDate" validate:"required"`
}

// BookFilter narrows book listings.
type BookFilter struct {
	Genre     string
	Available *bool
	Search    string
}

// BorrowFilter narrows borrow listings.
type BorrowFilter struct {
	Status Status
	BookID string
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
