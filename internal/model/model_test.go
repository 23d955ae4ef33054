package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amits-library/library-service/internal/model"
)

func TestBook_Recompute(t *testing.T) {
	tests := []struct {
		name      string
		copies    int
		available bool
	}{
		{name: "copies present", copies: 3, available: true},
		{name: "single copy", copies: 1, available: true},
		{name: "no copies", copies: 0, available: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := model.Book{Copies: tt.copies}
			b.Recompute()
			require.Equal(t, tt.available, b.Available)
			require.Equal(t, tt.copies, b.AvailableCopies)
		})
	}
}

func TestBook_CanBorrow(t *testing.T) {
	b := model.Book{Copies: 2}
	b.Recompute()

	require.True(t, b.CanBorrow(1))
	require.True(t, b.CanBorrow(2))
	require.False(t, b.CanBorrow(3))

	empty := model.Book{Copies: 0}
	empty.Recompute()
	require.False(t, empty.CanBorrow(1))
}

func TestBorrow_EffectiveStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  model.Status
		dueDate time.Time
		want    model.Status
	}{
		{name: "active before due", status: model.StatusActive, dueDate: now.Add(time.Hour), want: model.StatusActive},
		{name: "active past due flips to overdue", status: model.StatusActive, dueDate: now.Add(-time.Minute), want: model.StatusOverdue},
		{name: "active exactly at due stays active", status: model.StatusActive, dueDate: now, want: model.StatusActive},
		{name: "overdue stays overdue", status: model.StatusOverdue, dueDate: now.Add(-time.Hour), want: model.StatusOverdue},
		{name: "returned is terminal even past due", status: model.StatusReturned, dueDate: now.Add(-time.Hour), want: model.StatusReturned},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := model.Borrow{Status: tt.status, DueDate: tt.dueDate}
			require.Equal(t, tt.want, b.EffectiveStatus(now))
		})
	}
}

func TestBorrow_RemainingDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("rounds partial days up", func(t *testing.T) {
		b := model.Borrow{Status: model.StatusActive, DueDate: now.Add(36 * time.Hour)}
		require.Equal(t, 2, b.RemainingDays(now))
	})

	t.Run("whole days", func(t *testing.T) {
		b := model.Borrow{Status: model.StatusActive, DueDate: now.Add(48 * time.Hour)}
		require.Equal(t, 2, b.RemainingDays(now))
	})

	t.Run("past due is negative", func(t *testing.T) {
		b := model.Borrow{Status: model.StatusActive, DueDate: now.Add(-30 * time.Hour)}
		require.Equal(t, -1, b.RemainingDays(now))
	})

	t.Run("returned is zero", func(t *testing.T) {
		b := model.Borrow{Status: model.StatusReturned, DueDate: now.Add(-time.Hour)}
		require.Equal(t, 0, b.RemainingDays(now))
	})
}

func TestBorrow_Refresh(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	b := model.Borrow{Status: model.StatusActive, DueDate: now.Add(-24 * time.Hour)}
	b.Refresh(now)
	require.Equal(t, model.StatusOverdue, b.Status)
	require.True(t, b.IsOverdue)
	require.Equal(t, -1, b.DaysRemaining)

	returned := model.Borrow{Status: model.StatusReturned, DueDate: now.Add(-24 * time.Hour)}
	returned.Refresh(now)
	require.Equal(t, model.StatusReturned, returned.Status)
	require.False(t, returned.IsOverdue)
	require.Zero(t, returned.DaysRemaining)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		want               model.Pagination
	}{
		{
			name: "first of three pages",
			page: 1, limit: 10, total: 25,
			want: model.Pagination{Page: 1, Limit: 10, Total: 25, TotalPages: 3, HasNext: true, HasPrev: false},
		},
		{
			name: "middle page",
			page: 2, limit: 10, total: 25,
			want: model.Pagination{Page: 2, Limit: 10, Total: 25, TotalPages: 3, HasNext: true, HasPrev: true},
		},
		{
			name: "last page",
			page: 3, limit: 10, total: 25,
			want: model.Pagination{Page: 3, Limit: 10, Total: 25, TotalPages: 3, HasNext: false, HasPrev: true},
		},
		{
			name: "empty result",
			page: 1, limit: 10, total: 0,
			want: model.Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0, HasNext: false, HasPrev: false},
		},
		{
			name: "exact fit",
			page: 2, limit: 5, total: 10,
			want: model.Pagination{Page: 2, Limit: 5, Total: 10, TotalPages: 2, HasNext: false, HasPrev: true},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, model.NewPagination(tt.page, tt.limit, tt.total))
		})
	}
}
