// model/loan.go
package model

import "time"

type LoanStatus string

const (
	LoanOpen   LoanStatus = "OPEN"
	LoanClosed LoanStatus = "CLOSED"
)

// DateLayout is the canonical wire format for loan dates.
const DateLayout = "2006-01-02"

// Loan is one borrowing transaction. Status and ReturnDate move
// together: an open loan has Status OPEN and a nil ReturnDate.
type Loan struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	Status             LoanStatus `json:"status"`
	LoanDate           time.Time  `json:"loan_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ReturnDate         *time.Time `json:"return_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (l *Loan) Open() bool { return l.Status == LoanOpen }

// Close marks the loan returned. Closing a closed loan is a no-op so
// the transition is safe to repeat.
func (l *Loan) Close(at time.Time) {
	if l.Status == LoanClosed {
		return
	}
	l.Status = LoanClosed
	l.ReturnDate = &at
}

// Reopen clears the return date, making the loan outstanding again.
func (l *Loan) Reopen() {
	l.Status = LoanOpen
	l.ReturnDate = nil
}

// LoanBook is a book as rendered inside a loan payload. The
// loaned_books join rows stay behind the repository/join helper.
type LoanBook struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	PublicationYear int         `json:"publication_year"`
	Authors         []AuthorRef `json:"authors"`
}

// LoanDetail is the presentation shape for a loan: resolved user name,
// canonical date strings and the book list with active authors.
type LoanDetail struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	UserName           string     `json:"user_name"`
	UserEmail          string     `json:"-"`
	Status             LoanStatus `json:"status"`
	LoanDate           string     `json:"loan_date"`
	ExpectedReturnDate string     `json:"expected_return_date"`
	ReturnDate         *string    `json:"return_date"`
	Books              []LoanBook `json:"books"`
}

// OverdueLoan is the shape the reminder sweeper works with.
type OverdueLoan struct {
	LoanID             int64
	UserName           string
	UserEmail          string
	ExpectedReturnDate time.Time
}

// Pagination mirrors the list endpoints' paging block.
type Pagination struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// NewPagination computes the paging block for a page slice.
func NewPagination(total int64, page, perPage, count int) *Pagination {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	from := 0
	to := 0
	if count > 0 {
		from = (page-1)*perPage + 1
		to = from + count - 1
	}
	return &Pagination{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    last,
		From:        from,
		To:          to,
	}
}
