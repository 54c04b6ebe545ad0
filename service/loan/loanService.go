package loansvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deivisson-souza-84lab/libManager/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrUserHasOpenLoan  ErrCode = "USER_HAS_OPEN_LOAN"
	ErrBooksUnavailable ErrCode = "BOOKS_UNAVAILABLE"
	ErrNoBooks          ErrCode = "NO_BOOKS"
	ErrBadDate          ErrCode = "BAD_DATE"
	ErrNotClosed        ErrCode = "NOT_CLOSED"
	ErrLoanClosed       ErrCode = "LOAN_CLOSED"
)

type codedError struct {
	code    ErrCode
	bookIDs []int64
}

func (e codedError) Error() string {
	if len(e.bookIDs) > 0 {
		return fmt.Sprintf("%s: books %v", e.code, e.bookIDs)
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }

func unavailableErr(bookIDs []int64) error {
	return codedError{code: ErrBooksUnavailable, bookIDs: bookIDs}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// UnavailableBookIDs returns the offending ids attached to a
// BOOKS_UNAVAILABLE error, for caller display.
func UnavailableBookIDs(err error) []int64 {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.bookIDs
	}
	return nil
}

// dto

type CreateInput struct {
	UserID             int64
	LoanDate           string
	ExpectedReturnDate string
	BookIDs            []int64
}

type UpdateInput struct {
	ExpectedReturnDate *string
	ReturnDate         *string
	AddBooks           []int64
	RemoveBooks        []int64
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Repo interface {
	UserHasOpenLoan(ctx context.Context, userID int64) (bool, error)
	UnavailableBooks(ctx context.Context, bookIDs []int64, excludeLoanID int64) ([]int64, error)

	Insert(ctx context.Context, tx pgx.Tx, userID int64, loanDate, expectedReturn time.Time) (int64, error)
	UpdateExpectedReturn(ctx context.Context, tx pgx.Tx, loanID int64, expected time.Time) error
	Close(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error
	SetReturnDate(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error
	Reopen(ctx context.Context, tx pgx.Tx, loanID int64) error
	Purge(ctx context.Context, tx pgx.Tx, loanID int64) error

	AttachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error
	DetachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error
	ReleaseAllBooks(ctx context.Context, tx pgx.Tx, loanID int64) error
	BooksHeldAtClose(ctx context.Context, loanID int64) ([]int64, error)

	Find(ctx context.Context, loanID int64) (*model.Loan, error)
	Detail(ctx context.Context, loanID int64, withDeleted bool) (*model.LoanDetail, error)
	List(ctx context.Context, page, perPage int) ([]model.LoanDetail, int64, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error)
}

type Service interface {
	// Create opens a loan for a user over a non-empty set of books.
	Create(ctx context.Context, in CreateInput) (*model.LoanDetail, error)

	// Update patches dates and attaches/detaches books.
	Update(ctx context.Context, loanID int64, in UpdateInput) (*model.LoanDetail, error)

	// Close marks the loan returned and frees its books. Closing an
	// already-closed loan is a no-op.
	Close(ctx context.Context, loanID int64) error

	// Reopen makes a closed loan outstanding again, restoring its
	// book rows if they are still available.
	Reopen(ctx context.Context, loanID int64) (*model.LoanDetail, error)

	// Purge physically removes a closed loan.
	Purge(ctx context.Context, loanID int64) error

	Find(ctx context.Context, loanID int64) (*model.LoanDetail, error)
	List(ctx context.Context, page, perPage int) ([]model.LoanDetail, *model.Pagination, error)
}

// defaultLoanDays is how long a loan runs when the caller does not
// supply an expected return date.
const defaultLoanDays = 10

// ----- Service implementation -----

type service struct {
	db  Transactor
	r   Repo
	n   Notifier
	log *slog.Logger
}

func New(db Transactor, r Repo, n Notifier, log *slog.Logger) Service {
	return &service{db: db, r: r, n: n, log: log}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.LoanDetail, error) {
	if len(in.BookIDs) == 0 {
		return nil, makeErr(ErrNoBooks)
	}

	loanDate, err := parseDate(in.LoanDate)
	if err != nil {
		return nil, makeErr(ErrBadDate)
	}
	expected := loanDate.AddDate(0, 0, defaultLoanDays)
	if in.ExpectedReturnDate != "" {
		expected, err = parseDate(in.ExpectedReturnDate)
		if err != nil {
			return nil, makeErr(ErrBadDate)
		}
	}

	// Friendly pre-checks. The partial unique indexes are the real
	// guard against concurrent creates; these give callers the
	// offending ids.
	has, err := s.r.UserHasOpenLoan(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, makeErr(ErrUserHasOpenLoan)
	}

	unavailable, err := s.r.UnavailableBooks(ctx, in.BookIDs, 0)
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, unavailableErr(unavailable)
	}

	var loanID int64
	err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		id, err := s.r.Insert(ctx, tx, in.UserID, loanDate, expected)
		if err != nil {
			return err
		}
		loanID = id
		for _, bookID := range in.BookIDs {
			if err := s.r.AttachBook(ctx, tx, loanID, bookID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapConstraintErr(err)
	}

	d, err := s.r.Detail(ctx, loanID, false)
	if err != nil {
		return nil, err
	}
	s.notifyCreated(d)
	return d, nil
}

func (s *service) Update(ctx context.Context, loanID int64, in UpdateInput) (*model.LoanDetail, error) {
	loan, err := s.r.Find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, makeErr(ErrNotFound)
	}

	// A closed loan's book set is history; attaching would leave an
	// active join row with no open loan behind it and wedge the book's
	// availability for good.
	if !loan.Open() && (len(in.AddBooks) > 0 || len(in.RemoveBooks) > 0) {
		return nil, makeErr(ErrLoanClosed)
	}

	var expected, returned *time.Time
	if in.ExpectedReturnDate != nil {
		t, err := parseDate(*in.ExpectedReturnDate)
		if err != nil {
			return nil, makeErr(ErrBadDate)
		}
		expected = &t
	}
	if in.ReturnDate != nil {
		t, err := parseDate(*in.ReturnDate)
		if err != nil {
			return nil, makeErr(ErrBadDate)
		}
		returned = &t
	}

	if len(in.AddBooks) > 0 {
		// books already on this loan must not block themselves
		unavailable, err := s.r.UnavailableBooks(ctx, in.AddBooks, loanID)
		if err != nil {
			return nil, err
		}
		if len(unavailable) > 0 {
			return nil, unavailableErr(unavailable)
		}
	}

	err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if expected != nil {
			if err := s.r.UpdateExpectedReturn(ctx, tx, loanID, *expected); err != nil {
				return err
			}
		}
		for _, bookID := range in.AddBooks {
			if err := s.r.AttachBook(ctx, tx, loanID, bookID); err != nil {
				return err
			}
		}
		for _, bookID := range in.RemoveBooks {
			if err := s.r.DetachBook(ctx, tx, loanID, bookID); err != nil {
				return err
			}
		}
		if returned != nil {
			if loan.Open() {
				if err := s.r.ReleaseAllBooks(ctx, tx, loanID); err != nil {
					return err
				}
				if err := s.r.Close(ctx, tx, loanID, *returned); err != nil {
					return err
				}
			} else if err := s.r.SetReturnDate(ctx, tx, loanID, *returned); err != nil {
				// correcting the recorded date of a closed loan
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapConstraintErr(err)
	}

	return s.detailOf(ctx, loanID)
}

func (s *service) Close(ctx context.Context, loanID int64) error {
	loan, err := s.r.Find(ctx, loanID)
	if err != nil {
		return err
	}
	if loan == nil {
		return makeErr(ErrNotFound)
	}
	if !loan.Open() {
		// already returned, nothing to do
		return nil
	}

	return s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.r.ReleaseAllBooks(ctx, tx, loanID); err != nil {
			return err
		}
		return s.r.Close(ctx, tx, loanID, time.Now().UTC())
	})
}

func (s *service) Reopen(ctx context.Context, loanID int64) (*model.LoanDetail, error) {
	loan, err := s.r.Find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, makeErr(ErrNotFound)
	}
	if loan.Open() {
		return s.r.Detail(ctx, loanID, false)
	}

	has, err := s.r.UserHasOpenLoan(ctx, loan.UserID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, makeErr(ErrUserHasOpenLoan)
	}

	// restore what the closure released; books removed while the loan
	// was still open stay returned
	bookIDs, err := s.r.BooksHeldAtClose(ctx, loanID)
	if err != nil {
		return nil, err
	}
	unavailable, err := s.r.UnavailableBooks(ctx, bookIDs, loanID)
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, unavailableErr(unavailable)
	}

	err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.r.Reopen(ctx, tx, loanID); err != nil {
			return err
		}
		for _, bookID := range bookIDs {
			if err := s.r.AttachBook(ctx, tx, loanID, bookID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapConstraintErr(err)
	}
	return s.r.Detail(ctx, loanID, false)
}

func (s *service) Purge(ctx context.Context, loanID int64) error {
	loan, err := s.r.Find(ctx, loanID)
	if err != nil {
		return err
	}
	if loan == nil {
		return makeErr(ErrNotFound)
	}
	if loan.Open() {
		return makeErr(ErrNotClosed)
	}
	return s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		return s.r.Purge(ctx, tx, loanID)
	})
}

func (s *service) Find(ctx context.Context, loanID int64) (*model.LoanDetail, error) {
	d, err := s.detailOf(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, makeErr(ErrNotFound)
	}
	return d, nil
}

func (s *service) List(ctx context.Context, page, perPage int) ([]model.LoanDetail, *model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	loans, total, err := s.r.List(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return loans, model.NewPagination(total, page, perPage, len(loans)), nil
}

// detailOf loads the presentation shape, including the historical book
// rows for closed loans (closure soft-deletes them).
func (s *service) detailOf(ctx context.Context, loanID int64) (*model.LoanDetail, error) {
	loan, err := s.r.Find(ctx, loanID)
	if err != nil || loan == nil {
		return nil, err
	}
	return s.r.Detail(ctx, loanID, !loan.Open())
}

func (s *service) notifyCreated(d *model.LoanDetail) {
	if s.n == nil || d == nil {
		return
	}
	go func() {
		if err := s.n.LoanCreated(d.UserEmail, d); err != nil {
			s.log.Error("loan created email", "err", err, "loan_id", d.ID)
		}
	}()
}

// parseDate accepts the canonical date layout or RFC3339 and
// normalizes to a UTC date.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(model.DateLayout, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// mapConstraintErr translates the store-level invariant guards into
// business errors. The partial unique indexes close the gap between
// the availability read and the insert under concurrent requests.
func mapConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		if strings.Contains(cn, "user_open") {
			return makeErr(ErrUserHasOpenLoan)
		}
		if strings.Contains(cn, "book_open") {
			return unavailableErr(nil)
		}
	}
	return err
}
