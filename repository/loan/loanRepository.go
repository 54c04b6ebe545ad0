package loanrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deivisson-souza-84lab/libManager/model"
	"github.com/deivisson-souza-84lab/libManager/repository/join"
	"github.com/deivisson-souza-84lab/libManager/util/database"
)

type Repo interface {
	// Availability reads
	UserHasOpenLoan(ctx context.Context, userID int64) (bool, error)
	UnavailableBooks(ctx context.Context, bookIDs []int64, excludeLoanID int64) ([]int64, error)

	// Loan rows
	Insert(ctx context.Context, tx pgx.Tx, userID int64, loanDate, expectedReturn time.Time) (int64, error)
	UpdateExpectedReturn(ctx context.Context, tx pgx.Tx, loanID int64, expected time.Time) error
	Close(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error
	SetReturnDate(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error
	Reopen(ctx context.Context, tx pgx.Tx, loanID int64) error
	Purge(ctx context.Context, tx pgx.Tx, loanID int64) error

	// Join rows
	AttachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error
	DetachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error
	ReleaseAllBooks(ctx context.Context, tx pgx.Tx, loanID int64) error
	BooksHeldAtClose(ctx context.Context, loanID int64) ([]int64, error)

	// Reads
	Find(ctx context.Context, loanID int64) (*model.Loan, error)
	Detail(ctx context.Context, loanID int64, withDeleted bool) (*model.LoanDetail, error)
	List(ctx context.Context, page, perPage int) ([]model.LoanDetail, int64, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

// Availability reads

func (r *repo) UserHasOpenLoan(ctx context.Context, userID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1
			AND status = 'OPEN'
		)`
	var has bool
	err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&has)
	return has, err
}

// UnavailableBooks returns every requested id that is missing,
// soft-deleted, or attached to an open loan other than excludeLoanID.
// Pass excludeLoanID 0 to consider all open loans.
func (r *repo) UnavailableBooks(ctx context.Context, bookIDs []int64, excludeLoanID int64) ([]int64, error) {
	const q = `
		SELECT req.id
		FROM unnest($1::bigint[]) AS req(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM books b
			WHERE b.id = req.id AND b.deleted_at IS NULL
		)
		OR EXISTS (
			SELECT 1
			FROM loaned_books lb
			JOIN loans l ON l.id = lb.loan_id
			WHERE lb.book_id = req.id
			AND lb.deleted_at IS NULL
			AND l.status = 'OPEN'
			AND l.id <> $2
		)`
	rows, err := r.db.Pool.Query(ctx, q, bookIDs, excludeLoanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Loan rows

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, userID int64, loanDate, expectedReturn time.Time) (int64, error) {
	const q = `
		INSERT INTO loans (user_id, status, loan_date, expected_return_date)
		VALUES ($1, 'OPEN', $2, $3)
		RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, q, userID, loanDate, expectedReturn).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) UpdateExpectedReturn(ctx context.Context, tx pgx.Tx, loanID int64, expected time.Time) error {
	const q = `
		UPDATE loans
		SET expected_return_date = $2
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, loanID, expected)
	return err
}

func (r *repo) Close(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error {
	const q = `
		UPDATE loans
		SET status = 'CLOSED',
			return_date = $2
		WHERE id = $1
		AND status = 'OPEN'`
	_, err := tx.Exec(ctx, q, loanID, returnedAt)
	return err
}

// SetReturnDate corrects the recorded return date of a closed loan.
func (r *repo) SetReturnDate(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error {
	const q = `
		UPDATE loans
		SET return_date = $2
		WHERE id = $1
		AND status = 'CLOSED'`
	_, err := tx.Exec(ctx, q, loanID, returnedAt)
	return err
}

func (r *repo) Reopen(ctx context.Context, tx pgx.Tx, loanID int64) error {
	const q = `
		UPDATE loans
		SET status = 'OPEN',
			return_date = NULL
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, loanID)
	return err
}

// Purge physically removes the loan; the join rows go with it via
// ON DELETE CASCADE.
func (r *repo) Purge(ctx context.Context, tx pgx.Tx, loanID int64) error {
	const q = `DELETE FROM loans WHERE id = $1`
	_, err := tx.Exec(ctx, q, loanID)
	return err
}

// Join rows

func (r *repo) AttachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error {
	return join.EnsureAttached(ctx, tx, join.LoanedBooks, loanID, bookID)
}

func (r *repo) DetachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error {
	return join.Detach(ctx, tx, join.LoanedBooks, loanID, bookID)
}

// ReleaseAllBooks is the closure detach. It marks the rows so a later
// reopen can tell them apart from books removed while the loan was
// still open.
func (r *repo) ReleaseAllBooks(ctx context.Context, tx pgx.Tx, loanID int64) error {
	const q = `
		UPDATE loaned_books
		SET deleted_at = NOW(),
			released_by_close = TRUE
		WHERE loan_id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, loanID)
	return err
}

// BooksHeldAtClose returns the loan's active book ids plus the ids its
// closure released. Rows detached before closure stay out.
func (r *repo) BooksHeldAtClose(ctx context.Context, loanID int64) ([]int64, error) {
	const q = `
		SELECT book_id
		FROM loaned_books
		WHERE loan_id = $1
		AND (deleted_at IS NULL OR released_by_close)
		ORDER BY book_id`
	rows, err := r.db.Pool.Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Reads

func (r *repo) Find(ctx context.Context, loanID int64) (*model.Loan, error) {
	const q = `
		SELECT id, user_id, status, loan_date, expected_return_date, return_date, created_at
		FROM loans
		WHERE id = $1`
	l := &model.Loan{}
	err := r.db.Pool.QueryRow(ctx, q, loanID).Scan(
		&l.ID, &l.UserID, &l.Status, &l.LoanDate, &l.ExpectedReturnDate, &l.ReturnDate, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) Detail(ctx context.Context, loanID int64, withDeleted bool) (*model.LoanDetail, error) {
	const q = `
		SELECT l.id, l.user_id, u.name, u.email, l.status,
			l.loan_date, l.expected_return_date, l.return_date
		FROM loans l
		JOIN users u ON u.id = l.user_id
		WHERE l.id = $1`
	var (
		d          model.LoanDetail
		loanDate   time.Time
		expected   time.Time
		returnDate *time.Time
	)
	err := r.db.Pool.QueryRow(ctx, q, loanID).Scan(
		&d.ID, &d.UserID, &d.UserName, &d.UserEmail, &d.Status,
		&loanDate, &expected, &returnDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.LoanDate = loanDate.Format(model.DateLayout)
	d.ExpectedReturnDate = expected.Format(model.DateLayout)
	if returnDate != nil {
		s := returnDate.Format(model.DateLayout)
		d.ReturnDate = &s
	}

	books, err := r.loanBooks(ctx, loanID, withDeleted)
	if err != nil {
		return nil, err
	}
	d.Books = books
	return &d, nil
}

func (r *repo) List(ctx context.Context, page, perPage int) ([]model.LoanDetail, int64, error) {
	// only loans that ever had a book attached, historical rows included
	const countQ = `
		SELECT COUNT(*)
		FROM loans l
		WHERE EXISTS (SELECT 1 FROM loaned_books lb WHERE lb.loan_id = l.id)`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT l.id, l.status
		FROM loans l
		WHERE EXISTS (SELECT 1 FROM loaned_books lb WHERE lb.loan_id = l.id)
		ORDER BY l.id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, q, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	type row struct {
		id     int64
		status model.LoanStatus
	}
	var items []row
	for rows.Next() {
		var it row
		if err := rows.Scan(&it.id, &it.status); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	out := make([]model.LoanDetail, 0, len(items))
	for _, it := range items {
		d, err := r.Detail(ctx, it.id, it.status == model.LoanClosed)
		if err != nil {
			return nil, 0, err
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, total, nil
}

func (r *repo) ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error) {
	const q = `
		SELECT l.id, u.name, u.email, l.expected_return_date
		FROM loans l
		JOIN users u ON u.id = l.user_id
		WHERE l.status = 'OPEN'
		AND l.expected_return_date < $1
		ORDER BY l.id`
	rows, err := r.db.Pool.Query(ctx, q, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OverdueLoan
	for rows.Next() {
		var o model.OverdueLoan
		if err := rows.Scan(&o.LoanID, &o.UserName, &o.UserEmail, &o.ExpectedReturnDate); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// loanBooks loads the loan's book list. Closed loans pass withDeleted
// so the returned set reflects what the loan held before closure
// soft-deleted its rows.
func (r *repo) loanBooks(ctx context.Context, loanID int64, withDeleted bool) ([]model.LoanBook, error) {
	const q = `
		SELECT b.id, b.title, b.publication_year
		FROM loaned_books lb
		JOIN books b ON b.id = lb.book_id
		WHERE lb.loan_id = $1
		AND ($2 OR lb.deleted_at IS NULL)
		ORDER BY b.id`
	rows, err := r.db.Pool.Query(ctx, q, loanID, withDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []model.LoanBook{}
	var ids []int64
	for rows.Next() {
		var b model.LoanBook
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear); err != nil {
			return nil, err
		}
		b.Authors = []model.AuthorRef{}
		books = append(books, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return books, nil
	}

	const aq = `
		SELECT ab.book_id, a.id, a.name
		FROM author_books ab
		JOIN authors a ON a.id = ab.author_id
		WHERE ab.book_id = ANY($1)
		AND ab.deleted_at IS NULL
		AND a.deleted_at IS NULL
		ORDER BY a.id`
	arows, err := r.db.Pool.Query(ctx, aq, ids)
	if err != nil {
		return nil, err
	}
	defer arows.Close()

	byBook := make(map[int64][]model.AuthorRef)
	for arows.Next() {
		var bookID int64
		var ref model.AuthorRef
		if err := arows.Scan(&bookID, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		byBook[bookID] = append(byBook[bookID], ref)
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}
	for i := range books {
		if refs := byBook[books[i].ID]; refs != nil {
			books[i].Authors = refs
		}
	}
	return books, nil
}
