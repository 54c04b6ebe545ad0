package loansvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/deivisson-souza-84lab/libManager/model"
)

// --- fakes ---

type fakeDB struct{ beginErr error }

func (f *fakeDB) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(nil)
}

type joinRow struct {
	deleted         bool
	releasedByClose bool
}

type fakeRepo struct {
	nextID    int64
	loans     map[int64]*model.Loan
	rows      map[[2]int64]*joinRow // (loanID, bookID)
	books     map[int64]string      // active books: id -> title
	attachErr error
}

var _ Repo = (*fakeRepo)(nil)

func newFakeRepo(bookIDs ...int64) *fakeRepo {
	f := &fakeRepo{
		loans: map[int64]*model.Loan{},
		rows:  map[[2]int64]*joinRow{},
		books: map[int64]string{},
	}
	for _, id := range bookIDs {
		f.books[id] = fmt.Sprintf("Book %d", id)
	}
	return f
}

func (f *fakeRepo) UserHasOpenLoan(ctx context.Context, userID int64) (bool, error) {
	for _, l := range f.loans {
		if l.UserID == userID && l.Status == model.LoanOpen {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) UnavailableBooks(ctx context.Context, bookIDs []int64, excludeLoanID int64) ([]int64, error) {
	var out []int64
	for _, id := range bookIDs {
		if _, ok := f.books[id]; !ok {
			out = append(out, id)
			continue
		}
		for key, row := range f.rows {
			if key[1] != id || row.deleted || key[0] == excludeLoanID {
				continue
			}
			if l := f.loans[key[0]]; l != nil && l.Status == model.LoanOpen {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) Insert(ctx context.Context, tx pgx.Tx, userID int64, loanDate, expectedReturn time.Time) (int64, error) {
	f.nextID++
	f.loans[f.nextID] = &model.Loan{
		ID:                 f.nextID,
		UserID:             userID,
		Status:             model.LoanOpen,
		LoanDate:           loanDate,
		ExpectedReturnDate: expectedReturn,
	}
	return f.nextID, nil
}

func (f *fakeRepo) UpdateExpectedReturn(ctx context.Context, tx pgx.Tx, loanID int64, expected time.Time) error {
	if l, ok := f.loans[loanID]; ok {
		l.ExpectedReturnDate = expected
	}
	return nil
}

func (f *fakeRepo) Close(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error {
	if l, ok := f.loans[loanID]; ok {
		l.Close(returnedAt)
	}
	return nil
}

func (f *fakeRepo) SetReturnDate(ctx context.Context, tx pgx.Tx, loanID int64, returnedAt time.Time) error {
	if l, ok := f.loans[loanID]; ok && l.Status == model.LoanClosed {
		l.ReturnDate = &returnedAt
	}
	return nil
}

func (f *fakeRepo) Reopen(ctx context.Context, tx pgx.Tx, loanID int64) error {
	if l, ok := f.loans[loanID]; ok {
		l.Reopen()
	}
	return nil
}

func (f *fakeRepo) Purge(ctx context.Context, tx pgx.Tx, loanID int64) error {
	delete(f.loans, loanID)
	for key := range f.rows {
		if key[0] == loanID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeRepo) AttachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	key := [2]int64{loanID, bookID}
	if row, ok := f.rows[key]; ok {
		row.deleted = false
		row.releasedByClose = false
		return nil
	}
	f.rows[key] = &joinRow{}
	return nil
}

func (f *fakeRepo) DetachBook(ctx context.Context, tx pgx.Tx, loanID, bookID int64) error {
	if row, ok := f.rows[[2]int64{loanID, bookID}]; ok {
		row.deleted = true
		row.releasedByClose = false
	}
	return nil
}

func (f *fakeRepo) ReleaseAllBooks(ctx context.Context, tx pgx.Tx, loanID int64) error {
	for key, row := range f.rows {
		if key[0] == loanID && !row.deleted {
			row.deleted = true
			row.releasedByClose = true
		}
	}
	return nil
}

func (f *fakeRepo) BooksHeldAtClose(ctx context.Context, loanID int64) ([]int64, error) {
	var out []int64
	for id := int64(1); id <= 100; id++ {
		if row, ok := f.rows[[2]int64{loanID, id}]; ok {
			if !row.deleted || row.releasedByClose {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) bookIDs(loanID int64, withDeleted bool) []int64 {
	var out []int64
	for id := int64(1); id <= 100; id++ {
		if row, ok := f.rows[[2]int64{loanID, id}]; ok {
			if withDeleted || !row.deleted {
				out = append(out, id)
			}
		}
	}
	return out
}

func (f *fakeRepo) Find(ctx context.Context, loanID int64) (*model.Loan, error) {
	l, ok := f.loans[loanID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeRepo) Detail(ctx context.Context, loanID int64, withDeleted bool) (*model.LoanDetail, error) {
	l, ok := f.loans[loanID]
	if !ok {
		return nil, nil
	}
	d := &model.LoanDetail{
		ID:                 l.ID,
		UserID:             l.UserID,
		UserName:           "Reader",
		UserEmail:          "reader@example.com",
		Status:             l.Status,
		LoanDate:           l.LoanDate.Format(model.DateLayout),
		ExpectedReturnDate: l.ExpectedReturnDate.Format(model.DateLayout),
		Books:              []model.LoanBook{},
	}
	if l.ReturnDate != nil {
		s := l.ReturnDate.Format(model.DateLayout)
		d.ReturnDate = &s
	}
	for _, id := range f.bookIDs(loanID, withDeleted) {
		d.Books = append(d.Books, model.LoanBook{
			ID:      id,
			Title:   f.books[id],
			Authors: []model.AuthorRef{},
		})
	}
	return d, nil
}

func (f *fakeRepo) List(ctx context.Context, page, perPage int) ([]model.LoanDetail, int64, error) {
	var ids []int64
	for id := int64(1); id <= f.nextID; id++ {
		if _, ok := f.loans[id]; !ok {
			continue
		}
		has := false
		for key := range f.rows {
			if key[0] == id {
				has = true
				break
			}
		}
		if has {
			ids = append(ids, id)
		}
	}
	total := int64(len(ids))

	start := (page - 1) * perPage
	if start > len(ids) {
		start = len(ids)
	}
	end := start + perPage
	if end > len(ids) {
		end = len(ids)
	}

	var out []model.LoanDetail
	for _, id := range ids[start:end] {
		d, _ := f.Detail(ctx, id, f.loans[id].Status == model.LoanClosed)
		out = append(out, *d)
	}
	return out, total, nil
}

func (f *fakeRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]model.OverdueLoan, error) {
	var out []model.OverdueLoan
	for id := int64(1); id <= f.nextID; id++ {
		l, ok := f.loans[id]
		if !ok || l.Status != model.LoanOpen || !l.ExpectedReturnDate.Before(asOf) {
			continue
		}
		out = append(out, model.OverdueLoan{
			LoanID:             l.ID,
			UserName:           "Reader",
			UserEmail:          "reader@example.com",
			ExpectedReturnDate: l.ExpectedReturnDate,
		})
	}
	return out, nil
}

type mockNotifier struct {
	created chan int64
	overdue chan int64
	sendErr error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{created: make(chan int64, 8), overdue: make(chan int64, 8)}
}

func (m *mockNotifier) LoanCreated(to string, loan *model.LoanDetail) error {
	m.created <- loan.ID
	return m.sendErr
}

func (m *mockNotifier) OverdueReminder(to string, loanID int64, expected time.Time) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.overdue <- loanID
	return nil
}

func newService(r Repo, n Notifier) Service {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return New(&fakeDB{}, r, n, log)
}

func bookIDsOf(d *model.LoanDetail) []int64 {
	var out []int64
	for _, b := range d.Books {
		out = append(out, b.ID)
	}
	return out
}

// --- tests ---

func TestCreate_DefaultExpectedReturnDate(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	n := newMockNotifier()
	svc := newService(r, n)

	d, err := svc.Create(ctx, CreateInput{
		UserID:   1,
		LoanDate: "2024-01-01",
		BookIDs:  []int64{7, 9},
	})
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", d.LoanDate)
	require.Equal(t, "2024-01-11", d.ExpectedReturnDate)
	require.Equal(t, model.LoanOpen, d.Status)
	require.ElementsMatch(t, []int64{7, 9}, bookIDsOf(d))

	select {
	case id := <-n.created:
		require.Equal(t, d.ID, id)
	case <-time.After(time.Second):
		t.Fatal("loan created notification never sent")
	}
}

func TestCreate_RoundTripWithFind(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(3, 4, 5)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 2, LoanDate: "2024-03-10", BookIDs: []int64{3, 5}})
	require.NoError(t, err)

	found, err := svc.Find(ctx, d.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, bookIDsOf(d), bookIDsOf(found))
}

func TestCreate_UserAlreadyHasOpenLoan(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(3, 7, 9)
	svc := newService(r, newMockNotifier())

	_, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-02-01", BookIDs: []int64{3}})
	require.Error(t, err)
	require.Equal(t, ErrUserHasOpenLoan, Code(err))
}

func TestCreate_BooksUnavailableListsOffenders(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2, 3)
	svc := newService(r, newMockNotifier())

	_, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{2}})
	require.NoError(t, err)

	// book 2 is on an open loan, book 99 does not exist
	_, err = svc.Create(ctx, CreateInput{UserID: 5, LoanDate: "2024-01-02", BookIDs: []int64{1, 2, 99}})
	require.Error(t, err)
	require.Equal(t, ErrBooksUnavailable, Code(err))
	require.ElementsMatch(t, []int64{2, 99}, UnavailableBookIDs(err))
}

func TestCreate_InputErrors(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeRepo(1), newMockNotifier())

	_, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01"})
	require.Equal(t, ErrNoBooks, Code(err))

	_, err = svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "01/02/2024", BookIDs: []int64{1}})
	require.Equal(t, ErrBadDate, Code(err))
}

func TestCreate_MapsOpenLoanConstraintViolation(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1)
	r.attachErr = &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "loaned_books_book_open_idx",
	}
	svc := newService(r, newMockNotifier())

	_, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.Error(t, err)
	require.Equal(t, ErrBooksUnavailable, Code(err))
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeRepo(), newMockNotifier())

	_, err := svc.Update(ctx, 404, UpdateInput{})
	require.Equal(t, ErrNotFound, Code(err))
}

func TestUpdate_RemoveThenReAddRestoresSameRow(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)

	after, err := svc.Update(ctx, d.ID, UpdateInput{RemoveBooks: []int64{7}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{9}, bookIDsOf(after))

	restored, err := svc.Update(ctx, d.ID, UpdateInput{AddBooks: []int64{7}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7, 9}, bookIDsOf(restored))

	// the soft-deleted row was restored, not duplicated
	require.Len(t, r.rows, 2)
}

func TestUpdate_AddUnavailableBookAborts(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2)
	svc := newService(r, newMockNotifier())

	first, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{UserID: 2, LoanDate: "2024-01-01", BookIDs: []int64{2}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, UpdateInput{AddBooks: []int64{1}})
	require.Equal(t, ErrBooksUnavailable, Code(err))
	require.ElementsMatch(t, []int64{1}, UnavailableBookIDs(err))

	// no partial mutation
	unchanged, err := svc.Find(ctx, second.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{2}, bookIDsOf(unchanged))
	_ = first
}

func TestUpdate_AddedBookDoesNotBlockItself(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)

	// re-adding a book the loan already holds is a no-op, not a conflict
	after, err := svc.Update(ctx, d.ID, UpdateInput{AddBooks: []int64{1, 2}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2}, bookIDsOf(after))
	require.Len(t, r.rows, 2)
}

func TestUpdate_ExpectedReturnDate(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeRepo(1), newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)

	newDate := "2024-02-15"
	after, err := svc.Update(ctx, d.ID, UpdateInput{ExpectedReturnDate: &newDate})
	require.NoError(t, err)
	require.Equal(t, "2024-02-15", after.ExpectedReturnDate)
}

func TestUpdate_ReturnDateClosesLoan(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)

	ret := "2024-01-05"
	after, err := svc.Update(ctx, d.ID, UpdateInput{ReturnDate: &ret})
	require.NoError(t, err)
	require.Equal(t, model.LoanClosed, after.Status)
	require.NotNil(t, after.ReturnDate)
	require.Equal(t, "2024-01-05", *after.ReturnDate)

	// the closed loan keeps its history in the detail view
	require.ElementsMatch(t, []int64{1}, bookIDsOf(after))
}

func TestUpdate_BookChangesRejectedOnClosedLoan(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, d.ID))

	_, err = svc.Update(ctx, d.ID, UpdateInput{AddBooks: []int64{2}})
	require.Equal(t, ErrLoanClosed, Code(err))

	_, err = svc.Update(ctx, d.ID, UpdateInput{RemoveBooks: []int64{1}})
	require.Equal(t, ErrLoanClosed, Code(err))

	// no stray active row was left behind, so book 2 stays loanable
	next, err := svc.Create(ctx, CreateInput{UserID: 2, LoanDate: "2024-01-10", BookIDs: []int64{2}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{2}, bookIDsOf(next))
}

func TestUpdate_ReturnDateCorrectionOnClosedLoan(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)

	ret := "2024-01-05"
	_, err = svc.Update(ctx, d.ID, UpdateInput{ReturnDate: &ret})
	require.NoError(t, err)

	corrected := "2024-01-03"
	after, err := svc.Update(ctx, d.ID, UpdateInput{ReturnDate: &corrected})
	require.NoError(t, err)
	require.Equal(t, model.LoanClosed, after.Status)
	require.NotNil(t, after.ReturnDate)
	require.Equal(t, "2024-01-03", *after.ReturnDate)
}

func TestClose_FreesBooksAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, d.ID))

	closed, err := svc.Find(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, model.LoanClosed, closed.Status)
	require.NotNil(t, closed.ReturnDate)

	// books are immediately available again, user is free too
	next, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-02-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7, 9}, bookIDsOf(next))

	// closing twice is a no-op
	require.NoError(t, svc.Close(ctx, d.ID))
}

func TestClose_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newService(newFakeRepo(), newMockNotifier())

	err := svc.Close(ctx, 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestReopen_RestoresBooks(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, d.ID))

	reopened, err := svc.Reopen(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, model.LoanOpen, reopened.Status)
	require.Nil(t, reopened.ReturnDate)
	require.ElementsMatch(t, []int64{7, 9}, bookIDsOf(reopened))
	require.Len(t, r.rows, 2)
}

func TestReopen_SkipsBookRemovedBeforeClose(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7, 9}})
	require.NoError(t, err)

	// book 7 comes back early, then the loan closes with only book 9
	_, err = svc.Update(ctx, d.ID, UpdateInput{RemoveBooks: []int64{7}})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, d.ID))

	reopened, err := svc.Reopen(ctx, d.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{9}, bookIDsOf(reopened))

	// the early return stands: book 7 is free for someone else
	other, err := svc.Create(ctx, CreateInput{UserID: 2, LoanDate: "2024-02-01", BookIDs: []int64{7}})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7}, bookIDsOf(other))
}

func TestReopen_FailsWhenBookReloaned(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(7, 9)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{7}})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, d.ID))

	_, err = svc.Create(ctx, CreateInput{UserID: 2, LoanDate: "2024-01-02", BookIDs: []int64{7}})
	require.NoError(t, err)

	_, err = svc.Reopen(ctx, d.ID)
	require.Equal(t, ErrBooksUnavailable, Code(err))
	require.ElementsMatch(t, []int64{7}, UnavailableBookIDs(err))
}

func TestPurge_RequiresClosedLoan(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1)
	svc := newService(r, newMockNotifier())

	d, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.NoError(t, err)

	err = svc.Purge(ctx, d.ID)
	require.Equal(t, ErrNotClosed, Code(err))

	require.NoError(t, svc.Close(ctx, d.ID))
	require.NoError(t, svc.Purge(ctx, d.ID))

	_, err = svc.Find(ctx, d.ID)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2, 3)
	svc := newService(r, newMockNotifier())

	for i, bookID := range []int64{1, 2, 3} {
		d, err := svc.Create(ctx, CreateInput{UserID: int64(i + 1), LoanDate: "2024-01-01", BookIDs: []int64{bookID}})
		require.NoError(t, err)
		require.NoError(t, svc.Close(ctx, d.ID))
	}

	loans, p, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	require.Equal(t, int64(3), p.Total)
	require.Equal(t, 2, p.LastPage)

	loans, p, err = svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.Equal(t, 3, p.From)
}

func TestCreate_TxFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := New(&fakeDB{beginErr: errors.New("db down")}, newFakeRepo(1), newMockNotifier(), log)

	_, err := svc.Create(ctx, CreateInput{UserID: 1, LoanDate: "2024-01-01", BookIDs: []int64{1}})
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
}

func TestSweeper_SendsReminders(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo(1, 2)
	n := newMockNotifier()
	svc := newService(r, n)

	past, err := svc.Create(ctx, CreateInput{
		UserID:             1,
		LoanDate:           "2024-01-01",
		ExpectedReturnDate: "2024-01-05",
		BookIDs:            []int64{1},
	})
	require.NoError(t, err)

	future := time.Now().UTC().AddDate(0, 1, 0).Format(model.DateLayout)
	_, err = svc.Create(ctx, CreateInput{
		UserID:             2,
		LoanDate:           time.Now().UTC().Format(model.DateLayout),
		ExpectedReturnDate: future,
		BookIDs:            []int64{2},
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sw := NewSweeper(r, n, log)
	sent, err := sw.SendReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Equal(t, past.ID, <-n.overdue)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-01-31")
	require.NoError(t, err)
	require.Equal(t, "2024-01-31", d.Format(model.DateLayout))

	d, err = parseDate("2024-01-31T15:04:05Z")
	require.NoError(t, err)
	require.Equal(t, "2024-01-31", d.Format(model.DateLayout))
	require.Equal(t, 0, d.Hour())

	_, err = parseDate("31/01/2024")
	require.Error(t, err)
}
