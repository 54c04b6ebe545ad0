// Package join holds the restore-or-create handling shared by the two
// soft-deletable many-to-many tables (author_books, loaned_books).
// Each (parent, child) pair owns at most one row ever; attaching a pair
// whose row was soft-deleted restores it instead of inserting a second
// row, so detach history survives round trips.
package join

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Table names the join table and its two id columns. Values are
// compile-time constants in the calling repos, never user input.
type Table struct {
	Name      string
	ParentCol string
	ChildCol  string

	// RestoreSet is an extra SET clause applied when EnsureAttached
	// restores a soft-deleted row.
	RestoreSet string
}

var (
	AuthorBooks = Table{Name: "author_books", ParentCol: "book_id", ChildCol: "author_id"}
	LoanedBooks = Table{Name: "loaned_books", ParentCol: "loan_id", ChildCol: "book_id",
		RestoreSet: "released_by_close = FALSE"}
)

// EnsureAttached inserts the pair or restores its soft-deleted row.
// Attaching an already-active pair is a no-op. Relies on a unique
// constraint over (parent, child).
func EnsureAttached(ctx context.Context, tx pgx.Tx, t Table, parentID, childID int64) error {
	set := "deleted_at = NULL"
	if t.RestoreSet != "" {
		set += ", " + t.RestoreSet
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		VALUES ($1, $2)
		ON CONFLICT (%s, %s) DO UPDATE SET %s`,
		t.Name, t.ParentCol, t.ChildCol, t.ParentCol, t.ChildCol, set)
	_, err := tx.Exec(ctx, q, parentID, childID)
	return err
}

// Detach soft-deletes the pair's row if it is active.
func Detach(ctx context.Context, tx pgx.Tx, t Table, parentID, childID int64) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE %s = $1
		AND %s = $2
		AND deleted_at IS NULL`,
		t.Name, t.ParentCol, t.ChildCol)
	_, err := tx.Exec(ctx, q, parentID, childID)
	return err
}

// DetachAll soft-deletes every active row of the parent.
func DetachAll(ctx context.Context, tx pgx.Tx, t Table, parentID int64) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE %s = $1
		AND deleted_at IS NULL`,
		t.Name, t.ParentCol)
	_, err := tx.Exec(ctx, q, parentID)
	return err
}
