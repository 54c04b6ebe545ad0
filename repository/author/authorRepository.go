package authorrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deivisson-souza-84lab/libManager/model"
	"github.com/deivisson-souza-84lab/libManager/util/database"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, name string, dateOfBirth *string) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, name *string, dateOfBirth *string) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error
	DetachAllBooks(ctx context.Context, tx pgx.Tx, authorID int64) error

	Find(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, page, perPage int) ([]model.Author, int64, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, name string, dateOfBirth *string) (int64, error) {
	const q = `
		INSERT INTO authors (name, date_of_birth)
		VALUES ($1, $2)
		RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, q, name, dateOfBirth).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, tx pgx.Tx, id int64, name *string, dateOfBirth *string) error {
	const q = `
		UPDATE authors
		SET name = COALESCE($2, name),
			date_of_birth = COALESCE($3, date_of_birth)
		WHERE id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, id, name, dateOfBirth)
	return err
}

func (r *repo) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	const q = `
		UPDATE authors
		SET deleted_at = NOW()
		WHERE id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, id)
	return err
}

// DetachAllBooks soft-deletes the author's side of the join; the rows
// key on book_id as parent, so this filters on the child column.
func (r *repo) DetachAllBooks(ctx context.Context, tx pgx.Tx, authorID int64) error {
	const q = `
		UPDATE author_books
		SET deleted_at = NOW()
		WHERE author_id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, authorID)
	return err
}

func (r *repo) Find(ctx context.Context, id int64) (*model.Author, error) {
	const q = `
		SELECT id, name, date_of_birth, created_at
		FROM authors
		WHERE id = $1
		AND deleted_at IS NULL`
	a := &model.Author{}
	var dob *time.Time
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &dob, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.DateOfBirth = formatDate(dob)
	return a, nil
}

func (r *repo) List(ctx context.Context, page, perPage int) ([]model.Author, int64, error) {
	const countQ = `SELECT COUNT(*) FROM authors WHERE deleted_at IS NULL`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT id, name, date_of_birth, created_at
		FROM authors
		WHERE deleted_at IS NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, q, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		var dob *time.Time
		if err := rows.Scan(&a.ID, &a.Name, &dob, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		a.DateOfBirth = formatDate(dob)
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// formatDate renders a nullable DATE column in the canonical layout.
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}

// MissingIDs reports which of the given ids do not resolve to an
// active author.
func (r *repo) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	const q = `
		SELECT req.id
		FROM unnest($1::bigint[]) AS req(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM authors a
			WHERE a.id = req.id AND a.deleted_at IS NULL
		)`
	rows, err := r.db.Pool.Query(ctx, q, ids)
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
