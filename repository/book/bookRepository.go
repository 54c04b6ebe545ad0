package bookrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/deivisson-souza-84lab/libManager/model"
	"github.com/deivisson-souza-84lab/libManager/repository/join"
	"github.com/deivisson-souza-84lab/libManager/util/database"
)

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, title string, publicationYear int) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, title *string, publicationYear *int) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error

	AttachAuthor(ctx context.Context, tx pgx.Tx, bookID, authorID int64) error
	DetachAuthor(ctx context.Context, tx pgx.Tx, bookID, authorID int64) error
	DetachAllAuthors(ctx context.Context, tx pgx.Tx, bookID int64) error

	Find(ctx context.Context, id int64) (*model.Book, error)
	Detail(ctx context.Context, id int64) (*model.BookDetail, error)
	List(ctx context.Context, page, perPage int) ([]model.BookDetail, int64, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, title string, publicationYear int) (int64, error) {
	const q = `
		INSERT INTO books (title, publication_year)
		VALUES ($1, $2)
		RETURNING id`
	var id int64
	if err := tx.QueryRow(ctx, q, title, publicationYear).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, tx pgx.Tx, id int64, title *string, publicationYear *int) error {
	const q = `
		UPDATE books
		SET title = COALESCE($2, title),
			publication_year = COALESCE($3, publication_year)
		WHERE id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, id, title, publicationYear)
	return err
}

func (r *repo) SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error {
	const q = `
		UPDATE books
		SET deleted_at = NOW()
		WHERE id = $1
		AND deleted_at IS NULL`
	_, err := tx.Exec(ctx, q, id)
	return err
}

func (r *repo) AttachAuthor(ctx context.Context, tx pgx.Tx, bookID, authorID int64) error {
	return join.EnsureAttached(ctx, tx, join.AuthorBooks, bookID, authorID)
}

func (r *repo) DetachAuthor(ctx context.Context, tx pgx.Tx, bookID, authorID int64) error {
	return join.Detach(ctx, tx, join.AuthorBooks, bookID, authorID)
}

func (r *repo) DetachAllAuthors(ctx context.Context, tx pgx.Tx, bookID int64) error {
	return join.DetachAll(ctx, tx, join.AuthorBooks, bookID)
}

func (r *repo) Find(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, publication_year, created_at
		FROM books
		WHERE id = $1
		AND deleted_at IS NULL`
	b := &model.Book{}
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.Title, &b.PublicationYear, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.BookDetail, error) {
	b, err := r.Find(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}

	authors, err := r.activeAuthors(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	d := &model.BookDetail{
		ID:              b.ID,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		Authors:         authors[id],
	}
	if d.Authors == nil {
		d.Authors = []model.AuthorRef{}
	}
	return d, nil
}

func (r *repo) List(ctx context.Context, page, perPage int) ([]model.BookDetail, int64, error) {
	const countQ = `SELECT COUNT(*) FROM books WHERE deleted_at IS NULL`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT id, title, publication_year
		FROM books
		WHERE deleted_at IS NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, q, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.BookDetail
	var ids []int64
	for rows.Next() {
		var d model.BookDetail
		if err := rows.Scan(&d.ID, &d.Title, &d.PublicationYear); err != nil {
			return nil, 0, err
		}
		d.Authors = []model.AuthorRef{}
		out = append(out, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		authors, err := r.activeAuthors(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range out {
			if refs := authors[out[i].ID]; refs != nil {
				out[i].Authors = refs
			}
		}
	}
	return out, total, nil
}

// activeAuthors resolves the active authorship rows for a set of
// books, keyed by book id.
func (r *repo) activeAuthors(ctx context.Context, bookIDs []int64) (map[int64][]model.AuthorRef, error) {
	const q = `
		SELECT ab.book_id, a.id, a.name
		FROM author_books ab
		JOIN authors a ON a.id = ab.author_id
		WHERE ab.book_id = ANY($1)
		AND ab.deleted_at IS NULL
		AND a.deleted_at IS NULL
		ORDER BY a.id`
	rows, err := r.db.Pool.Query(ctx, q, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]model.AuthorRef)
	for rows.Next() {
		var bookID int64
		var ref model.AuthorRef
		if err := rows.Scan(&bookID, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out[bookID] = append(out[bookID], ref)
	}
	return out, rows.Err()
}
