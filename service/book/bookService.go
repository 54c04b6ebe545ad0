package booksvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/deivisson-souza-84lab/libManager/model"
)

type ErrCode string

const (
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrAuthorNotFound ErrCode = "AUTHOR_NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type CreateInput struct {
	Title           string
	PublicationYear int
	AuthorIDs       []int64
}

type UpdateInput struct {
	Title           *string
	PublicationYear *int
	AddAuthors      []int64
	RemoveAuthors   []int64
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

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

// AuthorRepo is the slice of the author repository the book service
// needs to validate authorship input.
type AuthorRepo interface {
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*model.BookDetail, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*model.BookDetail, error)
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, id int64) (*model.BookDetail, error)
	List(ctx context.Context, page, perPage int) ([]model.BookDetail, *model.Pagination, error)
}

type service struct {
	db Transactor
	r  Repo
	ar AuthorRepo
}

func New(db Transactor, r Repo, ar AuthorRepo) Service {
	return &service{db: db, r: r, ar: ar}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.BookDetail, error) {
	if err := s.checkAuthors(ctx, in.AuthorIDs); err != nil {
		return nil, err
	}

	var id int64
	err := s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.r.Insert(ctx, tx, in.Title, in.PublicationYear)
		if err != nil {
			return err
		}
		for _, authorID := range in.AuthorIDs {
			if err := s.r.AttachAuthor(ctx, tx, id, authorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.r.Detail(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, in UpdateInput) (*model.BookDetail, error) {
	b, err := s.r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}

	if err := s.checkAuthors(ctx, in.AddAuthors); err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if in.Title != nil || in.PublicationYear != nil {
			if err := s.r.Update(ctx, tx, id, in.Title, in.PublicationYear); err != nil {
				return err
			}
		}
		for _, authorID := range in.AddAuthors {
			if err := s.r.AttachAuthor(ctx, tx, id, authorID); err != nil {
				return err
			}
		}
		for _, authorID := range in.RemoveAuthors {
			if err := s.r.DetachAuthor(ctx, tx, id, authorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.r.Detail(ctx, id)
}

// Delete soft-deletes the book and its authorship rows. Loan history
// referencing the book stays intact.
func (s *service) Delete(ctx context.Context, id int64) error {
	b, err := s.r.Find(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return makeErr(ErrNotFound)
	}

	return s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.r.DetachAllAuthors(ctx, tx, id); err != nil {
			return err
		}
		return s.r.SoftDelete(ctx, tx, id)
	})
}

func (s *service) Find(ctx context.Context, id int64) (*model.BookDetail, error) {
	d, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, makeErr(ErrNotFound)
	}
	return d, nil
}

func (s *service) List(ctx context.Context, page, perPage int) ([]model.BookDetail, *model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	books, total, err := s.r.List(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return books, model.NewPagination(total, page, perPage, len(books)), nil
}

func (s *service) checkAuthors(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.ar.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return makeErr(ErrAuthorNotFound)
	}
	return nil
}
