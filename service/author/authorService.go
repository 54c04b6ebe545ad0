package authorsvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/deivisson-souza-84lab/libManager/model"
)

type ErrCode string

const ErrNotFound ErrCode = "NOT_FOUND"

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

type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, name string, dateOfBirth *string) (int64, error)
	Update(ctx context.Context, tx pgx.Tx, id int64, name *string, dateOfBirth *string) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id int64) error
	DetachAllBooks(ctx context.Context, tx pgx.Tx, authorID int64) error

	Find(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, page, perPage int) ([]model.Author, int64, error)
}

type Service interface {
	Create(ctx context.Context, name string, dateOfBirth *string) (*model.Author, error)
	Update(ctx context.Context, id int64, name *string, dateOfBirth *string) (*model.Author, error)
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, page, perPage int) ([]model.Author, *model.Pagination, error)
}

type service struct {
	db Transactor
	r  Repo
}

func New(db Transactor, r Repo) Service { return &service{db: db, r: r} }

func (s *service) Create(ctx context.Context, name string, dateOfBirth *string) (*model.Author, error) {
	var id int64
	err := s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.r.Insert(ctx, tx, name, dateOfBirth)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.r.Find(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, name *string, dateOfBirth *string) (*model.Author, error) {
	a, err := s.r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, makeErr(ErrNotFound)
	}

	err = s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		return s.r.Update(ctx, tx, id, name, dateOfBirth)
	})
	if err != nil {
		return nil, err
	}
	return s.r.Find(ctx, id)
}

// Delete soft-deletes the author and detaches their books, keeping the
// authorship rows for history.
func (s *service) Delete(ctx context.Context, id int64) error {
	a, err := s.r.Find(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return makeErr(ErrNotFound)
	}

	return s.db.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.r.DetachAllBooks(ctx, tx, id); err != nil {
			return err
		}
		return s.r.SoftDelete(ctx, tx, id)
	})
}

func (s *service) Find(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, makeErr(ErrNotFound)
	}
	return a, nil
}

func (s *service) List(ctx context.Context, page, perPage int) ([]model.Author, *model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	authors, total, err := s.r.List(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return authors, model.NewPagination(total, page, perPage, len(authors)), nil
}
