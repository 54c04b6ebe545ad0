package authsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deivisson-souza-84lab/libManager/model"
	tokenrepo "github.com/deivisson-souza-84lab/libManager/repository/token"
	"github.com/deivisson-souza-84lab/libManager/util/hash"
	jwtutil "github.com/deivisson-souza-84lab/libManager/util/jwt"
)

type ErrCode string

const (
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
	ErrNotFound     ErrCode = "NOT_FOUND"
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

const tokenTTLHours = 24

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Profile(ctx context.Context, userID int64) (*model.User, error)
	Refresh(ctx context.Context, userID int64, role string) (string, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type service struct {
	ur     Repo
	tokens tokenrepo.Store
	secret string
}

func New(ur Repo, tokens tokenrepo.Store, secret string) Service {
	return &service{ur: ur, tokens: tokens, secret: secret}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}

	existing, err := s.ur.ByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", makeErr(ErrEmailTaken)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Role:         model.RoleUser,
		PasswordHash: hashed,
	}

	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, "", derr
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// mapDuplicateErr turns a unique violation on the users table into a
// business error; the ByEmail pre-check cannot see a concurrent insert.
func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(strings.ToLower(pgErr.ConstraintName), "email") {
			return makeErr(ErrEmailTaken)
		}
		return makeErr(ErrBadInput)
	}
	return nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", makeErr(ErrBadInput)
	}

	u, err := s.ur.ByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, tokenTTLHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrNotFound)
	}
	return u, nil
}

func (s *service) Refresh(ctx context.Context, userID int64, role string) (string, error) {
	return jwtutil.Issue(s.secret, userID, role, tokenTTLHours)
}

// Logout revokes the presented token until its natural expiry.
func (s *service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return makeErr(ErrBadInput)
	}
	return s.tokens.Revoke(ctx, jti, time.Until(expiresAt))
}
