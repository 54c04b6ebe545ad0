// service/auth/authService_test.go
package authsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deivisson-souza-84lab/libManager/model"
	"github.com/deivisson-souza-84lab/libManager/util/hash"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

type mockTokens struct {
	revoked map[string]time.Duration
}

func newMockTokens() *mockTokens { return &mockTokens{revoked: map[string]time.Duration{}} }

func (m *mockTokens) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockTokens) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	req := model.RegisterReq{
		Name:     "Deivisson Souza",
		Email:    "USER@Example.COM",
		Password: "supersecret",
	}

	u, tok, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, u.PasswordHash)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, newMockTokens(), "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "u",
		Email:    " ",
		Password: "123",
	})
	require.Error(t, err)
	require.Equal(t, ErrBadInput, Code(err))
}

func TestRegister_EmailTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 9, Email: email}, nil
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "taken",
		Email:    "taken@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestRegister_CreateError(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return errors.New("db down")
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "ok",
		Email:    "ok@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				Name:         "Deivisson",
				PasswordHash: hashed,
				Role:         model.RoleUser,
			}, nil
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	u, tok, err := svc.Login(ctx, model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()

	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           101,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleUser,
			}, nil
		},
	}
	svc := New(m, newMockTokens(), "test-secret")

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, newMockTokens(), "test-secret")

	_, err := svc.Profile(ctx, 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestLogout_RevokesToken(t *testing.T) {
	ctx := context.Background()
	tokens := newMockTokens()
	svc := New(&mockRepo{}, tokens, "test-secret")

	err := svc.Logout(ctx, "some-jti", time.Now().Add(time.Hour))
	require.NoError(t, err)

	revoked, err := tokens.IsRevoked(ctx, "some-jti")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrEmailTaken, Code(makeErr(ErrEmailTaken)))
	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
}
