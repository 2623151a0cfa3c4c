package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/lostfound-platform/internal/middleware"
	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
)

// fakeUserStore is an in-memory user directory with unique-email enforcement.
type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[string]model.User
	byEmail map[string]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byEmail[user.Email]; taken {
		return fmt.Errorf("email already registered: %w", model.ErrValidation)
	}
	f.byEmail[user.Email] = user.ID
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserStore) Get(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &user, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, model.ErrNotFound
	}
	user := f.byID[id]
	return &user, nil
}

const testSecret = "test-secret"

func newTestUserService(store UserStore) *UserService {
	return NewUserService(store, testSecret, time.Hour, logger.NewNop())
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	resp, err := svc.Signup(context.Background(), &model.SignupRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	cases := map[string]*model.SignupRequest{
		"bad email":      {Email: "not-an-email", Password: "longenough", Name: "A"},
		"short password": {Email: "a@b.com", Password: "short", Name: "A"},
		"empty name":     {Email: "a@b.com", Password: "longenough", Name: "  "},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	req := &model.SignupRequest{Email: "a@b.com", Password: "longenough", Name: "A"}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	_, err := svc.Signup(context.Background(), &model.SignupRequest{
		Email: "a@b.com", Password: "longenough", Name: "A",
	})
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), &model.LoginRequest{
		Email: "nobody@b.com", Password: "longenough",
	})
	_, wrongErr := svc.Login(context.Background(), &model.LoginRequest{
		Email: "a@b.com", Password: "wrong-password",
	})

	assert.ErrorIs(t, unknownErr, model.ErrAuth)
	assert.ErrorIs(t, wrongErr, model.ErrAuth)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestIssuedTokenCarriesSubjectAndName(t *testing.T) {
	svc := newTestUserService(newFakeUserStore())

	resp, err := svc.Signup(context.Background(), &model.SignupRequest{
		Email: "a@b.com", Password: "longenough", Name: "Alice",
	})
	require.NoError(t, err)

	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, resp.User.ID, claims.Subject)
	assert.Equal(t, "Alice", claims.Name)
}
