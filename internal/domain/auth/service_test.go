package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"certhub/internal/domain/user"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) GenerateToken(userID int64, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func TestRegisterCreatesStudent(t *testing.T) {
	users := new(mockUserStore)
	issuer := new(mockIssuer)
	svc := NewService(users, issuer)
	ctx := context.Background()

	users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
		return u.Role == user.RoleStudent &&
			u.Name == "Anna" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*user.User).ID = 42
	}).Return(nil)
	issuer.On("GenerateToken", int64(42), "STUDENT").Return("token-42", nil)

	res, err := svc.Register(ctx, RegisterRequest{Name: " Anna ", Email: "anna@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "token-42", res.Token)
	assert.EqualValues(t, 42, res.User.ID)

	users.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(mockUserStore)
	svc := NewService(users, new(mockIssuer))

	users.On("Create", mock.Anything, mock.Anything).Return(user.ErrEmailAlreadyExists)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Anna", Email: "a@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	stored := &user.User{ID: 7, Email: "admin@example.com", PasswordHash: hash, Role: user.RoleAdmin}

	tests := []struct {
		name     string
		email    string
		password string
		lookup   error
		wantErr  error
	}{
		{name: "valid", email: "admin@example.com", password: "correct-horse"},
		{name: "wrong password", email: "admin@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "x", lookup: user.ErrUserNotFound, wantErr: ErrInvalidCredentials},
		{name: "store failure", email: "admin@example.com", password: "x", lookup: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mockUserStore)
			issuer := new(mockIssuer)
			svc := NewService(users, issuer)

			if tt.lookup != nil {
				users.On("GetByEmail", mock.Anything, tt.email).Return(nil, tt.lookup)
			} else {
				users.On("GetByEmail", mock.Anything, tt.email).Return(stored, nil)
			}
			issuer.On("GenerateToken", int64(7), "ADMIN").Return("token-7", nil).Maybe()

			res, err := svc.Login(context.Background(), LoginRequest{Email: tt.email, Password: tt.password})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.lookup != nil:
				assert.ErrorIs(t, err, tt.lookup)
			default:
				require.NoError(t, err)
				assert.Equal(t, "token-7", res.Token)
			}
		})
	}
}
