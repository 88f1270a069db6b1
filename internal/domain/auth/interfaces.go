package auth

import (
	"context"

	"certhub/internal/domain/user"
)

// UserStore is the subset of user.Repository the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}
