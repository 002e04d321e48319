package account

import (
	"context"
)

// UserStore defines the interface for user persistence operations.
// Lookups and DeleteByID return (nil, nil) when no row matches.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	DeleteByID(ctx context.Context, id int64) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
}

// MailChannel defines the outbound mail contract consumed by Register
type MailChannel interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AccountManager defines the interface for user account operations
type AccountManager interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	AddUser(ctx context.Context, req *AddUserRequest) (*User, error)
	Register(ctx context.Context, email, password string) (string, error)
	Validate(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*User, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
	DeleteByID(ctx context.Context, id int64) (*User, error)
}
