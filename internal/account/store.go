package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// UserSchema represents the users table schema in PostgreSQL
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Email    string `bun:"email,notnull,unique" json:"email"`
	NickName string `bun:"nick_name" json:"nick_name"`
	Password string `bun:"password" json:"password"`
	Salt     string `bun:"salt" json:"salt"`
	Gender   int    `bun:"gender,notnull,default:0" json:"gender"`
}

// PostgresUserStore implements the UserStore interface
type PostgresUserStore struct {
	db *bun.DB
}

// NewPostgresUserStore creates a new user store instance
func NewPostgresUserStore(db *bun.DB) *PostgresUserStore {
	return &PostgresUserStore{
		db: db,
	}
}

// FindByID looks up a user by id; (nil, nil) when no row matches
func (s *PostgresUserStore) FindByID(ctx context.Context, id int64) (*User, error) {
	schema := new(UserSchema)
	err := s.db.NewSelect().
		Model(schema).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return userSchemaToUser(schema), nil
}

// FindByEmail looks up a user by email; (nil, nil) when no row matches
func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	schema := new(UserSchema)
	err := s.db.NewSelect().
		Model(schema).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return userSchemaToUser(schema), nil
}

// Insert persists a new user row. The unique index on email is the
// authoritative uniqueness check; the service-level read-then-write check
// is advisory only, so a concurrent duplicate lands here and is mapped to
// the already-exists error.
func (s *PostgresUserStore) Insert(ctx context.Context, user *User) (*User, error) {
	if user.Email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	schema := userToUserSchema(user)

	_, err := s.db.NewInsert().
		Model(schema).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") ||
			strings.Contains(err.Error(), "users_email_key") {
			return nil, NewUserAlreadyExistsError(user.Email)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return userSchemaToUser(schema), nil
}

// Update writes every mutable column from the given record to the row
// matching its email, and returns the record as handed in. Callers that
// hand in a partially populated record therefore persist (and get back)
// exactly those fields.
func (s *PostgresUserStore) Update(ctx context.Context, user *User) (*User, error) {
	if user.Email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	schema := userToUserSchema(user)

	_, err := s.db.NewUpdate().
		Model(schema).
		Column("nick_name", "password", "salt", "gender").
		Where("email = ?", user.Email).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteByID removes a user row and returns the deleted record;
// (nil, nil) when no row matched
func (s *PostgresUserStore) DeleteByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	_, err = s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return user, nil
}

// ListAll returns every stored user ordered by id
func (s *PostgresUserStore) ListAll(ctx context.Context) ([]User, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]User, len(schemas))
	for i := range schemas {
		users[i] = *userSchemaToUser(&schemas[i])
	}
	return users, nil
}

// Helper conversion functions

func userSchemaToUser(schema *UserSchema) *User {
	return &User{
		ID:       schema.ID,
		Email:    schema.Email,
		NickName: schema.NickName,
		Password: schema.Password,
		Salt:     schema.Salt,
		Gender:   Gender(schema.Gender),
	}
}

func userToUserSchema(user *User) *UserSchema {
	return &UserSchema{
		ID:       user.ID,
		Email:    user.Email,
		NickName: user.NickName,
		Password: user.Password,
		Salt:     user.Salt,
		Gender:   int(user.Gender),
	}
}
