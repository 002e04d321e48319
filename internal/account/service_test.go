package account

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory UserStore with the same observable semantics
// as the Postgres store: lookups return (nil, nil) on absence, Insert
// enforces email uniqueness, Update writes all mutable columns and hands
// back the record it was given.
type fakeStore struct {
	nextID int64
	users  []User
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (*User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(ctx context.Context, user *User) (*User, error) {
	for i := range s.users {
		if s.users[i].Email == user.Email {
			return nil, NewUserAlreadyExistsError(user.Email)
		}
	}
	stored := *user
	stored.ID = s.nextID
	s.nextID++
	s.users = append(s.users, stored)
	return &stored, nil
}

func (s *fakeStore) Update(ctx context.Context, user *User) (*User, error) {
	for i := range s.users {
		if s.users[i].Email == user.Email {
			s.users[i].NickName = user.NickName
			s.users[i].Password = user.Password
			s.users[i].Salt = user.Salt
			s.users[i].Gender = user.Gender
			break
		}
	}
	return user, nil
}

func (s *fakeStore) DeleteByID(ctx context.Context, id int64) (*User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			deleted := s.users[i]
			s.users = append(s.users[:i], s.users[i+1:]...)
			return &deleted, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]User, error) {
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// recorderMail records sends and can be told to fail
type recorderMail struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *recorderMail) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

const testBaseURL = "http://localhost:8080"

func newTestService() (*Service, *fakeStore, *recorderMail) {
	store := newFakeStore()
	mail := &recorderMail{}
	return NewService(store, mail, testBaseURL), store, mail
}

func seedUser(t *testing.T, store *fakeStore, email, plaintext, salt, nick string) *User {
	t.Helper()
	user, err := store.Insert(context.Background(), &User{
		Email:    email,
		NickName: nick,
		Password: ComputeDigest(plaintext, salt),
		Salt:     salt,
	})
	require.NoError(t, err)
	return user
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()
	seeded := seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

	t.Run("found returns full record", func(t *testing.T) {
		user, err := svc.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.Email, user.Email)
		assert.Equal(t, seeded.Password, user.Password)
		assert.Equal(t, seeded.Salt, user.Salt)
	})

	t.Run("missing id fails with user not found", func(t *testing.T) {
		_, err := svc.FindByID(ctx, 999)
		require.Error(t, err)
		assert.Equal(t, ErrKindNotFound, ErrKind(err))
	})
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()

	t.Run("stores digest and salt, never the plaintext", func(t *testing.T) {
		svc, store, _ := newTestService()

		user, err := svc.AddUser(ctx, &AddUserRequest{
			Email:    "a@x.com",
			NickName: "Alice",
			Password: "secret",
			Gender:   GenderFemale,
		})
		require.NoError(t, err)

		assert.NotZero(t, user.ID)
		assert.NotEmpty(t, user.Salt)
		assert.NotEqual(t, "secret", user.Password)
		assert.Equal(t, ComputeDigest("secret", user.Salt), user.Password)

		stored, err := store.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, user.Password, stored.Password)
	})

	t.Run("existing email fails and inserts nothing", func(t *testing.T) {
		svc, store, _ := newTestService()
		seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

		_, err := svc.AddUser(ctx, &AddUserRequest{Email: "a@x.com", Password: "other"})
		require.Error(t, err)
		assert.Equal(t, ErrKindAlreadyExists, ErrKind(err))
		assert.Len(t, store.users, 1)
	})

	t.Run("missing email or password rejected", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.AddUser(ctx, &AddUserRequest{Password: "pw"})
		assert.Error(t, err)

		_, err = svc.AddUser(ctx, &AddUserRequest{Email: "a@x.com"})
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches the validation link and persists nothing", func(t *testing.T) {
		svc, store, mail := newTestService()

		link, err := svc.Register(ctx, "a@x.com", "p w+d")
		require.NoError(t, err)

		require.Len(t, mail.sent, 1)
		assert.Equal(t, "a@x.com", mail.sent[0].to)
		assert.Equal(t, ActivationSubject, mail.sent[0].subject)
		assert.Equal(t, link, mail.sent[0].body)
		assert.Empty(t, store.users)

		// the link parameters are recoverable
		parsed, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, "/user/validate", parsed.Path)
		assert.Equal(t, "a@x.com", parsed.Query().Get("email"))
		assert.Equal(t, "p w+d", parsed.Query().Get("password"))
	})

	t.Run("existing email fails and sends no mail", func(t *testing.T) {
		svc, store, mail := newTestService()
		seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

		_, err := svc.Register(ctx, "a@x.com", "pw")
		require.Error(t, err)
		assert.Equal(t, ErrKindAlreadyExists, ErrKind(err))
		assert.Empty(t, mail.sent)
	})

	t.Run("mail failure propagates as generic failure", func(t *testing.T) {
		svc, _, mail := newTestService()
		mail.err = errors.New("smtp unreachable")

		_, err := svc.Register(ctx, "a@x.com", "pw")
		require.Error(t, err)
		assert.Equal(t, "", ErrKind(err))
		assert.Equal(t, CodeServerError, Fail(err).Code)
	})
}

func TestValidateCompletesRegistration(t *testing.T) {
	ctx := context.Background()
	svc, _, mail := newTestService()

	link, err := svc.Register(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)

	parsed, err := url.Parse(link)
	require.NoError(t, err)

	user, err := svc.Validate(ctx, parsed.Query().Get("email"), parsed.Query().Get("password"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	loggedIn, err := svc.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()
	seeded := seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

	t.Run("correct password returns the full record", func(t *testing.T) {
		user, err := svc.Login(ctx, "a@x.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
		assert.Equal(t, seeded.Password, user.Password)
		assert.Equal(t, "s1", user.Salt)
	})

	t.Run("wrong password fails authentication", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@x.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, ErrKindAuthFailed, ErrKind(err))
	})

	t.Run("unknown email fails with user not found", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@x.com", "pw")
		require.Error(t, err)
		assert.Equal(t, ErrKindNotFound, ErrKind(err))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("regenerates the salt and overwrites the nickname", func(t *testing.T) {
		svc, store, _ := newTestService()
		seedUser(t, store, "a@x.com", "old", "s1", "Alice")

		updated, err := svc.ChangePassword(ctx, &ChangePasswordRequest{
			Email:    "a@x.com",
			Password: "new",
			NickName: "Bob",
		})
		require.NoError(t, err)

		assert.NotEqual(t, "s1", updated.Salt)
		assert.Equal(t, ComputeDigest("new", updated.Salt), updated.Password)
		assert.Equal(t, "Bob", updated.NickName)

		// old password no longer works, new one does
		_, err = svc.Login(ctx, "a@x.com", "old")
		assert.Equal(t, ErrKindAuthFailed, ErrKind(err))
		_, err = svc.Login(ctx, "a@x.com", "new")
		assert.NoError(t, err)
	})

	t.Run("unknown email fails with user not found", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ChangePassword(ctx, &ChangePasswordRequest{Email: "nobody@x.com", Password: "new"})
		require.Error(t, err)
		assert.Equal(t, ErrKindNotFound, ErrKind(err))
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("persists only email and nickname, dropping the rest", func(t *testing.T) {
		svc, store, _ := newTestService()
		seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

		updated, err := svc.UpdateProfile(ctx, &UpdateProfileRequest{
			Email:    "a@x.com",
			NickName: "Bob",
		})
		require.NoError(t, err)

		assert.Equal(t, "Bob", updated.NickName)
		assert.Zero(t, updated.ID)
		assert.Empty(t, updated.Password)
		assert.Empty(t, updated.Salt)

		// the stored credentials are gone too; login fails afterwards
		_, err = svc.Login(ctx, "a@x.com", "pw")
		assert.Equal(t, ErrKindAuthFailed, ErrKind(err))
	})

	t.Run("unknown email fails with user not found", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.UpdateProfile(ctx, &UpdateProfileRequest{Email: "nobody@x.com", NickName: "Bob"})
		require.Error(t, err)
		assert.Equal(t, ErrKindNotFound, ErrKind(err))
	})
}

func TestListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store fails with no data", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.ListAll(ctx)
		require.Error(t, err)
		assert.Equal(t, ErrKindNoData, ErrKind(err))
	})

	t.Run("returns the stored set in order", func(t *testing.T) {
		svc, store, _ := newTestService()
		first := seedUser(t, store, "a@x.com", "pw", "s1", "Alice")
		second := seedUser(t, store, "b@x.com", "pw", "s2", "Bob")

		users, err := svc.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, first.Email, users[0].Email)
		assert.Equal(t, second.Email, users[1].Email)
	})
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the deleted record", func(t *testing.T) {
		svc, store, _ := newTestService()
		seeded := seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

		deleted, err := svc.DeleteByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.Email, deleted.Email)
		assert.Empty(t, store.users)
	})

	t.Run("missing id fails and leaves the store unchanged", func(t *testing.T) {
		svc, store, _ := newTestService()
		seedUser(t, store, "a@x.com", "pw", "s1", "Alice")

		_, err := svc.DeleteByID(ctx, 999)
		require.Error(t, err)
		assert.Equal(t, ErrKindNotFound, ErrKind(err))
		assert.Len(t, store.users, 1)
	})
}

func TestValidationLink(t *testing.T) {
	link := ValidationLink("http://example.com/", "a+b@x.com", "p&w=1")
	parsed, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "example.com", parsed.Host)
	assert.Equal(t, "/user/validate", parsed.Path)
	assert.Equal(t, "a+b@x.com", parsed.Query().Get("email"))
	assert.Equal(t, "p&w=1", parsed.Query().Get("password"))
}
