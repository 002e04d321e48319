package account

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ActivationSubject is the fixed subject line of the registration mail
const ActivationSubject = "Account activation"

// ValidationLink builds the activation URL mailed out by Register. The
// link embeds the email and the plaintext password as recoverable query
// parameters; this matches the external contract of the system but is a
// known information-exposure anti-pattern, so integrators should front the
// mail channel with TLS and treat the link as a bearer credential.
func ValidationLink(base, email, password string) string {
	return fmt.Sprintf("%s/user/validate?email=%s&password=%s",
		strings.TrimRight(base, "/"),
		url.QueryEscape(email),
		url.QueryEscape(password))
}

// Service implements AccountManager on top of a UserStore and a MailChannel
type Service struct {
	store           UserStore
	mail            MailChannel
	validateBaseURL string
}

// NewService creates a new account service instance
func NewService(store UserStore, mail MailChannel, validateBaseURL string) *Service {
	return &Service{
		store:           store,
		mail:            mail,
		validateBaseURL: validateBaseURL,
	}
}

// FindByID looks up a user by its store-assigned id. The returned record
// includes the password digest and salt; nothing is redacted.
func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUserNotFoundError("")
	}
	return user, nil
}

// AddUser stores a new user record. The plaintext password in the request
// is replaced with a salted digest before anything is persisted.
func (s *Service) AddUser(ctx context.Context, req *AddUserRequest) (*User, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if req.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	existing, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewUserAlreadyExistsError(req.Email)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:    req.Email,
		NickName: req.NickName,
		Password: ComputeDigest(req.Password, salt),
		Salt:     salt,
		Gender:   req.Gender,
	}

	return s.store.Insert(ctx, user)
}

// Register dispatches a validation link to the given address and returns
// the link. No user record is persisted here; registration completes when
// the link is followed (see Validate). Mail-send failures propagate
// unwrapped.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", NewUserAlreadyExistsError(email)
	}

	link := ValidationLink(s.validateBaseURL, email, password)
	if err := s.mail.Send(ctx, email, ActivationSubject, link); err != nil {
		return "", err
	}

	return link, nil
}

// Validate completes a registration started by Register: it persists the
// user carried by the validation link through the same salt/digest path
// as AddUser.
func (s *Service) Validate(ctx context.Context, email, password string) (*User, error) {
	return s.AddUser(ctx, &AddUserRequest{Email: email, Password: password})
}

// Login authenticates by recomputing the digest from the supplied
// plaintext and the stored salt. On success the full stored record is
// returned.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUserNotFoundError(email)
	}

	if !VerifyDigest(password, user.Salt, user.Password) {
		return nil, NewAuthFailedError(email)
	}

	return user, nil
}

// ChangePassword re-digests the supplied plaintext under a fresh salt and
// overwrites the nickname. The caller is trusted on the strength of the
// email alone; there is no re-authentication step.
func (s *Service) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*User, error) {
	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUserNotFoundError(req.Email)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	user.Password = ComputeDigest(req.Password, salt)
	user.Salt = salt
	user.NickName = req.NickName

	return s.store.Update(ctx, user)
}

// UpdateProfile persists a fresh record carrying only the email and the
// nickname. The fetched record's id, password, salt and gender are
// deliberately not carried over, matching the original controller's
// behavior; after a profile update the account's credentials are gone
// until the password is set again.
func (s *Service) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	existing, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewUserNotFoundError(req.Email)
	}

	fresh := &User{
		Email:    req.Email,
		NickName: req.NickName,
	}

	return s.store.Update(ctx, fresh)
}

// ListAll returns every stored user. An empty store is an error
// condition, not an empty list.
func (s *Service) ListAll(ctx context.Context) ([]User, error) {
	users, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, NewNoDataError()
	}
	return users, nil
}

// DeleteByID removes a user by id and returns the deleted record
func (s *Service) DeleteByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUserNotFoundError("")
	}
	return user, nil
}
