package account

// Gender enumerates the gender values a user record may carry
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderMale
	GenderFemale
)

// User is the identity and credential record stored by the service.
// Password always holds digest(plaintext, salt) once persisted; the
// plaintext only ever appears in inbound requests.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email"`
	NickName string `json:"nickName,omitempty"`
	Password string `json:"password,omitempty"`
	Salt     string `json:"salt,omitempty"`
	Gender   Gender `json:"gender,omitempty"`
}

// AddUserRequest carries an inbound user record whose Password field is
// still plaintext
type AddUserRequest struct {
	Email    string `json:"email"`
	NickName string `json:"nickName"`
	Password string `json:"password"`
	Gender   Gender `json:"gender"`
}

// ChangePasswordRequest carries the email identifying the account, the new
// plaintext password, and the nickname to overwrite
type ChangePasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	NickName string `json:"nickName"`
}

// UpdateProfileRequest carries the fields a profile update persists
type UpdateProfileRequest struct {
	Email    string `json:"email"`
	NickName string `json:"nickName"`
}
