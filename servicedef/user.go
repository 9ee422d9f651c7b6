package servicedef

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	// LoginTypeLogin is the value the backend expects in LoginParams.Type.
	LoginTypeLogin = "LOGIN"

	// DefaultSeedPassword is the password of every seeded user unless configured otherwise.
	DefaultSeedPassword = "s3cret"
)

// User is the users resource as returned by the backend. Password is never expected in a
// response; it is only here so that seeded records and create payloads can share the type.
type User struct {
	ID          string     `json:"id"`
	UUID        string     `json:"uuid,omitempty"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Username    string     `json:"username"`
	Password    string     `json:"password,omitempty"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber"`
	Avatar      string     `json:"avatar"`
	Balance     int64      `json:"balance"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
}

// Profile returns the public view of the user.
func (u User) Profile() ProfileUser {
	return ProfileUser{FirstName: u.FirstName, LastName: u.LastName, Avatar: u.Avatar}
}

// ProfileUser is the public profile view. It deliberately has no balance or password.
type ProfileUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
}

// CreateUserParams is the body of POST /users.
type CreateUserParams struct {
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Username    string              `json:"username"`
	Password    string              `json:"password"`
	Email       string              `json:"email"`
	PhoneNumber string              `json:"phoneNumber"`
	Avatar      string              `json:"avatar"`
	Balance     ldvalue.OptionalInt `json:"balance"`
}

// AsMap returns the params as a JSON object, leaving out balance if it is not defined. This
// is what actually gets sent, since an explicit null balance is not the same as no balance.
func (p CreateUserParams) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"firstName":   p.FirstName,
		"lastName":    p.LastName,
		"username":    p.Username,
		"password":    p.Password,
		"email":       p.Email,
		"phoneNumber": p.PhoneNumber,
		"avatar":      p.Avatar,
	}
	if p.Balance.IsDefined() {
		m["balance"] = p.Balance.IntValue()
	}
	return m
}

// UpdateUserParams is the body of PATCH /users/:userId. Only non-nil fields are sent.
type UpdateUserParams struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Password    *string `json:"password,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
}

// LoginParams is the body of POST /login.
type LoginParams struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserFields lists every property a client may send when creating a user.
var UserFields = []string{
	"firstName", "lastName", "username", "password", "email", "phoneNumber", "avatar", "balance",
}

// UpdatableUserFields lists every property a client may send when updating a user.
var UpdatableUserFields = []string{
	"firstName", "lastName", "password", "email", "phoneNumber", "avatar", "defaultPrivacyLevel",
}
