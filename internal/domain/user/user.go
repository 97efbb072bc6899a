package user

import "errors"

// User is the only persisted entity. The same shape is used for storage and for
// HTTP responses.
type User struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Store level conditions. Backends translate their native signals into these.
var (
	ErrNotFound        = errors.New("user not found")
	ErrConditionFailed = errors.New("user condition check failed")
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// pointers so that an omitted field can be told apart from an empty one
type EditUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// Changes is the attribute set of a partial update. Nil fields are left untouched.
type Changes struct {
	Name  *string
	Email *string
}

func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Email == nil
}

// Apply returns u with the supplied changes written over it.
func (c Changes) Apply(u User) User {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	return u
}

// ScanFilter narrows a scan. The zero value matches every item.
type ScanFilter struct {
	Email *string
}

func (f ScanFilter) Matches(u User) bool {
	if f.Email != nil && u.Email != *f.Email {
		return false
	}
	return true
}

func ByEmail(email string) ScanFilter {
	return ScanFilter{Email: &email}
}
