package model

import "time"

type User struct {
	ID                    int64
	Username              string
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              string
	Enabled               bool
	AccountNonLocked      bool
	AccountNonExpired     bool
	CredentialsNonExpired bool
	CreatedAt             time.Time
	LastLogin             *time.Time
}

// UserResponse is the caller-facing projection of a user. The password
// hash and the internal status flags never leave the service.
type UserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// AuthUser is the request principal extracted from a validated access token.
type AuthUser struct {
	Username string
}
