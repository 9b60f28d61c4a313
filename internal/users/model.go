package users

import "time"

// User is a row in profiles. Rows are created by the identity collaborator;
// this service only fills in what the bearer token tells it.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	ResumeUploadedAt *time.Time `json:"resume_uploaded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DisplayName returns the best human label for the user.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}
