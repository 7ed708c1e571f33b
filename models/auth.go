package models

// SignupRequest carries the fields for creating either account type. Role
// decides which of the role-specific fields are required.
type SignupRequest struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// doctor fields
	Specialization string `json:"specialization,omitempty"`
	Hospital       string `json:"hospital,omitempty"`

	// patient fields
	Age     int    `json:"age,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Address string `json:"address,omitempty"`

	// shared
	Phone string `json:"phone"`
}

// SigninRequest carries signin credentials. Role is optional; when set the
// resolved account's role must match it.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthResponse is returned from both signup and signin
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	ID      string `json:"id"`
}
