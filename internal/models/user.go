package models

type User struct {
	ID           string `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	Username     string `json:"username" db:"username"`
	Password     string `json:"-" db:"password"` // Never return password in JSON
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	WelcomeShown bool   `json:"welcome_shown" db:"welcome_shown"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
	UpdatedAt    int64  `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt int64  `json:"created_at"`
}

// RegisterRequest is the request body for POST /api/auth/register
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,alphanum,max=150"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"first_name" validate:"required,max=30"`
	LastName     string `json:"last_name" validate:"required,max=30"`
	Organization string `json:"organization" validate:"max=100"`
	Phone        string `json:"phone" validate:"max=15"`
}

// DisplayName returns the full name, or the username when no name is set
func (u *User) DisplayName() string {
	full := u.FirstName
	if u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += u.LastName
	}
	if full == "" {
		return u.Username
	}
	return full
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}
