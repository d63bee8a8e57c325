package models

import "time"

type UserProfile struct {
	UserID             string  `json:"user_id" db:"user_id"`
	Organization       *string `json:"organization,omitempty" db:"organization"`
	Phone              *string `json:"phone,omitempty" db:"phone"`
	AvatarURL          *string `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio                string  `json:"bio" db:"bio"`
	Location           string  `json:"location" db:"location"`
	DateJoinedExtended int64   `json:"date_joined_extended" db:"date_joined_extended"` // Unix timestamp
	IsVerified         bool    `json:"is_verified" db:"is_verified"`
}

// UserProfileResponse is what we send to the client
type UserProfileResponse struct {
	DisplayName   string  `json:"displayName"`
	Organization  *string `json:"organization"`
	Phone         *string `json:"phone"`
	AvatarURL     *string `json:"avatarUrl"`
	Bio           string  `json:"bio"`
	Location      string  `json:"location"`
	DateJoinedIso string  `json:"dateJoinedIso"`
	IsVerified    bool    `json:"isVerified"`
}

// UpdateProfileRequest is the request body for PATCH /api/profile
type UpdateProfileRequest struct {
	Organization *string `json:"organization,omitempty" validate:"omitempty,max=100"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=15"`
	AvatarURL    *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio          *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location     *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

func (p *UserProfile) ToUserProfileResponse(displayName string) UserProfileResponse {
	return UserProfileResponse{
		DisplayName:   displayName,
		Organization:  p.Organization,
		Phone:         p.Phone,
		AvatarURL:     p.AvatarURL,
		Bio:           p.Bio,
		Location:      p.Location,
		DateJoinedIso: time.Unix(p.DateJoinedExtended, 0).UTC().Format(time.RFC3339),
		IsVerified:    p.IsVerified,
	}
}
