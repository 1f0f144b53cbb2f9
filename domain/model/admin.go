package model

import "time"

// AdminProfile describes the signed-in operator
type AdminProfile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	LastLogin time.Time `json:"lastLogin"`
	AvatarURL string    `json:"avatarUrl"`
}
