package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	WorkOSID  *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AsParticipant projects the user into a conversation roster entry.
func (u *User) AsParticipant(isViewer bool) Participant {
	return Participant{
		UserID:      u.ID,
		DisplayName: u.Name,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		IsViewer:    isViewer,
	}
}
