package models

import "time"

// User roles. A user is promoted to Landlord when they publish their first
// listing; Moderator is assigned out of band.
const (
	RoleUser      = "User"
	RoleLandlord  = "Landlord"
	RoleModerator = "Moderator"
)

// User is the materialization of the identity collaborator: authentication and
// session issuance happen elsewhere, the server only resolves an already
// authenticated actor by id.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Role        string    `gorm:"size:20;default:User" json:"role"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	IsSuperuser bool      `gorm:"default:false" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsModerator reports whether the user can perform moderation actions.
func (u *User) IsModerator() bool {
	return u.IsSuperuser || u.Role == RoleModerator
}
