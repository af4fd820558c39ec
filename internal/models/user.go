package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id" bson:"_id"`
	Email     string    `gorm:"uniqueIndex;not null;size:320" json:"email" bson:"email"`
	Name      string    `gorm:"size:200" json:"name" bson:"name"`
	Role      string    `gorm:"size:50;default:'member'" json:"role" bson:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
