package models

import (
	"time"
)

// User 是审计里的操作者（actor），身份由外部服务签发
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName string `gorm:"size:255;not null" json:"displayName"`
	IsAdmin     bool   `gorm:"not null;default:false" json:"isAdmin"`

	LastSeenAt *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "inv_users"
}
