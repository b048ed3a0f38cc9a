package models

import "time"

// Admin is a reviewer account. Authors have no accounts; they authenticate
// per-submission with a token and their email address.
type Admin struct {
	AdminID      string     `gorm:"primaryKey;column:admin_id" json:"admin_id"`
	Email        string     `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash" json:"-"`
	DisplayName  string     `gorm:"column:display_name" json:"display_name"`
	IsActive     bool       `gorm:"column:is_active" json:"is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for Admin.
func (Admin) TableName() string {
	return "admins"
}
