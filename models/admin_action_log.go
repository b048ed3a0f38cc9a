package models

import "time"

// AdminActionLog is the append-only audit trail. Rows are written at the end
// of every mutating admin operation and are never updated or deleted.
type AdminActionLog struct {
	LogID      string    `gorm:"primaryKey;column:log_id" json:"log_id"`
	AdminID    string    `gorm:"column:admin_id;index" json:"admin_id"`
	Action     string    `gorm:"column:action" json:"action"`
	TargetType string    `gorm:"column:target_type" json:"target_type"`
	TargetID   string    `gorm:"column:target_id" json:"target_id"`
	Details    string    `gorm:"column:details" json:"details"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for AdminActionLog.
func (AdminActionLog) TableName() string {
	return "admin_action_logs"
}
