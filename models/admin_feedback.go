package models

import "time"

// Feedback status values.
const (
	FeedbackPending   = "PENDING"
	FeedbackAddressed = "ADDRESSED"
	FeedbackResolved  = "RESOLVED"
)

// AdminFeedback is a message from an admin to an author about one submission.
// Authors never mutate these rows directly; status moves only as later review
// cycles resolve them.
type AdminFeedback struct {
	FeedbackID   string    `gorm:"primaryKey;column:feedback_id" json:"feedback_id"`
	SubmissionID string    `gorm:"column:submission_id;index" json:"submission_id"`
	AdminID      string    `gorm:"column:admin_id" json:"admin_id"`
	AdminName    string    `gorm:"column:admin_name" json:"admin_name"`
	Content      string    `gorm:"column:content" json:"content"`
	Status       string    `gorm:"column:status" json:"status"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for AdminFeedback.
func (AdminFeedback) TableName() string {
	return "admin_feedback"
}
