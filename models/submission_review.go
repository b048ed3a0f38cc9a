package models

import "time"

// ReviewDecision is the outcome an admin records for one review cycle.
type ReviewDecision string

const (
	DecisionPending          ReviewDecision = "pending"
	DecisionApproved         ReviewDecision = "approved"
	DecisionRejected         ReviewDecision = "rejected"
	DecisionChangesRequested ReviewDecision = "changes_requested"
)

// Valid reports whether the decision is one a reviewer may record.
func (d ReviewDecision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRejected, DecisionChangesRequested:
		return true
	}
	return false
}

// SubmissionReview records one review decision. A submission accumulates one
// row per review cycle; its current status always reflects the latest row.
type SubmissionReview struct {
	ReviewID        string         `gorm:"primaryKey;column:review_id" json:"review_id"`
	SubmissionID    string         `gorm:"column:submission_id;index" json:"submission_id"`
	AdminID         string         `gorm:"column:admin_id" json:"admin_id"`
	AdminName       string         `gorm:"column:admin_name" json:"admin_name"`
	Status          ReviewDecision `gorm:"column:status" json:"status"`
	ReviewNotes     *string        `gorm:"column:review_notes" json:"review_notes,omitempty"`
	RejectionReason *string        `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedAt      time.Time      `gorm:"column:reviewed_at" json:"reviewed_at"`
}

// TableName specifies the table name for SubmissionReview.
func (SubmissionReview) TableName() string {
	return "submission_reviews"
}
