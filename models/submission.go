package models

import "time"

// SubmissionStatus is the closed set of lifecycle states for a submission.
type SubmissionStatus string

const (
	StatusDraft            SubmissionStatus = "DRAFT"
	StatusUnderReview      SubmissionStatus = "UNDER_REVIEW"
	StatusChangesRequested SubmissionStatus = "CHANGES_REQUESTED"
	StatusApproved         SubmissionStatus = "APPROVED"
	StatusPublished        SubmissionStatus = "PUBLISHED"
	StatusRejected         SubmissionStatus = "REJECTED"
	StatusExpired          SubmissionStatus = "EXPIRED"
)

// AllStatuses lists every known status, used for enum validation at the boundary.
var AllStatuses = []SubmissionStatus{
	StatusDraft,
	StatusUnderReview,
	StatusChangesRequested,
	StatusApproved,
	StatusPublished,
	StatusRejected,
	StatusExpired,
}

// IsTerminal reports whether no further transitions are allowed from the status.
// EXPIRED is not terminal: an admin can reactivate it.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusPublished || s == StatusRejected
}

// Valid reports whether the value is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Submission represents the submissions table.
type Submission struct {
	SubmissionID string           `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	Token        string           `gorm:"column:token;uniqueIndex" json:"-"`
	Title        string           `gorm:"column:title" json:"title"`
	Summary      string           `gorm:"column:summary" json:"summary"`
	Content      string           `gorm:"column:content" json:"content"`
	Keywords     []string         `gorm:"column:keywords;serializer:json" json:"keywords"`
	Category     string           `gorm:"column:category" json:"category"`
	Metadata     map[string]any   `gorm:"column:metadata;serializer:json" json:"metadata,omitempty"`
	Status       SubmissionStatus `gorm:"column:status" json:"status"`

	AuthorName        string  `gorm:"column:author_name" json:"author_name"`
	AuthorEmail       string  `gorm:"column:author_email" json:"author_email"`
	AuthorInstitution *string `gorm:"column:author_institution" json:"author_institution,omitempty"`

	ReviewedBy      *string    `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes     *string    `gorm:"column:review_notes" json:"review_notes,omitempty"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	PublishedSlug *string    `gorm:"column:published_slug" json:"published_slug,omitempty"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ExpiresAt   time.Time  `gorm:"column:expires_at" json:"expires_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`

	Attachments []FileUpload `gorm:"foreignKey:SubmissionID" json:"attachments,omitempty"`
}

// TableName specifies the table name for Submission.
func (Submission) TableName() string {
	return "submissions"
}

// Editable reports whether the author may still modify content directly.
func (s *Submission) Editable() bool {
	return s.Status == StatusDraft || s.Status == StatusChangesRequested
}

// Expired reports whether the access window has passed at the given instant.
func (s *Submission) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
