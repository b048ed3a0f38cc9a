package repository

import (
	"errors"
	"time"

	"editorial-submission-api/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that match no row. Services translate it
// into their own typed not-found errors.
var ErrNotFound = errors.New("record not found")

// SubmissionFilter is the AND-combined filter set for admin listings. Zero
// values mean "no constraint". SortBy must already be a sanitized column name
// when it reaches the repository. AuthorEmail is a substring match for admin
// browsing; AuthorEmailExact matches the column verbatim and is what identity-
// scoped reads must use.
type SubmissionFilter struct {
	Statuses         []models.SubmissionStatus
	Categories       []string
	AuthorEmail      string
	AuthorEmailExact string
	ReviewedBy       string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
	Query            string
	ExpiresWithin    int
	HasAttachments   *bool
	SortBy           string
	SortDesc         bool
	Page             int
	PageSize         int
}

// SubmissionPage is one page of an admin listing.
type SubmissionPage struct {
	Rows     []models.Submission `json:"rows"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// CategoryCount is one row of the dashboard category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// MonthCount is one row of the dashboard monthly trend.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// AuthorStat is one row of the dashboard top-author ranking.
type AuthorStat struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Total       int64  `json:"total"`
	Published   int64  `json:"published"`
}

// AdminReviewStat is the per-admin slice of review-time statistics.
type AdminReviewStat struct {
	AdminID  string  `json:"admin_id"`
	Reviews  int64   `json:"reviews"`
	AvgHours float64 `json:"avg_hours"`
}

// ReviewTimeStats aggregates submit-to-review latency in hours.
type ReviewTimeStats struct {
	AvgHours float64           `json:"avg_hours"`
	MinHours float64           `json:"min_hours"`
	MaxHours float64           `json:"max_hours"`
	PerAdmin []AdminReviewStat `json:"per_admin"`
}

// SubmissionRepository persists submissions and serves the reporting reads
// behind the admin dashboard.
type SubmissionRepository interface {
	ByID(id string) (*models.Submission, error)
	ByToken(token string) (*models.Submission, error)
	Create(s *models.Submission) error
	Update(id string, fields map[string]any) (*models.Submission, error)
	List(f SubmissionFilter) (*SubmissionPage, error)
	SearchRanked(query string, limit int) ([]models.Submission, error)
	ExpiringWithin(now time.Time, days int) ([]models.Submission, error)
	PastExpiry(now time.Time) ([]models.Submission, error)
	CountByAuthor(email string) (int64, error)
	StatusCounts() (map[models.SubmissionStatus]int64, error)
	CategoryCounts() ([]CategoryCount, error)
	MonthlyTrend(months int) ([]MonthCount, error)
	TopAuthors(limit int) ([]AuthorStat, error)
	ReviewTimes() (*ReviewTimeStats, error)
}

// FeedbackRepository persists admin feedback messages.
type FeedbackRepository interface {
	Create(f *models.AdminFeedback) error
	BySubmission(submissionID string) ([]models.AdminFeedback, error)
	CountBySubmission(submissionID string) (int64, error)
	UpdateStatusBySubmission(submissionID, from, to string) error
}

// ReviewRepository persists review-cycle records.
type ReviewRepository interface {
	Create(r *models.SubmissionReview) error
	BySubmission(submissionID string) ([]models.SubmissionReview, error)
}

// ActionLogFilter scopes reads of the audit trail. AdminID is mandatory:
// callers only ever see logs they are entitled to.
type ActionLogFilter struct {
	AdminID    string
	Action     string
	TargetType string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// ActionLogRepository appends to and reads the audit trail. There is no
// update or delete on purpose.
type ActionLogRepository interface {
	Create(l *models.AdminActionLog) error
	List(f ActionLogFilter) ([]models.AdminActionLog, int64, error)
}

// FileRepository persists upload records.
type FileRepository interface {
	Create(f *models.FileUpload) error
	ByID(id string) (*models.FileUpload, error)
	BySubmission(submissionID string) ([]models.FileUpload, error)
	CountBySubmission(submissionID string) (int64, error)
	Delete(id string) error
	Orphaned() ([]models.FileUpload, error)
}

// AdminRepository looks up reviewer accounts for authentication.
type AdminRepository interface {
	ByEmail(email string) (*models.Admin, error)
	ByID(id string) (*models.Admin, error)
	Update(id string, fields map[string]any) error
}

// Repositories bundles the GORM-backed implementations behind one database
// handle.
type Repositories struct {
	Submissions SubmissionRepository
	Feedback    FeedbackRepository
	Reviews     ReviewRepository
	ActionLogs  ActionLogRepository
	Files       FileRepository
	Admins      AdminRepository
}

// New wires every repository to the given database handle.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Submissions: &submissionRepo{db: db},
		Feedback:    &feedbackRepo{db: db},
		Reviews:     &reviewRepo{db: db},
		ActionLogs:  &actionLogRepo{db: db},
		Files:       &fileRepo{db: db},
		Admins:      &adminRepo{db: db},
	}
}
