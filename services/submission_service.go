package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"editorial-submission-api/models"
	"editorial-submission-api/repository"
	"editorial-submission-api/utils"
)

// CreateSubmissionInput is the author-supplied payload for a new submission.
type CreateSubmissionInput struct {
	Title             string         `json:"title"`
	Summary           string         `json:"summary"`
	Content           string         `json:"content"`
	Keywords          []string       `json:"keywords"`
	Category          string         `json:"category"`
	Metadata          map[string]any `json:"metadata"`
	AuthorName        string         `json:"author_name"`
	AuthorEmail       string         `json:"author_email"`
	AuthorInstitution string         `json:"author_institution"`
}

// UpdateSubmissionInput carries partial edits; nil fields are untouched.
type UpdateSubmissionInput struct {
	Title    *string        `json:"title"`
	Summary  *string        `json:"summary"`
	Content  *string        `json:"content"`
	Keywords []string       `json:"keywords"`
	Category *string        `json:"category"`
	Metadata map[string]any `json:"metadata"`
}

// AutoSaveResult is the soft outcome of a background save. Auto-save never
// surfaces a hard failure to the interactive caller; a failed save is
// reported as "retry" and logged.
type AutoSaveResult struct {
	Saved   bool      `json:"saved"`
	Status  string    `json:"status"`
	SavedAt time.Time `json:"saved_at,omitempty"`
}

// SubmissionPreview is the author's read view: content plus the attachment
// and feedback threads.
type SubmissionPreview struct {
	Submission  *models.Submission     `json:"submission"`
	Attachments []models.FileUpload    `json:"attachments"`
	Feedback    []models.AdminFeedback `json:"feedback"`
	TokenInfo   *TokenInfo             `json:"token_info"`
}

// AuthorStats summarizes one author's submissions by status.
type AuthorStats struct {
	Total    int64                             `json:"total"`
	ByStatus map[models.SubmissionStatus]int64 `json:"by_status"`
}

// SubmissionService is the author-facing surface: anonymous, authorized per
// submission by token plus author email.
type SubmissionService struct {
	subs     repository.SubmissionRepository
	feedback repository.FeedbackRepository
	files    repository.FileRepository
	tokens   *TokenService
	notifier Notifier
	cfg      TokenConfig
	now      func() time.Time
}

// NewSubmissionService wires the author surface to its collaborators.
func NewSubmissionService(repos *repository.Repositories, tokens *TokenService, notifier Notifier, cfg TokenConfig) *SubmissionService {
	cfg.applyDefaults()
	return &SubmissionService{
		subs:     repos.Submissions,
		feedback: repos.Feedback,
		files:    repos.Files,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Create registers a new DRAFT submission, mints its access token and mails
// the access link to the author. Admins get a best-effort heads-up.
func (s *SubmissionService) Create(input CreateSubmissionInput) (*models.Submission, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	now := s.now()
	sub := &models.Submission{
		SubmissionID:      newID(),
		Title:             input.Title,
		Summary:           input.Summary,
		Content:           input.Content,
		Keywords:          input.Keywords,
		Category:          input.Category,
		Metadata:          input.Metadata,
		Status:            models.StatusDraft,
		AuthorName:        input.AuthorName,
		AuthorEmail:       normalizeEmail(input.AuthorEmail),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.AuthorInstitution != "" {
		sub.AuthorInstitution = &input.AuthorInstitution
	}
	if err := s.tokens.Issue(sub); err != nil {
		return nil, err
	}
	if err := s.subs.Create(sub); err != nil {
		return nil, err
	}

	accessURL := fmt.Sprintf("%s/submissions?token=%s", strings.TrimSuffix(s.cfg.AuthorPortalURL, "/"), sub.Token)
	if s.notifier != nil {
		if err := s.notifier.Send(KindTokenIssued, []string{sub.AuthorEmail}, map[string]string{
			"AuthorName": sub.AuthorName,
			"Title":      sub.Title,
			"AccessURL":  accessURL,
			"ExpiresAt":  sub.ExpiresAt.Format("02/01/2006"),
		}); err != nil {
			slog.Error("failed to send access link", "submission_id", sub.SubmissionID, "error", err)
		}
		if len(s.cfg.AdminEmails) > 0 {
			if err := s.notifier.Send(KindAdminNewSubmission, s.cfg.AdminEmails, map[string]string{
				"Title":       sub.Title,
				"AuthorName":  sub.AuthorName,
				"AuthorEmail": sub.AuthorEmail,
				"Category":    sub.Category,
			}); err != nil {
				slog.Error("failed to notify admins of new submission", "error", err)
			}
		}
	}

	slog.Info("submission created", "submission_id", sub.SubmissionID, "category", sub.Category)
	return sub, nil
}

func (s *SubmissionService) validateCreate(input *CreateSubmissionInput) error {
	input.Title = utils.SanitizeInput(input.Title)
	input.AuthorName = utils.SanitizeInput(input.AuthorName)
	input.Category = utils.SanitizeInput(input.Category)

	if input.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if input.AuthorName == "" {
		return &ValidationError{Field: "author_name", Message: "author name is required"}
	}
	if !utils.ValidateEmail(strings.TrimSpace(input.AuthorEmail)) {
		return &ValidationError{Field: "author_email", Message: "a valid email is required"}
	}
	if input.Category == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}
	return nil
}

// FetchByToken resolves a submission for its author, translating token
// failures into typed errors.
func (s *SubmissionService) FetchByToken(token string) (*models.Submission, *TokenInfo, error) {
	check := s.tokens.Validate(token)
	switch {
	case check.Valid:
		return check.Submission, check.TokenInfo, nil
	case check.Reason == ReasonTokenExpired:
		return nil, nil, &TokenExpiredError{
			Submission: check.Submission,
			ExpiredAt:  check.Submission.ExpiresAt.Format(time.RFC3339),
		}
	case check.Reason == ReasonTokenNotFound:
		return nil, nil, &NotFoundError{Entity: "submission", ID: "by token"}
	case check.Reason == ReasonTokenInvalidFormat:
		return nil, nil, &InvalidTokenError{Reason: "malformed token"}
	default:
		return nil, nil, fmt.Errorf("token validation failed: %s", check.Reason)
	}
}

// Update applies author edits while the submission is editable.
func (s *SubmissionService) Update(token, authorEmail string, input UpdateSubmissionInput) (*models.Submission, error) {
	sub, _, err := s.FetchByToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.ValidateAuthorEmail(sub.SubmissionID, authorEmail); err != nil {
		return nil, err
	}
	if !sub.Editable() {
		return nil, &InvalidStatusError{
			Current: sub.Status,
			Allowed: []models.SubmissionStatus{models.StatusDraft, models.StatusChangesRequested},
			Attempt: "update",
		}
	}

	fields := s.updateFields(input)
	if len(fields) == 1 { // only updated_at
		return sub, nil
	}
	return s.subs.Update(sub.SubmissionID, fields)
}

func (s *SubmissionService) updateFields(input UpdateSubmissionInput) map[string]any {
	fields := map[string]any{"updated_at": s.now()}
	if input.Title != nil {
		fields["title"] = utils.SanitizeInput(*input.Title)
	}
	if input.Summary != nil {
		fields["summary"] = *input.Summary
	}
	if input.Content != nil {
		fields["content"] = *input.Content
	}
	if input.Keywords != nil {
		fields["keywords"] = input.Keywords
	}
	if input.Category != nil {
		fields["category"] = utils.SanitizeInput(*input.Category)
	}
	if input.Metadata != nil {
		fields["metadata"] = input.Metadata
	}
	return fields
}

// AutoSave is the background persistence path. Unlike Update it never
// returns a hard failure: anything that goes wrong is logged and reported as
// a soft "retry" so the editor keeps working.
func (s *SubmissionService) AutoSave(token, authorEmail string, input UpdateSubmissionInput) *AutoSaveResult {
	if _, err := s.Update(token, authorEmail, input); err != nil {
		slog.Warn("auto-save failed", "error", err)
		return &AutoSaveResult{Saved: false, Status: "retry"}
	}
	return &AutoSaveResult{Saved: true, Status: "saved", SavedAt: s.now()}
}

// SubmitForReview moves an editable submission into UNDER_REVIEW: required
// fields checked, submitted_at stamped, token rotated. From
// CHANGES_REQUESTED the pending feedback is marked addressed.
func (s *SubmissionService) SubmitForReview(token, authorEmail string) (*models.Submission, error) {
	sub, _, err := s.FetchByToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.ValidateAuthorEmail(sub.SubmissionID, authorEmail); err != nil {
		return nil, err
	}
	if err := CheckSubmitForReview(sub.Status); err != nil {
		return nil, err
	}

	if missing := s.missingFields(sub); len(missing) > 0 {
		return nil, &IncompleteSubmissionError{Missing: missing}
	}

	if sub.Status == models.StatusChangesRequested {
		count, err := s.feedback.CountBySubmission(sub.SubmissionID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, NewValidationError("submission has no feedback to address")
		}
	}

	newToken, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	updated, err := s.subs.Update(sub.SubmissionID, map[string]any{
		"status":       models.StatusUnderReview,
		"token":        newToken,
		"submitted_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, err
	}

	if sub.Status == models.StatusChangesRequested {
		if err := s.feedback.UpdateStatusBySubmission(sub.SubmissionID, models.FeedbackPending, models.FeedbackAddressed); err != nil {
			slog.Error("failed to mark feedback addressed", "submission_id", sub.SubmissionID, "error", err)
		}
	}

	slog.Info("submission sent for review", "submission_id", sub.SubmissionID)
	return updated, nil
}

func (s *SubmissionService) missingFields(sub *models.Submission) []string {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(sub.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(sub.Summary) == "" {
		missing = append(missing, "summary")
	}
	if strings.TrimSpace(sub.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(sub.Category) == "" {
		missing = append(missing, "category")
	}
	return missing
}

// Preview assembles the author's read view of a submission.
func (s *SubmissionService) Preview(token string) (*SubmissionPreview, error) {
	sub, info, err := s.FetchByToken(token)
	if err != nil {
		return nil, err
	}

	attachments, err := s.files.BySubmission(sub.SubmissionID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedback.BySubmission(sub.SubmissionID)
	if err != nil {
		return nil, err
	}

	return &SubmissionPreview{
		Submission:  sub,
		Attachments: attachments,
		Feedback:    feedback,
		TokenInfo:   info,
	}, nil
}

// Stats summarizes an author's submission history.
func (s *SubmissionService) Stats(authorEmail string) (*AuthorStats, error) {
	email := normalizeEmail(authorEmail)
	if !utils.ValidateEmail(email) {
		return nil, &ValidationError{Field: "author_email", Message: "a valid email is required"}
	}

	total, err := s.subs.CountByAuthor(email)
	if err != nil {
		return nil, err
	}
	page, err := s.subs.List(repository.SubmissionFilter{
		AuthorEmailExact: email,
		SortBy:           "created_at",
		SortDesc:         true,
		Page:             1,
		PageSize:         maxPageSize,
	})
	if err != nil {
		return nil, err
	}

	stats := &AuthorStats{
		Total:    total,
		ByStatus: make(map[models.SubmissionStatus]int64),
	}
	for _, sub := range page.Rows {
		stats.ByStatus[sub.Status]++
	}
	return stats, nil
}
