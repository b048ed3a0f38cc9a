package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"editorial-submission-api/cache"
	"editorial-submission-api/models"
	"editorial-submission-api/repository"
	"editorial-submission-api/utils"
)

// Bulk action names.
const (
	BulkApprove        = "approve"
	BulkReject         = "reject"
	BulkRequestChanges = "request_changes"
	BulkExtendExpiry   = "extend_expiry"
)

// Listing and bulk limits.
const (
	maxBulkIDs        = 50
	maxPageSize       = 100
	defaultPageSize   = 20
	maxSearchResults  = 50
	minSearchQueryLen = 2
	dashboardCacheKey = "dashboard:snapshot"
	dashboardCacheTTL = 60 * time.Second
)

// sortColumns is the allow-list for admin listing sorts. Anything else falls
// back to updated_at descending so a crafted sort parameter can never reach
// the query.
var sortColumns = map[string]string{
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"title":       "title",
	"author_name": "author_name",
	"status":      "status",
}

// DashboardSnapshot is the best-effort aggregate view for admins. Sub-queries
// are independent reads; the snapshot is not transactionally consistent.
type DashboardSnapshot struct {
	StatusCounts map[models.SubmissionStatus]int64 `json:"status_counts"`
	Categories   []repository.CategoryCount        `json:"categories"`
	MonthlyTrend []repository.MonthCount           `json:"monthly_trend"`
	TopAuthors   []repository.AuthorStat           `json:"top_authors"`
	ReviewTimes  *repository.ReviewTimeStats       `json:"review_times"`
	GeneratedAt  time.Time                         `json:"generated_at"`
}

// PublishRequest carries optional publish parameters.
type PublishRequest struct {
	SlugOverride string `json:"slug_override,omitempty"`
}

// PublishResult is a tagged result: publish is called from both direct and
// bulk paths and must never panic the batch, so failures come back as values.
type PublishResult struct {
	Success    bool   `json:"success"`
	ArticleURL string `json:"article_url,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BulkActionRequest is one admin-issued batch.
type BulkActionRequest struct {
	Action          string   `json:"action"`
	SubmissionIDs   []string `json:"submission_ids"`
	Notes           string   `json:"notes,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	ExtendDays      int      `json:"extend_days,omitempty"`
}

// BulkItemError records one failed id within a batch.
type BulkItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkSummary totals one batch.
type BulkSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BulkActionResult reports a batch with per-item isolation: every id either
// succeeded or appears in Failed with its error.
type BulkActionResult struct {
	Successful []string        `json:"successful"`
	Failed     []BulkItemError `json:"failed"`
	Summary    BulkSummary     `json:"summary"`
}

// ActionLogPage is one page of the audit trail.
type ActionLogPage struct {
	Logs  []models.AdminActionLog `json:"logs"`
	Total int64                   `json:"total"`
}

// AdminReviewEngine orchestrates admin review, feedback, publish, bulk
// actions and reporting on top of the lifecycle rules.
type AdminReviewEngine struct {
	subs           repository.SubmissionRepository
	reviews        repository.ReviewRepository
	feedback       repository.FeedbackRepository
	logs           repository.ActionLogRepository
	tokens         *TokenService
	notifier       Notifier
	publishBaseURL string
	now            func() time.Time
}

// NewAdminReviewEngine wires the engine to its collaborators.
func NewAdminReviewEngine(
	repos *repository.Repositories,
	tokens *TokenService,
	notifier Notifier,
	publishBaseURL string,
) *AdminReviewEngine {
	return &AdminReviewEngine{
		subs:           repos.Submissions,
		reviews:        repos.Reviews,
		feedback:       repos.Feedback,
		logs:           repos.ActionLogs,
		tokens:         tokens,
		notifier:       notifier,
		publishBaseURL: strings.TrimSuffix(publishBaseURL, "/"),
		now:            time.Now,
	}
}

// GetDashboard assembles the aggregate snapshot, cached briefly because every
// admin landing page hits it.
func (e *AdminReviewEngine) GetDashboard(adminID string) (*DashboardSnapshot, error) {
	var snapshot DashboardSnapshot
	err := cache.CacheAside(dashboardCacheKey, &snapshot, dashboardCacheTTL, func() error {
		statusCounts, err := e.subs.StatusCounts()
		if err != nil {
			return err
		}
		categories, err := e.subs.CategoryCounts()
		if err != nil {
			return err
		}
		trend, err := e.subs.MonthlyTrend(12)
		if err != nil {
			return err
		}
		authors, err := e.subs.TopAuthors(10)
		if err != nil {
			return err
		}
		reviewTimes, err := e.subs.ReviewTimes()
		if err != nil {
			return err
		}
		snapshot = DashboardSnapshot{
			StatusCounts: statusCounts,
			Categories:   categories,
			MonthlyTrend: trend,
			TopAuthors:   authors,
			ReviewTimes:  reviewTimes,
			GeneratedAt:  e.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetSubmissions returns a filtered, paginated listing. All filters are
// optional and AND-combined.
func (e *AdminReviewEngine) GetSubmissions(f repository.SubmissionFilter, adminID string) (*repository.SubmissionPage, error) {
	for _, status := range f.Statuses {
		if !status.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
		}
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "updated_at"
		f.SortDesc = true
	}
	f.SortBy = column

	return e.subs.List(f)
}

// SearchSubmissions runs a ranked free-text search, relevance first, recency
// second. Queries shorter than two characters are rejected. Status and
// category filters narrow the ranked set without disturbing its order.
func (e *AdminReviewEngine) SearchSubmissions(query, adminID string, f repository.SubmissionFilter) ([]models.Submission, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryLen {
		return nil, &ValidationError{Field: "query", Message: "must be at least 2 characters"}
	}
	for _, status := range f.Statuses {
		if !status.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
		}
	}

	ranked, err := e.subs.SearchRanked(query, maxSearchResults)
	if err != nil {
		return nil, err
	}
	if len(f.Statuses) == 0 && len(f.Categories) == 0 {
		return ranked, nil
	}

	out := make([]models.Submission, 0, len(ranked))
	for _, sub := range ranked {
		if len(f.Statuses) > 0 && !statusIn(sub.Status, f.Statuses) {
			continue
		}
		if len(f.Categories) > 0 && !stringIn(sub.Category, f.Categories) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func stringIn(value string, set []string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// ReviewSubmission records one review decision: exactly one SubmissionReview
// row and one audit entry, plus an author notification for rejected and
// changes_requested outcomes. An approved outcome defers notification until
// publish.
func (e *AdminReviewEngine) ReviewSubmission(submissionID, adminID, adminName string, decision models.ReviewDecision, notes, rejectionReason string) (*models.SubmissionReview, error) {
	review, err := e.applyReview(submissionID, adminID, adminName, decision, notes, rejectionReason)
	if err != nil {
		return nil, err
	}

	e.logAction(adminID, "review_submission", "submission", submissionID, map[string]any{
		"decision": string(decision),
	})
	return review, nil
}

func (e *AdminReviewEngine) applyReview(submissionID, adminID, adminName string, decision models.ReviewDecision, notes, rejectionReason string) (*models.SubmissionReview, error) {
	if !decision.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown review decision %q", decision)}
	}
	if decision == models.DecisionRejected && strings.TrimSpace(rejectionReason) == "" {
		return nil, &ValidationError{Field: "rejection_reason", Message: "required when rejecting"}
	}

	sub, err := e.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return nil, err
	}
	if err := CheckAdminReview(sub.Status); err != nil {
		return nil, err
	}

	newStatus, _ := StatusForDecision(decision)
	now := e.now()
	fields := map[string]any{
		"status":      newStatus,
		"reviewed_by": adminID,
		"reviewed_at": now,
		"updated_at":  now,
	}
	if notes != "" {
		fields["review_notes"] = notes
	}
	if decision == models.DecisionRejected {
		fields["rejection_reason"] = rejectionReason
	}
	if _, err := e.subs.Update(submissionID, fields); err != nil {
		return nil, err
	}

	if decision == models.DecisionApproved || decision == models.DecisionRejected {
		if err := e.feedback.UpdateStatusBySubmission(submissionID, models.FeedbackAddressed, models.FeedbackResolved); err != nil {
			slog.Error("failed to resolve feedback", "submission_id", submissionID, "error", err)
		}
	}

	review := &models.SubmissionReview{
		ReviewID:     newID(),
		SubmissionID: submissionID,
		AdminID:      adminID,
		AdminName:    adminName,
		Status:       decision,
		ReviewedAt:   now,
	}
	if notes != "" {
		review.ReviewNotes = &notes
	}
	if decision == models.DecisionRejected {
		review.RejectionReason = &rejectionReason
	}
	if err := e.reviews.Create(review); err != nil {
		return nil, err
	}

	switch decision {
	case models.DecisionRejected:
		e.notifyAuthor(KindRejectionNotice, sub, map[string]string{
			"AuthorName": sub.AuthorName,
			"Title":      sub.Title,
			"Reason":     rejectionReason,
		})
	case models.DecisionChangesRequested:
		e.notifyAuthor(KindChangesRequested, sub, map[string]string{
			"AuthorName": sub.AuthorName,
			"Title":      sub.Title,
			"Notes":      notes,
		})
	}

	return review, nil
}

// SendFeedback attaches an admin message to a submission and moves it to
// CHANGES_REQUESTED if it was not there already. The author notification is
// best-effort: the feedback row and status change are already committed, so a
// mail failure is logged rather than unwinding the caller-visible result.
func (e *AdminReviewEngine) SendFeedback(submissionID, adminID, adminName, content string) (*models.AdminFeedback, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "feedback content is required"}
	}

	sub, err := e.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "submission", ID: submissionID}
		}
		return nil, err
	}
	if err := CheckSendFeedback(sub.Status); err != nil {
		return nil, err
	}

	fb := &models.AdminFeedback{
		FeedbackID:   newID(),
		SubmissionID: submissionID,
		AdminID:      adminID,
		AdminName:    adminName,
		Content:      content,
		Status:       models.FeedbackPending,
		CreatedAt:    e.now(),
	}
	if err := e.feedback.Create(fb); err != nil {
		return nil, err
	}

	if sub.Status != models.StatusChangesRequested {
		if _, err := e.subs.Update(submissionID, map[string]any{
			"status":     models.StatusChangesRequested,
			"updated_at": e.now(),
		}); err != nil {
			return nil, err
		}
	}

	e.logAction(adminID, "send_feedback", "submission", submissionID, map[string]any{
		"feedback_id": fb.FeedbackID,
	})

	e.notifyAuthor(KindFeedback, sub, map[string]string{
		"AuthorName": sub.AuthorName,
		"Title":      sub.Title,
		"AdminName":  adminName,
		"Content":    content,
	})

	return fb, nil
}

// PublishSubmission publishes an APPROVED submission under a slug derived
// from its title. Failures come back in the result, never as an error.
func (e *AdminReviewEngine) PublishSubmission(submissionID, adminID string, req PublishRequest) *PublishResult {
	sub, err := e.subs.ByID(submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &PublishResult{Success: false, Error: "Submissão não encontrada"}
		}
		slog.Error("publish lookup failed", "submission_id", submissionID, "error", err)
		return &PublishResult{Success: false, Error: "erro interno ao carregar a submissão"}
	}

	if err := CheckPublish(sub.Status); err != nil {
		return &PublishResult{Success: false, Error: err.Error()}
	}

	slug := req.SlugOverride
	if slug == "" {
		slug = utils.Slugify(sub.Title)
	}
	if slug == "" {
		return &PublishResult{Success: false, Error: "não foi possível gerar um slug a partir do título"}
	}

	now := e.now()
	articleURL := fmt.Sprintf("%s/articles/%s", e.publishBaseURL, slug)
	if _, err := e.subs.Update(submissionID, map[string]any{
		"status":         models.StatusPublished,
		"published_slug": slug,
		"published_at":   now,
		"updated_at":     now,
	}); err != nil {
		slog.Error("publish update failed", "submission_id", submissionID, "error", err)
		return &PublishResult{Success: false, Error: "erro interno ao publicar a submissão"}
	}

	e.logAction(adminID, "publish_submission", "submission", submissionID, map[string]any{
		"slug": slug,
	})

	e.notifyAuthor(KindPublishNotice, sub, map[string]string{
		"AuthorName": sub.AuthorName,
		"Title":      sub.Title,
		"ArticleURL": articleURL,
	})

	return &PublishResult{Success: true, ArticleURL: articleURL, Slug: slug}
}

// PerformBulkAction applies one action to each id independently and in
// sequence; per-item failures are collected, never fatal to the batch. One
// aggregate audit entry is written regardless of outcomes.
func (e *AdminReviewEngine) PerformBulkAction(req BulkActionRequest, adminID, adminName string) (*BulkActionResult, error) {
	if len(req.SubmissionIDs) == 0 {
		return nil, &ValidationError{Field: "submission_ids", Message: "at least one submission id is required"}
	}
	if len(req.SubmissionIDs) > maxBulkIDs {
		return nil, &ValidationError{
			Field:   "submission_ids",
			Message: fmt.Sprintf("at most %d submissions per bulk action", maxBulkIDs),
		}
	}

	switch req.Action {
	case BulkApprove, BulkRequestChanges:
	case BulkReject:
		if strings.TrimSpace(req.RejectionReason) == "" {
			return nil, &ValidationError{Field: "rejection_reason", Message: "required when rejecting"}
		}
	case BulkExtendExpiry:
		if req.ExtendDays <= 0 {
			return nil, &ValidationError{Field: "extend_days", Message: "must be positive"}
		}
	default:
		return nil, &ValidationError{Field: "action", Message: fmt.Sprintf("unknown bulk action %q", req.Action)}
	}

	result := &BulkActionResult{
		Successful: make([]string, 0, len(req.SubmissionIDs)),
		Failed:     make([]BulkItemError, 0),
	}

	// Sequential on purpose: bounds store load at the cost of latency.
	for _, id := range req.SubmissionIDs {
		var err error
		switch req.Action {
		case BulkApprove:
			_, err = e.applyReview(id, adminID, adminName, models.DecisionApproved, req.Notes, "")
		case BulkReject:
			_, err = e.applyReview(id, adminID, adminName, models.DecisionRejected, req.Notes, req.RejectionReason)
		case BulkRequestChanges:
			_, err = e.applyReview(id, adminID, adminName, models.DecisionChangesRequested, req.Notes, "")
		case BulkExtendExpiry:
			_, err = e.tokens.Renew(id, req.ExtendDays)
		}

		if err != nil {
			result.Failed = append(result.Failed, BulkItemError{ID: id, Error: bulkErrorMessage(err)})
			continue
		}
		result.Successful = append(result.Successful, id)
	}

	result.Summary = BulkSummary{
		Total:      len(req.SubmissionIDs),
		Successful: len(result.Successful),
		Failed:     len(result.Failed),
	}

	e.logAction(adminID, "bulk_action", "submission", "", map[string]any{
		"action":     req.Action,
		"total":      result.Summary.Total,
		"successful": result.Summary.Successful,
		"failed":     result.Summary.Failed,
	})

	return result, nil
}

// GetAdminActionLog reads the audit trail, always scoped to the caller's own
// entries.
func (e *AdminReviewEngine) GetAdminActionLog(adminID string, f repository.ActionLogFilter) (*ActionLogPage, error) {
	f.AdminID = adminID
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	logs, total, err := e.logs.List(f)
	if err != nil {
		return nil, err
	}
	return &ActionLogPage{Logs: logs, Total: total}, nil
}

// GetSubmissionFeedback lists the feedback thread for one submission.
func (e *AdminReviewEngine) GetSubmissionFeedback(submissionID string) ([]models.AdminFeedback, error) {
	return e.feedback.BySubmission(submissionID)
}

// GetSubmissionReviews lists the review history for one submission.
func (e *AdminReviewEngine) GetSubmissionReviews(submissionID string) ([]models.SubmissionReview, error) {
	return e.reviews.BySubmission(submissionID)
}

func (e *AdminReviewEngine) logAction(adminID, action, targetType, targetID string, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &models.AdminActionLog{
		LogID:      newID(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    string(payload),
		CreatedAt:  e.now(),
	}
	if err := e.logs.Create(entry); err != nil {
		slog.Error("failed to write admin action log", "action", action, "error", err)
	}
}

func (e *AdminReviewEngine) notifyAuthor(kind NotificationKind, sub *models.Submission, data map[string]string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Send(kind, []string{sub.AuthorEmail}, data); err != nil {
		slog.Error("failed to notify author",
			"kind", string(kind),
			"submission_id", sub.SubmissionID,
			"error", err,
		)
	}
}

// bulkErrorMessage converts per-item failures into the user-facing strings
// the admin UI shows inside a batch report.
func bulkErrorMessage(err error) string {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "Submissão não encontrada"
	}
	return err.Error()
}
