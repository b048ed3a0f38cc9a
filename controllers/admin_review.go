package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"editorial-submission-api/middleware"
	"editorial-submission-api/models"
	"editorial-submission-api/repository"
	"editorial-submission-api/services"

	"github.com/gin-gonic/gin"
)

// AdminReviewController is the JWT-protected admin surface: dashboard,
// listings, review decisions, feedback, publish, bulk actions, token
// administration and the audit trail.
type AdminReviewController struct {
	engine  *services.AdminReviewEngine
	tokens  *services.TokenService
	uploads *services.UploadGateway
}

// NewAdminReviewController wires the admin endpoints.
func NewAdminReviewController(engine *services.AdminReviewEngine, tokens *services.TokenService, uploads *services.UploadGateway) *AdminReviewController {
	return &AdminReviewController{engine: engine, tokens: tokens, uploads: uploads}
}

// Dashboard handles GET /api/admin/dashboard.
func (ctrl *AdminReviewController) Dashboard(c *gin.Context) {
	snapshot, err := ctrl.engine.GetDashboard(middleware.AdminID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// List handles GET /api/admin/submissions with the full filter set.
func (ctrl *AdminReviewController) List(c *gin.Context) {
	f := parseSubmissionFilter(c)
	page, err := ctrl.engine.GetSubmissions(f, middleware.AdminID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search handles GET /api/admin/submissions/search?q=... with optional
// status/category narrowing.
func (ctrl *AdminReviewController) Search(c *gin.Context) {
	f := repository.SubmissionFilter{
		Categories: splitCSV(c.Query("category")),
	}
	for _, s := range splitCSV(c.Query("status")) {
		f.Statuses = append(f.Statuses, models.SubmissionStatus(s))
	}
	results, err := ctrl.engine.SearchSubmissions(c.Query("q"), middleware.AdminID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type reviewRequest struct {
	Status          string `json:"status" binding:"required"`
	ReviewNotes     string `json:"review_notes"`
	RejectionReason string `json:"rejection_reason"`
}

// Review handles POST /api/admin/submissions/:id/review.
func (ctrl *AdminReviewController) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	review, err := ctrl.engine.ReviewSubmission(
		c.Param("id"),
		middleware.AdminID(c),
		middleware.AdminName(c),
		models.ReviewDecision(req.Status),
		req.ReviewNotes,
		req.RejectionReason,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

type feedbackRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendFeedback handles POST /api/admin/submissions/:id/feedback.
func (ctrl *AdminReviewController) SendFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	fb, err := ctrl.engine.SendFeedback(c.Param("id"), middleware.AdminID(c), middleware.AdminName(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback": fb})
}

// Feedback handles GET /api/admin/submissions/:id/feedback.
func (ctrl *AdminReviewController) Feedback(c *gin.Context) {
	fb, err := ctrl.engine.GetSubmissionFeedback(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": fb})
}

// Reviews handles GET /api/admin/submissions/:id/reviews.
func (ctrl *AdminReviewController) Reviews(c *gin.Context) {
	reviews, err := ctrl.engine.GetSubmissionReviews(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// Publish handles POST /api/admin/submissions/:id/publish. The outcome is a
// tagged result; a failed publish is 422 with the reason, never a 500.
func (ctrl *AdminReviewController) Publish(c *gin.Context) {
	var req services.PublishRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	result := ctrl.engine.PublishSubmission(c.Param("id"), middleware.AdminID(c), req)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BulkAction handles POST /api/admin/submissions/bulk.
func (ctrl *AdminReviewController) BulkAction(c *gin.Context) {
	var req services.BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := ctrl.engine.PerformBulkAction(req, middleware.AdminID(c), middleware.AdminName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ActionLog handles GET /api/admin/action-log, always scoped to the caller.
func (ctrl *AdminReviewController) ActionLog(c *gin.Context) {
	f := repository.ActionLogFilter{
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 0),
	}
	if from, ok := queryTime(c, "from"); ok {
		f.From = &from
	}
	if to, ok := queryTime(c, "to"); ok {
		f.To = &to
	}

	page, err := ctrl.engine.GetAdminActionLog(middleware.AdminID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type renewRequest struct {
	AdditionalDays int `json:"additional_days" binding:"required"`
}

// RenewToken handles POST /api/admin/submissions/:id/token/renew.
func (ctrl *AdminReviewController) RenewToken(c *gin.Context) {
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "additional_days is required"})
		return
	}

	newExpiry, err := ctrl.tokens.Renew(c.Param("id"), req.AdditionalDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expires_at": newExpiry})
}

// RegenerateToken handles POST /api/admin/submissions/:id/token/regenerate.
func (ctrl *AdminReviewController) RegenerateToken(c *gin.Context) {
	token, expiresAt, err := ctrl.tokens.Regenerate(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}

type reactivateRequest struct {
	ExpiryDays int `json:"expiry_days"`
}

// Reactivate handles POST /api/admin/submissions/:id/reactivate.
func (ctrl *AdminReviewController) Reactivate(c *gin.Context) {
	var req reactivateRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	result, err := ctrl.tokens.ReactivateExpired(c.Param("id"), req.ExpiryDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Expiring handles GET /api/admin/submissions/expiring?days=7.
func (ctrl *AdminReviewController) Expiring(c *gin.Context) {
	days := queryInt(c, "days", 7)
	subs, err := ctrl.tokens.FindExpiring(days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs, "count": len(subs)})
}

// Files handles GET /api/admin/submissions/:id/files.
func (ctrl *AdminReviewController) Files(c *gin.Context) {
	files, err := ctrl.uploads.ListBySubmission(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// FileURL handles GET /api/admin/files/:fileID/url and returns a short-lived
// signed URL for reviewing an attachment.
func (ctrl *AdminReviewController) FileURL(c *gin.Context) {
	url, err := ctrl.uploads.DownloadURL(c.Param("fileID"), queryInt(c, "ttl_minutes", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func parseSubmissionFilter(c *gin.Context) repository.SubmissionFilter {
	f := repository.SubmissionFilter{
		AuthorEmail: c.Query("author_email"),
		ReviewedBy:  c.Query("reviewed_by"),
		Query:       c.Query("q"),
		SortBy:      c.Query("sort_by"),
		SortDesc:    c.Query("sort_order") != "asc",
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 0),
	}

	for _, s := range splitCSV(c.Query("status")) {
		f.Statuses = append(f.Statuses, models.SubmissionStatus(s))
	}
	f.Categories = splitCSV(c.Query("category"))

	if from, ok := queryTime(c, "created_from"); ok {
		f.CreatedFrom = &from
	}
	if to, ok := queryTime(c, "created_to"); ok {
		f.CreatedTo = &to
	}
	f.ExpiresWithin = queryInt(c, "expires_within", 0)
	if v := c.Query("has_attachments"); v != "" {
		has := v == "true" || v == "1"
		f.HasAttachments = &has
	}
	return f
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		if t, err = time.Parse("2006-01-02", v); err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}
