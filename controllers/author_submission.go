package controllers

import (
	"io"
	"net/http"
	"strconv"

	"editorial-submission-api/models"
	"editorial-submission-api/services"

	"github.com/gin-gonic/gin"
)

// AuthorSubmissionController is the anonymous author surface. Every route is
// authorized per submission by access token, and the mutating ones also
// require the author email (X-Author-Email header or form field).
type AuthorSubmissionController struct {
	submissions *services.SubmissionService
	uploads     *services.UploadGateway
}

// NewAuthorSubmissionController wires the author endpoints.
func NewAuthorSubmissionController(submissions *services.SubmissionService, uploads *services.UploadGateway) *AuthorSubmissionController {
	return &AuthorSubmissionController{submissions: submissions, uploads: uploads}
}

// Create handles POST /api/submissions.
func (ctrl *AuthorSubmissionController) Create(c *gin.Context) {
	var input services.CreateSubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sub, err := ctrl.submissions.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"submission_id": sub.SubmissionID,
		"token":         sub.Token,
		"status":        sub.Status,
		"expires_at":    sub.ExpiresAt,
	})
}

// Get handles GET /api/submissions/:token.
func (ctrl *AuthorSubmissionController) Get(c *gin.Context) {
	sub, info, err := ctrl.submissions.FetchByToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub, "token_info": info})
}

// Update handles PUT /api/submissions/:token.
func (ctrl *AuthorSubmissionController) Update(c *gin.Context) {
	var input services.UpdateSubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sub, err := ctrl.submissions.Update(c.Param("token"), authorEmail(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// AutoSave handles PATCH /api/submissions/:token/autosave. Always 200: a save
// failure is a soft "retry" so the editor never sees a hard error.
func (ctrl *AuthorSubmissionController) AutoSave(c *gin.Context) {
	var input services.UpdateSubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusOK, services.AutoSaveResult{Saved: false, Status: "retry"})
		return
	}
	c.JSON(http.StatusOK, ctrl.submissions.AutoSave(c.Param("token"), authorEmail(c), input))
}

// Submit handles POST /api/submissions/:token/submit.
func (ctrl *AuthorSubmissionController) Submit(c *gin.Context) {
	sub, err := ctrl.submissions.SubmitForReview(c.Param("token"), authorEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	// The token was rotated; the author needs the new one to keep access.
	c.JSON(http.StatusOK, gin.H{
		"submission_id": sub.SubmissionID,
		"status":        sub.Status,
		"token":         sub.Token,
		"submitted_at":  sub.SubmittedAt,
	})
}

// Preview handles GET /api/submissions/:token/preview.
func (ctrl *AuthorSubmissionController) Preview(c *gin.Context) {
	preview, err := ctrl.submissions.Preview(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Stats handles GET /api/authors/stats?email=...
func (ctrl *AuthorSubmissionController) Stats(c *gin.Context) {
	stats, err := ctrl.submissions.Stats(c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadImage handles POST /api/submissions/:token/files/image.
func (ctrl *AuthorSubmissionController) UploadImage(c *gin.Context) {
	ctrl.uploadSingle(c, models.ResourceImage)
}

// UploadDocument handles POST /api/submissions/:token/files/document.
func (ctrl *AuthorSubmissionController) UploadDocument(c *gin.Context) {
	ctrl.uploadSingle(c, models.ResourceDocument)
}

func (ctrl *AuthorSubmissionController) uploadSingle(c *gin.Context, resourceType string) {
	sub, _, err := ctrl.submissions.FetchByToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	data, filename, mimeType, err := readFormFile(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var record *models.FileUpload
	switch resourceType {
	case models.ResourceImage:
		record, err = ctrl.uploads.UploadImage(data, filename, mimeType, sub.SubmissionID, authorEmail(c))
	default:
		record, err = ctrl.uploads.UploadDocument(data, filename, mimeType, sub.SubmissionID, authorEmail(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": record})
}

// UploadMultiple handles POST /api/submissions/:token/files. Each file in the
// multipart form carries its resource type in the field name ("images" or
// "documents"); per-file failures are reported, never fatal to the batch.
func (ctrl *AuthorSubmissionController) UploadMultiple(c *gin.Context) {
	sub, _, err := ctrl.submissions.FetchByToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	var inputs []services.UploadInput
	for field, resourceType := range map[string]string{
		"images":    models.ResourceImage,
		"documents": models.ResourceDocument,
	} {
		for _, header := range form.File[field] {
			f, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
				return
			}
			inputs = append(inputs, services.UploadInput{
				Data:         data,
				Filename:     header.Filename,
				MimeType:     header.Header.Get("Content-Type"),
				ResourceType: resourceType,
			})
		}
	}
	if len(inputs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in request"})
		return
	}

	c.JSON(http.StatusOK, ctrl.uploads.UploadMultiple(inputs, sub.SubmissionID, authorEmail(c)))
}

// ListFiles handles GET /api/submissions/:token/files.
func (ctrl *AuthorSubmissionController) ListFiles(c *gin.Context) {
	preview, err := ctrl.submissions.Preview(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": preview.Attachments})
}

// DeleteFile handles DELETE /api/submissions/:token/files/:fileID.
func (ctrl *AuthorSubmissionController) DeleteFile(c *gin.Context) {
	if _, _, err := ctrl.submissions.FetchByToken(c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	if err := ctrl.uploads.Delete(c.Param("fileID"), authorEmail(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DownloadFile handles GET /api/submissions/:token/files/:fileID/download and
// redirects to a short-lived signed URL.
func (ctrl *AuthorSubmissionController) DownloadFile(c *gin.Context) {
	if _, _, err := ctrl.submissions.FetchByToken(c.Param("token")); err != nil {
		respondError(c, err)
		return
	}

	ttl, _ := strconv.Atoi(c.Query("ttl_minutes"))
	url, err := ctrl.uploads.DownloadURL(c.Param("fileID"), ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func authorEmail(c *gin.Context) string {
	if email := c.GetHeader("X-Author-Email"); email != "" {
		return email
	}
	return c.PostForm("author_email")
}

func readFormFile(c *gin.Context, field string) ([]byte, string, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", err
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", err
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}
