package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"editorial-submission-api/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto transport responses. Unexpected
// errors are logged and come back as a bare 500; typed errors carry their
// diagnostic payloads.
func respondError(c *gin.Context, err error) {
	var (
		validation   *services.ValidationError
		notFound     *services.NotFoundError
		tokenExpired *services.TokenExpiredError
		invalidToken *services.InvalidTokenError
		badStatus    *services.InvalidStatusError
		incomplete   *services.IncompleteSubmissionError
		attachment   *services.AttachmentError
		authz        *services.AuthorizationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &tokenExpired):
		c.JSON(http.StatusGone, gin.H{
			"error":       tokenExpired.Error(),
			"can_recover": tokenExpired.CanRecover(),
			"submission":  tokenExpired.Submission,
		})
	case errors.As(err, &invalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidToken.Error()})
	case errors.As(err, &badStatus):
		c.JSON(http.StatusConflict, gin.H{
			"error":            badStatus.Error(),
			"current_status":   badStatus.Current,
			"allowed_statuses": badStatus.Allowed,
		})
	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          incomplete.Error(),
			"missing_fields": incomplete.Missing,
		})
	case errors.As(err, &attachment):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   attachment.Error(),
			"details": attachment.Details,
		})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	default:
		slog.Error("unhandled error at boundary", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
