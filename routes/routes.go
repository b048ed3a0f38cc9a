package routes

import (
	"editorial-submission-api/controllers"
	"editorial-submission-api/middleware"
	"editorial-submission-api/repository"

	"github.com/gin-gonic/gin"
)

// Controllers bundles every controller the router mounts.
type Controllers struct {
	Auth   *controllers.AuthController
	Author *controllers.AuthorSubmissionController
	Admin  *controllers.AdminReviewController
}

// SetupRoutes mounts the public author surface and the JWT-protected admin
// surface on the router.
func SetupRoutes(router *gin.Engine, ctrls Controllers, jwtSecret string, admins repository.AdminRepository) {
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", ctrls.Auth.Login)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Editorial Submission API is running",
				})
			})

			// Author surface: anonymous, authorized per submission by
			// access token (plus X-Author-Email on mutations).
			submissions := public.Group("/submissions")
			{
				submissions.POST("", ctrls.Author.Create)
				submissions.GET("/:token", ctrls.Author.Get)
				submissions.PUT("/:token", ctrls.Author.Update)
				submissions.PATCH("/:token/autosave", ctrls.Author.AutoSave)
				submissions.POST("/:token/submit", ctrls.Author.Submit)
				submissions.GET("/:token/preview", ctrls.Author.Preview)

				submissions.GET("/:token/files", ctrls.Author.ListFiles)
				submissions.POST("/:token/files", ctrls.Author.UploadMultiple)
				submissions.POST("/:token/files/image", ctrls.Author.UploadImage)
				submissions.POST("/:token/files/document", ctrls.Author.UploadDocument)
				submissions.DELETE("/:token/files/:fileID", ctrls.Author.DeleteFile)
				submissions.GET("/:token/files/:fileID/download", ctrls.Author.DownloadFile)
			}

			public.GET("/authors/stats", ctrls.Author.Stats)
		}

		// Admin routes (require authentication)
		protected := v1.Group("/admin")
		protected.Use(middleware.AuthMiddleware(jwtSecret, admins))
		{
			protected.POST("/refresh", ctrls.Auth.Refresh)

			protected.GET("/dashboard", ctrls.Admin.Dashboard)
			protected.GET("/action-log", ctrls.Admin.ActionLog)
			protected.GET("/files/:fileID/url", ctrls.Admin.FileURL)

			subs := protected.Group("/submissions")
			{
				subs.GET("", ctrls.Admin.List)
				subs.GET("/search", ctrls.Admin.Search)
				subs.GET("/expiring", ctrls.Admin.Expiring)
				subs.POST("/bulk", ctrls.Admin.BulkAction)

				subs.POST("/:id/review", ctrls.Admin.Review)
				subs.GET("/:id/reviews", ctrls.Admin.Reviews)
				subs.POST("/:id/feedback", ctrls.Admin.SendFeedback)
				subs.GET("/:id/feedback", ctrls.Admin.Feedback)
				subs.POST("/:id/publish", ctrls.Admin.Publish)
				subs.GET("/:id/files", ctrls.Admin.Files)

				subs.POST("/:id/token/renew", ctrls.Admin.RenewToken)
				subs.POST("/:id/token/regenerate", ctrls.Admin.RegenerateToken)
				subs.POST("/:id/reactivate", ctrls.Admin.Reactivate)
			}
		}
	}
}
