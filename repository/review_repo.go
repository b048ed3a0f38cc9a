package repository

import (
	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type reviewRepo struct {
	db *gorm.DB
}

func (r *reviewRepo) Create(review *models.SubmissionReview) error {
	return r.db.Create(review).Error
}

func (r *reviewRepo) BySubmission(submissionID string) ([]models.SubmissionReview, error) {
	var rows []models.SubmissionReview
	err := r.db.
		Where("submission_id = ?", submissionID).
		Order("reviewed_at ASC").
		Find(&rows).Error
	return rows, err
}
