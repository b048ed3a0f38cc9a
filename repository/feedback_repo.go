package repository

import (
	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type feedbackRepo struct {
	db *gorm.DB
}

func (r *feedbackRepo) Create(f *models.AdminFeedback) error {
	return r.db.Create(f).Error
}

func (r *feedbackRepo) BySubmission(submissionID string) ([]models.AdminFeedback, error) {
	var rows []models.AdminFeedback
	err := r.db.
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *feedbackRepo) CountBySubmission(submissionID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.AdminFeedback{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	return count, err
}

func (r *feedbackRepo) UpdateStatusBySubmission(submissionID, from, to string) error {
	return r.db.Model(&models.AdminFeedback{}).
		Where("submission_id = ? AND status = ?", submissionID, from).
		Update("status", to).Error
}
