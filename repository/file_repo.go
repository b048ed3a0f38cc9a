package repository

import (
	"errors"

	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type fileRepo struct {
	db *gorm.DB
}

func (r *fileRepo) Create(f *models.FileUpload) error {
	return r.db.Create(f).Error
}

func (r *fileRepo) ByID(id string) (*models.FileUpload, error) {
	var f models.FileUpload
	if err := r.db.Where("file_id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) BySubmission(submissionID string) ([]models.FileUpload, error) {
	var rows []models.FileUpload
	err := r.db.
		Where("submission_id = ?", submissionID).
		Order("uploaded_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *fileRepo) CountBySubmission(submissionID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.FileUpload{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	return count, err
}

func (r *fileRepo) Delete(id string) error {
	res := r.db.Where("file_id = ?", id).Delete(&models.FileUpload{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) Orphaned() ([]models.FileUpload, error) {
	var rows []models.FileUpload
	err := r.db.Raw(`
		SELECT f.* FROM file_uploads f
		LEFT JOIN submissions s ON s.submission_id = f.submission_id
		WHERE s.submission_id IS NULL`).Scan(&rows).Error
	return rows, err
}
