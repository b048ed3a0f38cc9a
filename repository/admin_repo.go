package repository

import (
	"errors"

	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type adminRepo struct {
	db *gorm.DB
}

func (r *adminRepo) ByEmail(email string) (*models.Admin, error) {
	var a models.Admin
	if err := r.db.Where("email = ? AND is_active = 1", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *adminRepo) ByID(id string) (*models.Admin, error) {
	var a models.Admin
	if err := r.db.Where("admin_id = ? AND is_active = 1", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *adminRepo) Update(id string, fields map[string]any) error {
	return r.db.Model(&models.Admin{}).Where("admin_id = ?", id).Updates(fields).Error
}
