package repository

import (
	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type actionLogRepo struct {
	db *gorm.DB
}

func (r *actionLogRepo) Create(l *models.AdminActionLog) error {
	return r.db.Create(l).Error
}

func (r *actionLogRepo) List(f ActionLogFilter) ([]models.AdminActionLog, int64, error) {
	q := r.db.Model(&models.AdminActionLog{}).Where("admin_id = ?", f.AdminID)

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AdminActionLog
	offset := (f.Page - 1) * f.PageSize
	err := q.Order("created_at DESC").Limit(f.PageSize).Offset(offset).Find(&rows).Error
	return rows, total, err
}
