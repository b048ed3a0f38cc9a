package repository

import (
	"errors"
	"fmt"
	"time"

	"editorial-submission-api/models"

	"gorm.io/gorm"
)

type submissionRepo struct {
	db *gorm.DB
}

func (r *submissionRepo) ByID(id string) (*models.Submission, error) {
	var s models.Submission
	if err := r.db.Where("submission_id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) ByToken(token string) (*models.Submission, error) {
	var s models.Submission
	if err := r.db.Where("token = ?", token).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) Create(s *models.Submission) error {
	return r.db.Create(s).Error
}

func (r *submissionRepo) Update(id string, fields map[string]any) (*models.Submission, error) {
	res := r.db.Model(&models.Submission{}).Where("submission_id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.ByID(id)
}

func (r *submissionRepo) List(f SubmissionFilter) (*SubmissionPage, error) {
	q := r.db.Model(&models.Submission{})

	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	if f.AuthorEmail != "" {
		q = q.Where("author_email LIKE ?", "%"+f.AuthorEmail+"%")
	}
	if f.AuthorEmailExact != "" {
		q = q.Where("author_email = ?", f.AuthorEmailExact)
	}
	if f.ReviewedBy != "" {
		q = q.Where("reviewed_by = ?", f.ReviewedBy)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("title LIKE ? OR author_name LIKE ? OR content LIKE ?", like, like, like)
	}
	if f.ExpiresWithin > 0 {
		deadline := time.Now().AddDate(0, 0, f.ExpiresWithin)
		q = q.Where("expires_at <= ? AND status NOT IN ?", deadline, []models.SubmissionStatus{
			models.StatusPublished, models.StatusRejected, models.StatusExpired,
		})
	}
	if f.HasAttachments != nil {
		sub := r.db.Model(&models.FileUpload{}).
			Select("1").
			Where("file_uploads.submission_id = submissions.submission_id")
		if *f.HasAttachments {
			q = q.Where("EXISTS (?)", sub)
		} else {
			q = q.Where("NOT EXISTS (?)", sub)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	order := fmt.Sprintf("%s %s", f.SortBy, direction)

	var rows []models.Submission
	offset := (f.Page - 1) * f.PageSize
	if err := q.Order(order).Limit(f.PageSize).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	return &SubmissionPage{Rows: rows, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (r *submissionRepo) SearchRanked(query string, limit int) ([]models.Submission, error) {
	// Natural-language fulltext over the content columns, with a LIKE catch
	// for author name/email. Relevance first, recency second.
	like := "%" + query + "%"
	var rows []models.Submission
	err := r.db.Raw(`
		SELECT * FROM submissions
		WHERE MATCH(title, summary, content) AGAINST (? IN NATURAL LANGUAGE MODE)
		   OR author_name LIKE ? OR author_email LIKE ?
		ORDER BY MATCH(title, summary, content) AGAINST (? IN NATURAL LANGUAGE MODE) DESC,
		         created_at DESC
		LIMIT ?`,
		query, like, like, query, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) ExpiringWithin(now time.Time, days int) ([]models.Submission, error) {
	deadline := now.AddDate(0, 0, days)
	var rows []models.Submission
	err := r.db.
		Where("expires_at > ? AND expires_at <= ?", now, deadline).
		Where("status NOT IN ?", []models.SubmissionStatus{
			models.StatusPublished, models.StatusRejected, models.StatusExpired,
		}).
		Order("expires_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *submissionRepo) PastExpiry(now time.Time) ([]models.Submission, error) {
	var rows []models.Submission
	err := r.db.
		Where("expires_at < ?", now).
		Where("status NOT IN ?", []models.SubmissionStatus{
			models.StatusPublished, models.StatusRejected, models.StatusExpired,
		}).
		Find(&rows).Error
	return rows, err
}

func (r *submissionRepo) CountByAuthor(email string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Submission{}).Where("author_email = ?", email).Count(&count).Error
	return count, err
}

func (r *submissionRepo) StatusCounts() (map[models.SubmissionStatus]int64, error) {
	var rows []struct {
		Status models.SubmissionStatus
		Count  int64
	}
	err := r.db.Model(&models.Submission{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.SubmissionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *submissionRepo) CategoryCounts() ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.Model(&models.Submission{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *submissionRepo) MonthlyTrend(months int) ([]MonthCount, error) {
	since := time.Now().AddDate(0, -months, 0)
	var rows []MonthCount
	err := r.db.Raw(`
		SELECT DATE_FORMAT(created_at, '%Y-%m') AS month, COUNT(*) AS count
		FROM submissions
		WHERE created_at >= ?
		GROUP BY month
		ORDER BY month ASC`, since).Scan(&rows).Error
	return rows, err
}

func (r *submissionRepo) TopAuthors(limit int) ([]AuthorStat, error) {
	var rows []AuthorStat
	err := r.db.Raw(`
		SELECT author_name, author_email,
		       COUNT(*) AS total,
		       SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS published
		FROM submissions
		GROUP BY author_email, author_name
		HAVING total > 1
		ORDER BY published DESC, total DESC
		LIMIT ?`, models.StatusPublished, limit).Scan(&rows).Error
	return rows, err
}

func (r *submissionRepo) ReviewTimes() (*ReviewTimeStats, error) {
	var overall struct {
		AvgHours float64
		MinHours float64
		MaxHours float64
	}
	err := r.db.Raw(`
		SELECT AVG(TIMESTAMPDIFF(SECOND, submitted_at, reviewed_at)) / 3600 AS avg_hours,
		       MIN(TIMESTAMPDIFF(SECOND, submitted_at, reviewed_at)) / 3600 AS min_hours,
		       MAX(TIMESTAMPDIFF(SECOND, submitted_at, reviewed_at)) / 3600 AS max_hours
		FROM submissions
		WHERE submitted_at IS NOT NULL AND reviewed_at IS NOT NULL`).Scan(&overall).Error
	if err != nil {
		return nil, err
	}

	var perAdmin []AdminReviewStat
	err = r.db.Raw(`
		SELECT reviewed_by AS admin_id,
		       COUNT(*) AS reviews,
		       AVG(TIMESTAMPDIFF(SECOND, submitted_at, reviewed_at)) / 3600 AS avg_hours
		FROM submissions
		WHERE submitted_at IS NOT NULL AND reviewed_at IS NOT NULL AND reviewed_by IS NOT NULL
		GROUP BY reviewed_by
		ORDER BY reviews DESC`).Scan(&perAdmin).Error
	if err != nil {
		return nil, err
	}

	return &ReviewTimeStats{
		AvgHours: overall.AvgHours,
		MinHours: overall.MinHours,
		MaxHours: overall.MaxHours,
		PerAdmin: perAdmin,
	}, nil
}
