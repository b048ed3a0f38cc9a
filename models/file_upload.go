package models

import "time"

// Resource types for uploads.
const (
	ResourceImage    = "image"
	ResourceDocument = "document"
)

// FileUpload represents the file_uploads table. Each row belongs to exactly
// one submission; rows are hard-deleted when the author removes the file or
// when the orphan sweep finds no live submission for them.
type FileUpload struct {
	FileID       string         `gorm:"primaryKey;column:file_id" json:"file_id"`
	SubmissionID string         `gorm:"column:submission_id;index" json:"submission_id"`
	OriginalName string         `gorm:"column:original_name" json:"original_name"`
	ProviderID   string         `gorm:"column:provider_id" json:"provider_id"`
	URL          string         `gorm:"column:url" json:"url"`
	ResourceType string         `gorm:"column:resource_type" json:"resource_type"`
	MimeType     string         `gorm:"column:mime_type" json:"mime_type"`
	FileSize     int64          `gorm:"column:file_size" json:"file_size"`
	UploadedBy   string         `gorm:"column:uploaded_by" json:"uploaded_by"`
	Metadata     map[string]any `gorm:"column:metadata;serializer:json" json:"metadata,omitempty"`
	UploadedAt   time.Time      `gorm:"column:uploaded_at" json:"uploaded_at"`
}

// TableName specifies the table name for FileUpload.
func (FileUpload) TableName() string {
	return "file_uploads"
}

// GetFileSizeInMB reports the upload size in megabytes.
func (f *FileUpload) GetFileSizeInMB() float64 {
	return float64(f.FileSize) / (1024 * 1024)
}
