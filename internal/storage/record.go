package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AnalysisRecord is one processed photo: the verdict, where the framed
// output lives and the hash that deduplicates repeat uploads.
type AnalysisRecord struct {
	ID         uint      `gorm:"primaryKey"`
	RequestID  string    `gorm:"column:request_id;uniqueIndex;size:64"`
	SHA1Hash   string    `gorm:"column:sha1_hash;index;size:40"`
	Verdict    string    `gorm:"column:verdict;size:16"`
	FrameStyle string    `gorm:"column:frame_style;size:16"`
	ImagePath  string    `gorm:"column:image_path;type:text"`
	ImageURL   string    `gorm:"column:image_url;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}

// RecordRepository provides persistence APIs for analysis records.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new repository instance.
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// AutoMigrate ensures the schema is available.
func (r *RecordRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&AnalysisRecord{})
}

// Save persists an analysis record.
func (r *RecordRepository) Save(ctx context.Context, record *AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// Recent returns the newest records, newest first.
func (r *RecordRepository) Recent(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	var records []AnalysisRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByHash returns the newest record for a photo hash.
func (r *RecordRepository) FindByHash(ctx context.Context, hash string) (*AnalysisRecord, error) {
	var record AnalysisRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&record, "sha1_hash = ?", hash).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AggregateMetrics counts all records and those with a positive verdict.
func (r *RecordRepository) AggregateMetrics(ctx context.Context) (total, positive int64, err error) {
	if err := r.db.WithContext(ctx).Model(&AnalysisRecord{}).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&AnalysisRecord{}).
		Where("verdict = ?", "yes").
		Count(&positive).Error; err != nil {
		return 0, 0, err
	}
	return total, positive, nil
}
