package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"whatsapp-lead-logger/internal/models"
	pkgmodels "whatsapp-lead-logger/pkg/models"
)

// LeadStore archives every recorded lead so it can be listed, exported and
// replayed into the spreadsheet.
type LeadStore struct {
	db *gorm.DB
}

func NewLeadStore(db *gorm.DB) *LeadStore {
	return &LeadStore{db: db}
}

// Append inserts rec. Repeated deliveries produce repeated rows.
func (s *LeadStore) Append(ctx context.Context, rec pkgmodels.LeadRecord) error {
	lead := models.NewLead(rec)
	return s.db.WithContext(ctx).Create(&lead).Error
}

// Recent returns up to limit leads, newest first.
func (s *LeadStore) Recent(ctx context.Context, limit int) ([]models.Lead, error) {
	var leads []models.Lead
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&leads).Error
	return leads, err
}

// Since returns leads archived at or after t, oldest first. t may be in any zone.
func (s *LeadStore) Since(ctx context.Context, t time.Time) ([]models.Lead, error) {
	var leads []models.Lead
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", t.UTC()).
		Order("created_at ASC").
		Find(&leads).Error
	return leads, err
}

// Each streams every archived lead to fn, newest first, and stops at the first
// error fn returns.
func (s *LeadStore) Each(ctx context.Context, fn func(models.Lead) error) error {
	db := s.db.WithContext(ctx)
	rows, err := db.Model(&models.Lead{}).Order("created_at DESC").Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var lead models.Lead
		if err := db.ScanRows(rows, &lead); err != nil {
			return err
		}
		if err := fn(lead); err != nil {
			return err
		}
	}
	return rows.Err()
}
