package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"whatsapp-lead-logger/pkg/models"
)

// Lead is the archived copy of a row written to the spreadsheet.
type Lead struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp    string    `gorm:"type:varchar(19);not null" json:"timestamp"`
	CampaignName string    `gorm:"type:varchar(255);index" json:"campaign_name"`
	SourceID     string    `gorm:"type:varchar(64);index;not null" json:"source_id"`
	AdID         string    `gorm:"type:varchar(64)" json:"ad_id"`
	ContactName  string    `gorm:"type:varchar(255)" json:"contact_name"`
	ContactWaID  string    `gorm:"type:varchar(64);index" json:"contact_wa_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func NewLead(rec models.LeadRecord) Lead {
	return Lead{
		Timestamp:    rec.Timestamp,
		CampaignName: rec.CampaignName,
		SourceID:     rec.SourceID,
		AdID:         rec.AdID,
		ContactName:  rec.ContactName,
		ContactWaID:  rec.ContactWaID,
	}
}

// Record converts back to the spreadsheet row shape.
func (l Lead) Record() models.LeadRecord {
	return models.LeadRecord{
		Timestamp:    l.Timestamp,
		CampaignName: l.CampaignName,
		SourceID:     l.SourceID,
		AdID:         l.AdID,
		ContactName:  l.ContactName,
		ContactWaID:  l.ContactWaID,
	}
}
