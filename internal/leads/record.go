package leads

import (
	"time"

	"whatsapp-lead-logger/pkg/models"
)

// NewRecord assembles the row for one lead, stamped with now in local time.
func NewRecord(now time.Time, campaignName string, ref models.Referral, contact models.Contact) models.LeadRecord {
	return models.LeadRecord{
		Timestamp:    now.Local().Format(models.TimestampLayout),
		CampaignName: campaignName,
		SourceID:     ref.SourceID,
		AdID:         ref.AdID,
		ContactName:  contact.Name,
		ContactWaID:  contact.WaID,
	}
}
