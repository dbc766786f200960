package models

// TimestampLayout is the layout of LeadRecord.Timestamp (server local time).
const TimestampLayout = "2006-01-02 15:04:05"

// Placeholders written when the notification omits a value.
const (
	DefaultAdID        = "N/A"
	DefaultContactName = "name not available"
	DefaultContactWaID = "ID not available"
)

// Referral links an inbound message to the ad that generated it.
type Referral struct {
	SourceID string `json:"source_id"`
	AdID     string `json:"ad_id"`
}

// Contact identifies the WhatsApp user who sent the message.
type Contact struct {
	Name string `json:"name"`
	WaID string `json:"wa_id"`
}

// LeadRecord is one spreadsheet row. Field order matches Row.
type LeadRecord struct {
	Timestamp    string `json:"timestamp"`
	CampaignName string `json:"campaign_name"`
	SourceID     string `json:"source_id"`
	AdID         string `json:"ad_id"`
	ContactName  string `json:"contact_name"`
	ContactWaID  string `json:"contact_wa_id"`
}

// Row returns the six columns in sheet order.
func (r LeadRecord) Row() []any {
	return []any{r.Timestamp, r.CampaignName, r.SourceID, r.AdID, r.ContactName, r.ContactWaID}
}
