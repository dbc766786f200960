package leads

import (
	"strings"

	"whatsapp-lead-logger/pkg/models"
)

// Passes reports whether campaignName is allowed by prefix. An empty prefix
// allows everything. Sentinel names such as "name not found" are matched like
// any other name, so they are dropped whenever a prefix is set.
func Passes(campaignName, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(campaignName, prefix)
}

// Filter applies the operator configured CAMPAIGN_PREFIX to lead records.
type Filter struct {
	Prefix string
}

func NewFilter(prefix string) Filter {
	return Filter{Prefix: prefix}
}

func (f Filter) Allow(r models.LeadRecord) bool {
	return Passes(r.CampaignName, f.Prefix)
}
