package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whatsapp-lead-logger/pkg/models"
)

func TestPasses(t *testing.T) {
	tests := []struct {
		name     string
		campaign string
		prefix   string
		want     bool
	}{
		{"no prefix", "anything", "", true},
		{"no prefix sentinel", "error retrieving name", "", true},
		{"prefix match", "Campaign_Alpha_X", "Campaign_Alpha", true},
		{"exact match", "Campaign_Alpha", "Campaign_Alpha", true},
		{"prefix mismatch", "Campaign_Alpha_X", "Other", false},
		{"case sensitive", "campaign_alpha_x", "Campaign_Alpha", false},
		{"substring not at start", "X_Campaign_Alpha", "Campaign_Alpha", false},
		{"sentinel dropped", "name not found", "Campaign", false},
		{"sentinel literal prefix", "token not configured", "token", true},
		{"empty name", "", "Campaign", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Passes(tt.campaign, tt.prefix))
		})
	}
}

func TestFilter_Allow(t *testing.T) {
	rec := models.LeadRecord{CampaignName: "Campaign_Alpha_X"}

	assert.True(t, NewFilter("").Allow(rec))
	assert.True(t, NewFilter("Campaign_Alpha").Allow(rec))
	assert.False(t, NewFilter("Other").Allow(rec))
}
