package leads

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"whatsapp-lead-logger/pkg/models"
)

func TestNewRecord_RowOrder(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

	rec := NewRecord(now, "Campaign_Alpha_X",
		models.Referral{SourceID: "120211", AdID: "987"},
		models.Contact{Name: "Ana", WaID: "5211234567890"},
	)

	assert.Equal(t,
		[]any{"2026-03-14 09:26:53", "Campaign_Alpha_X", "120211", "987", "Ana", "5211234567890"},
		rec.Row(),
	)
}

func TestNewRecord_TimestampFormat(t *testing.T) {
	rec := NewRecord(time.Now(), "x", models.Referral{}, models.Contact{})
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), rec.Timestamp)
}
