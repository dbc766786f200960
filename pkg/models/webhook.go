package models

// WebhookPayload is the lead-notification shape WhatsApp posts to /webhook.
// The receiver never unmarshals into it; the parser reads the raw JSON so that
// malformed deliveries cannot fail decoding. It is used to build deliveries.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value ChangeValue `json:"value"`
	Field string      `json:"field"`
}

type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

type InboundMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Referral *MessageReferral `json:"referral,omitempty"`
}

// MessageReferral is present when the conversation was opened from a
// click-to-WhatsApp ad.
type MessageReferral struct {
	SourceURL  string `json:"source_url,omitempty"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type,omitempty"`
	AdID       string `json:"ad_id,omitempty"`
	Headline   string `json:"headline,omitempty"`
	Body       string `json:"body,omitempty"`
	CtwaClid   string `json:"ctwa_clid,omitempty"`
}

// NewReferralPayload builds a single-message delivery carrying a referral.
func NewReferralPayload(contactName, waID, body string, ref MessageReferral) WebhookPayload {
	contact := WebhookContact{WaID: waID}
	contact.Profile.Name = contactName

	msg := InboundMessage{
		From:     waID,
		ID:       "wamid.test",
		Type:     "text",
		Referral: &ref,
	}
	msg.Text = &struct {
		Body string `json:"body"`
	}{Body: body}

	return WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			ID: "WHATSAPP_BUSINESS_ACCOUNT_ID",
			Changes: []Change{{
				Field: "messages",
				Value: ChangeValue{
					MessagingProduct: "whatsapp",
					Contacts:         []WebhookContact{contact},
					Messages:         []InboundMessage{msg},
				},
			}},
		}},
	}
}
