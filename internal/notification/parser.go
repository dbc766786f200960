// Package notification extracts lead candidates from raw WhatsApp webhook
// deliveries. Every lookup tolerates missing keys and wrong types, so a
// malformed delivery yields an incomplete result instead of an error.
package notification

import (
	"github.com/tidwall/gjson"

	"whatsapp-lead-logger/pkg/models"
)

// Outcome tells why parsing stopped.
type Outcome int

const (
	Complete Outcome = iota
	Malformed
	NoEntry
	NoChanges
	NotWhatsApp
	NoMessages
	NoReferral
	NoSourceID
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Malformed:
		return "malformed json"
	case NoEntry:
		return "no entry"
	case NoChanges:
		return "no changes"
	case NotWhatsApp:
		return "not whatsapp"
	case NoMessages:
		return "no messages"
	case NoReferral:
		return "no referral"
	case NoSourceID:
		return "no source_id"
	default:
		return "unknown"
	}
}

// Candidate is a lead waiting for its campaign name.
type Candidate struct {
	Referral models.Referral
	Contact  models.Contact
}

// Result is Complete with a Candidate, or any other Outcome with a zero one.
type Result struct {
	Outcome   Outcome
	Candidate Candidate
}

// OK reports whether a lead candidate was found.
func (r Result) OK() bool { return r.Outcome == Complete }

// Parse walks entry[0].changes[0].value and pulls out the referral and contact.
func Parse(body []byte) Result {
	if !gjson.ValidBytes(body) {
		return Result{Outcome: Malformed}
	}
	root := gjson.ParseBytes(body)

	entry, ok := first(root.Get("entry"))
	if !ok {
		return Result{Outcome: NoEntry}
	}
	change, ok := first(entry.Get("changes"))
	if !ok {
		return Result{Outcome: NoChanges}
	}

	value := change.Get("value")
	if product := value.Get("messaging_product"); product.Type != gjson.String || product.Str != "whatsapp" {
		return Result{Outcome: NotWhatsApp}
	}

	// The contact block sits beside messages, so it is read even when no lead follows.
	contact := models.Contact{Name: models.DefaultContactName, WaID: models.DefaultContactWaID}
	if c, ok := first(value.Get("contacts")); ok {
		contact.Name = stringOr(c.Get("profile.name"), models.DefaultContactName)
		contact.WaID = stringOr(c.Get("wa_id"), models.DefaultContactWaID)
	}

	message, ok := first(value.Get("messages"))
	if !ok {
		return Result{Outcome: NoMessages}
	}
	referral := message.Get("referral")
	if !referral.Exists() {
		return Result{Outcome: NoReferral}
	}

	sourceID := referral.Get("source_id")
	if !truthy(sourceID) {
		return Result{Outcome: NoSourceID}
	}

	return Result{
		Outcome: Complete,
		Candidate: Candidate{
			Referral: models.Referral{
				SourceID: scalarString(sourceID),
				AdID:     stringOr(referral.Get("ad_id"), models.DefaultAdID),
			},
			Contact: contact,
		},
	}
}

// first returns element 0 of a JSON array. Objects, scalars and empty arrays
// miss. gjson would otherwise resolve "0" as an object key.
func first(r gjson.Result) (gjson.Result, bool) {
	if !r.IsArray() {
		return gjson.Result{}, false
	}
	elems := r.Array()
	if len(elems) == 0 {
		return gjson.Result{}, false
	}
	return elems[0], true
}

// stringOr returns the scalar text of r, or fallback when r is absent or null.
func stringOr(r gjson.Result, fallback string) string {
	if !r.Exists() || r.Type == gjson.Null {
		return fallback
	}
	return scalarString(r)
}

func scalarString(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

// truthy mirrors JSON truthiness: null, false, "", 0, [] and {} are false.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	}
	return false
}
