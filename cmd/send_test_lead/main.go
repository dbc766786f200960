package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"whatsapp-lead-logger/internal/webhook"
	"whatsapp-lead-logger/pkg/models"
)

// Posts a simulated click-to-WhatsApp lead to a running receiver.
func main() {
	url := flag.String("url", "http://localhost:8080/webhook", "webhook endpoint")
	source := flag.String("source", "120211000000000000", "referral source_id (ad id looked up in the Graph API)")
	ad := flag.String("ad", "", "referral ad_id")
	name := flag.String("name", "Test Lead", "contact profile name")
	wa := flag.String("wa", "5210000000000", "contact wa_id")
	secret := flag.String("secret", os.Getenv("META_APP_SECRET"), "app secret used to sign the body")
	flag.Parse()

	req, err := buildRequest(*url, *secret, models.NewReferralPayload(*name, *wa, "Hola, quiero más información", models.MessageReferral{
		SourceID:   *source,
		SourceType: "ad",
		AdID:       *ad,
	}))
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	log.Printf("Status: %s, Body: %s", resp.Status, body)
}

func buildRequest(url, secret string, payload models.WebhookPayload) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(webhook.SignatureHeader, "sha256="+hex.EncodeToString(webhook.Sign(secret, body)))
	}
	return req, nil
}
