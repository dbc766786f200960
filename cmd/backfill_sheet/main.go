package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/internal/database"
	"whatsapp-lead-logger/internal/logger"
	"whatsapp-lead-logger/internal/sheets"
	"whatsapp-lead-logger/internal/sink"
	"whatsapp-lead-logger/pkg/models"
)

// Replays archived leads into the Google Sheet, e.g. after the sheet was
// unreachable or the spreadsheet was recreated.
func main() {
	sinceFlag := flag.String("since", "", "replay leads archived at or after this time (RFC3339 or YYYY-MM-DD)")
	dryRun := flag.Bool("dry-run", false, "list the leads without writing them")
	flag.Parse()

	since, err := parseSince(*sinceFlag)
	if err != nil {
		log.Fatalf("Invalid -since: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	db, err := database.Open(cfg.Archive, logg)
	if err != nil {
		log.Fatalf("Failed to open lead archive: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	leads, err := database.NewLeadStore(db).Since(ctx, since)
	if err != nil {
		log.Fatalf("Failed to read leads: %v", err)
	}
	log.Printf("Found %d leads archived since %s", len(leads), since.Format(time.RFC3339))

	var target sink.Sink = sheets.NewSink(cfg.Sheets, logg)
	if *dryRun {
		target = sink.Func(func(_ context.Context, rec models.LeadRecord) error {
			fmt.Println(rec.Row()...)
			return nil
		})
	}

	failed := 0
	for _, lead := range leads {
		if err := target.Append(ctx, lead.Record()); err != nil {
			failed++
			log.Printf("Error replaying lead %s: %v", lead.ID, err)
		}
	}
	log.Printf("Backfill complete: %d written, %d failed", len(leads)-failed, failed)
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}
