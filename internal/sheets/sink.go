// Package sheets appends lead rows to a Google Sheets spreadsheet found by name.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/pkg/models"
)

var (
	ErrSheetNameMissing    = errors.New("sheet name (SHEET_NAME) not configured")
	ErrCredentialsMissing  = errors.New("google credentials (GOOGLE_CREDS_JSON) not configured")
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
)

// Scopes requested for the service account.
var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveReadonlyScope}

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Store is the slice of the Sheets and Drive APIs the sink needs.
type Store interface {
	FindSpreadsheet(ctx context.Context, name string) (string, error)
	FirstSheetTitle(ctx context.Context, spreadsheetID string) (string, error)
	AppendRow(ctx context.Context, spreadsheetID, sheetTitle string, row []any) error
}

// Connector authenticates with the credential JSON and returns a Store.
type Connector func(ctx context.Context, credentialsJSON []byte) (Store, error)

// Sink authenticates on every append, so rotated credentials apply to the
// next lead without a restart.
type Sink struct {
	sheetName       string
	credentialsJSON string
	connect         Connector
	log             zerolog.Logger
}

func NewSink(cfg config.SheetsConfig, log zerolog.Logger) *Sink {
	return NewSinkWithConnector(cfg, log, Connect)
}

func NewSinkWithConnector(cfg config.SheetsConfig, log zerolog.Logger, connect Connector) *Sink {
	return &Sink{
		sheetName:       cfg.SheetName,
		credentialsJSON: cfg.CredentialsJSON,
		connect:         connect,
		log:             log.With().Str("component", "sheets").Logger(),
	}
}

// Append opens the spreadsheet by name and appends rec to its first worksheet.
func (s *Sink) Append(ctx context.Context, rec models.LeadRecord) error {
	if s.sheetName == "" {
		return ErrSheetNameMissing
	}
	if s.credentialsJSON == "" {
		return ErrCredentialsMissing
	}

	store, err := s.connect(ctx, []byte(s.credentialsJSON))
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	id, err := store.FindSpreadsheet(ctx, s.sheetName)
	if err != nil {
		return fmt.Errorf("open %q: %w", s.sheetName, err)
	}
	title, err := store.FirstSheetTitle(ctx, id)
	if err != nil {
		return fmt.Errorf("open %q: %w", s.sheetName, err)
	}
	if err := store.AppendRow(ctx, id, title, rec.Row()); err != nil {
		return fmt.Errorf("append to %q: %w", s.sheetName, err)
	}

	s.log.Info().Interface("row", rec.Row()).Str("sheet", s.sheetName).Msg("Lead saved to Google Sheet")
	return nil
}

// Connect builds a Store backed by the Google APIs using service account
// credentials.
func Connect(ctx context.Context, credentialsJSON []byte) (Store, error) {
	return ConnectWithOptions()(ctx, credentialsJSON)
}

// ConnectWithOptions returns a Connector that passes extra client options,
// such as an endpoint override, to both API clients.
func ConnectWithOptions(opts ...option.ClientOption) Connector {
	return func(ctx context.Context, credentialsJSON []byte) (Store, error) {
		jwtCfg, err := google.JWTConfigFromJSON(credentialsJSON, Scopes...)
		if err != nil {
			return nil, err
		}
		all := append([]option.ClientOption{option.WithHTTPClient(jwtCfg.Client(ctx))}, opts...)
		return NewGoogleStore(ctx, all...)
	}
}

// GoogleStore talks to Drive (lookup by name) and Sheets (append).
type GoogleStore struct {
	drive  *drive.Service
	sheets *sheets.Service
}

func NewGoogleStore(ctx context.Context, opts ...option.ClientOption) (*GoogleStore, error) {
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &GoogleStore{drive: driveSvc, sheets: sheetsSvc}, nil
}

func (g *GoogleStore) FindSpreadsheet(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := g.drive.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", ErrSpreadsheetNotFound
	}
	return list.Files[0].Id, nil
}

func (g *GoogleStore) FirstSheetTitle(ctx context.Context, spreadsheetID string) (string, error) {
	ss, err := g.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID)
	}
	return ss.Sheets[0].Properties.Title, nil
}

// AppendRow uses USER_ENTERED so Sheets parses numbers and dates like typed input.
func (g *GoogleStore) AppendRow(ctx context.Context, spreadsheetID, sheetTitle string, row []any) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := g.sheets.Spreadsheets.Values.Append(spreadsheetID, quoteSheetTitle(sheetTitle), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// quoteSheetTitle renders an A1 range that covers the whole worksheet.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
