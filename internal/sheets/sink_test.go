package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/pkg/models"
)

var lead = models.LeadRecord{
	Timestamp:    "2026-03-14 09:26:53",
	CampaignName: "Campaign_Alpha_X",
	SourceID:     "120211",
	AdID:         "987",
	ContactName:  "Ana",
	ContactWaID:  "5211234567890",
}

type fakeStore struct {
	findErr   error
	appendErr error
	found     string
	title     string
	appended  [][]any
}

func (f *fakeStore) FindSpreadsheet(_ context.Context, name string) (string, error) {
	f.found = name
	if f.findErr != nil {
		return "", f.findErr
	}
	return "sheet-123", nil
}

func (f *fakeStore) FirstSheetTitle(context.Context, string) (string, error) {
	return "Sheet1", nil
}

func (f *fakeStore) AppendRow(_ context.Context, id, title string, row []any) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.title = title
	f.appended = append(f.appended, row)
	return nil
}

func connectorFor(store Store) Connector {
	return func(context.Context, []byte) (Store, error) { return store, nil }
}

func TestSink_AppendsRow(t *testing.T) {
	store := &fakeStore{}
	s := NewSinkWithConnector(config.SheetsConfig{SheetName: "Leads", CredentialsJSON: "{}"}, zerolog.Nop(), connectorFor(store))

	require.NoError(t, s.Append(context.Background(), lead))

	assert.Equal(t, "Leads", store.found)
	assert.Equal(t, "Sheet1", store.title)
	assert.Equal(t, [][]any{{"2026-03-14 09:26:53", "Campaign_Alpha_X", "120211", "987", "Ana", "5211234567890"}}, store.appended)
}

func TestSink_ConfigurationErrors(t *testing.T) {
	connectCalled := false
	connect := func(context.Context, []byte) (Store, error) {
		connectCalled = true
		return &fakeStore{}, nil
	}

	err := NewSinkWithConnector(config.SheetsConfig{CredentialsJSON: "{}"}, zerolog.Nop(), connect).Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrSheetNameMissing)

	err = NewSinkWithConnector(config.SheetsConfig{SheetName: "Leads"}, zerolog.Nop(), connect).Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	assert.False(t, connectCalled)
}

func TestSink_PropagatesStoreErrors(t *testing.T) {
	cfg := config.SheetsConfig{SheetName: "Leads", CredentialsJSON: "{}"}

	err := NewSinkWithConnector(cfg, zerolog.Nop(), connectorFor(&fakeStore{findErr: ErrSpreadsheetNotFound})).Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrSpreadsheetNotFound)

	quota := errors.New("quota exceeded")
	err = NewSinkWithConnector(cfg, zerolog.Nop(), connectorFor(&fakeStore{appendErr: quota})).Append(context.Background(), lead)
	assert.ErrorIs(t, err, quota)

	authErr := errors.New("invalid grant")
	failing := func(context.Context, []byte) (Store, error) { return nil, authErr }
	err = NewSinkWithConnector(cfg, zerolog.Nop(), failing).Append(context.Background(), lead)
	assert.ErrorIs(t, err, authErr)
}

func TestSink_InvalidCredentialJSON(t *testing.T) {
	s := NewSink(config.SheetsConfig{SheetName: "Leads", CredentialsJSON: "not json"}, zerolog.Nop())
	err := s.Append(context.Background(), lead)
	assert.ErrorContains(t, err, "authenticate")
}

// googleAPI fakes the three Drive/Sheets calls plus the OAuth token endpoint.
type googleAPI struct {
	mu        sync.Mutex
	query     string
	auth      []string
	appendURL string
	values    [][]any
	files     string
}

func (g *googleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/token":
		w.Write([]byte(`{"access_token":"test-access-token","token_type":"Bearer","expires_in":3600}`))
	case r.URL.Path == "/files":
		g.auth = append(g.auth, r.Header.Get("Authorization"))
		g.query = r.URL.Query().Get("q")
		w.Write([]byte(g.files))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-123"):
		w.Write([]byte(`{"sheets":[{"properties":{"title":"Hoja 1"}}]}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		g.appendURL = r.URL.String()
		var body struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		g.values = body.Values
		w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRows":1}}`))
	default:
		http.NotFound(w, r)
	}
}

func TestGoogleStore_FindAndAppend(t *testing.T) {
	api := &googleAPI{files: `{"files":[{"id":"sheet-123","name":"Leads 'Q1'"}]}`}
	server := httptest.NewServer(api)
	defer server.Close()

	store, err := NewGoogleStore(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	id, err := store.FindSpreadsheet(context.Background(), "Leads 'Q1'")
	require.NoError(t, err)
	assert.Equal(t, "sheet-123", id)
	assert.Equal(t, `name = 'Leads \'Q1\'' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false`, api.query)

	title, err := store.FirstSheetTitle(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Hoja 1", title)

	require.NoError(t, store.AppendRow(context.Background(), id, title, lead.Row()))
	assert.Contains(t, api.appendURL, "valueInputOption=USER_ENTERED")
	assert.Contains(t, api.appendURL, "insertDataOption=INSERT_ROWS")
	assert.Equal(t, [][]any{{"2026-03-14 09:26:53", "Campaign_Alpha_X", "120211", "987", "Ana", "5211234567890"}}, api.values)
}

func TestGoogleStore_SpreadsheetNotFound(t *testing.T) {
	server := httptest.NewServer(&googleAPI{files: `{"files":[]}`})
	defer server.Close()

	store, err := NewGoogleStore(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	_, err = store.FindSpreadsheet(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrSpreadsheetNotFound)
}

func serviceAccountJSON(t *testing.T, tokenURL string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	creds, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "leads-test",
		"private_key_id": "key-1",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "leads@leads-test.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      tokenURL,
	})
	require.NoError(t, err)
	return string(creds)
}

func TestSink_EndToEndWithServiceAccount(t *testing.T) {
	api := &googleAPI{files: `{"files":[{"id":"sheet-123","name":"Leads"}]}`}
	server := httptest.NewServer(api)
	defer server.Close()

	cfg := config.SheetsConfig{SheetName: "Leads", CredentialsJSON: serviceAccountJSON(t, server.URL+"/token")}
	s := NewSinkWithConnector(cfg, zerolog.Nop(), ConnectWithOptions(option.WithEndpoint(server.URL+"/")))

	require.NoError(t, s.Append(context.Background(), lead))

	assert.Equal(t, []string{"Bearer test-access-token"}, api.auth)
	assert.Len(t, api.values, 1)
}

func TestQuoteSheetTitle(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteSheetTitle("Sheet1"))
	assert.Equal(t, "'Ana''s leads'", quoteSheetTitle("Ana's leads"))
}
