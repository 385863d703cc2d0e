package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLoader reads feedback rows from a Google Sheets range. The first row
// of the range must be the header row.
type SheetsLoader struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

func NewSheetsLoader(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetsLoader, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsLoader{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

func (l *SheetsLoader) Source() string {
	return fmt.Sprintf("sheets:%s!%s", l.spreadsheetID, l.readRange)
}

func (l *SheetsLoader) Load(ctx context.Context) (*Table, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &LoadError{Source: l.Source(), Err: fmt.Errorf("fetch values: %w", err)}
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	records, err := ParseRows(l.Source(), rows)
	if err != nil {
		return nil, err
	}
	return NewTable(l.Source(), records), nil
}

// OAuthCredentials is the client part of a Google OAuth client JSON file.
type OAuthCredentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
}

type credentialsFile struct {
	Type      string            `json:"type"`
	Installed *OAuthCredentials `json:"installed,omitempty"`
	Web       *OAuthCredentials `json:"web,omitempty"`
}

// ParseOAuthCredentials accepts both the bare client format and the
// installed/web formats downloaded from Google Cloud Console.
func ParseOAuthCredentials(data []byte) (*OAuthCredentials, error) {
	var direct OAuthCredentials
	if err := json.Unmarshal(data, &direct); err == nil && direct.ClientID != "" && direct.ClientSecret != "" {
		return &direct, nil
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	switch {
	case cf.Installed != nil:
		return cf.Installed, nil
	case cf.Web != nil:
		return cf.Web, nil
	}
	return nil, errors.New("no oauth client found in credentials: expected 'installed' or 'web' section")
}

// OAuthConfig builds the read-only Sheets OAuth config for an installed app.
func OAuthConfig(creds *OAuthCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// GoogleHTTPClient returns an authorized client for the Sheets API. Service
// account keys are used directly; OAuth client credentials need a token saved
// by sheets-auth-helper at tokenFile.
func GoogleHTTPClient(ctx context.Context, credentialsJSON, tokenFile string) (*http.Client, error) {
	data := []byte(credentialsJSON)
	var probe credentialsFile
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	if probe.Type == "service_account" {
		jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("service account config: %w", err)
		}
		return jwt.Client(ctx), nil
	}

	creds, err := ParseOAuthCredentials(data)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load google token (run sheets-auth-helper first): %w", err)
	}
	return OAuthConfig(creds).Client(ctx, tok), nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(tok)
}
