package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"findash/internal/core"
	ports "findash/internal/sheets"
)

// Client reads the financial table from a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	layout        ports.Layout
}

// Ensure interface conformance
var _ ports.TableReader = (*Client)(nil)

// Credentials selects the service account key, inline JSON first.
type Credentials struct {
	JSON string
	File string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, layout ports.Layout) (*Client, error) {
	creds := Credentials{
		JSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		File: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if creds.JSON == "" && creds.File == "" {
		creds.File = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return NewWithCredentials(ctx, strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")), creds, layout)
}

// NewWithCredentials creates a read-only client for spreadsheetID.
func NewWithCredentials(ctx context.Context, spreadsheetID string, creds Credentials, layout ports.Layout) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, layout), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID string, layout ports.Layout) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, layout: layout}
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case creds.JSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", "component", "sheets")
		credentialsJSON = []byte(creds.JSON)
	case creds.File != "":
		slog.InfoContext(ctx, "Reading credentials from file", "component", "sheets", "path", creds.File)
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTable fetches every sheet named by the layout in one BatchGet call.
func (c *Client) ReadTable(ctx context.Context) (*core.Table, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	names := c.layout.SheetNames()
	ranges := make([]string, len(names))
	for i, name := range names {
		ranges[i] = sheetRange(name)
	}

	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("batch get %s: %w", strings.Join(ranges, ","), err)
	}

	wb := make(ports.Workbook, len(names))
	for i, vr := range resp.ValueRanges {
		if i >= len(names) {
			break
		}
		wb[names[i]] = toWorkbookRows(vr.Values)
	}
	slog.DebugContext(ctx, "Fetched spreadsheet", "spreadsheet_id", c.spreadsheetID, "sheets", len(wb))
	return ports.ParseWorkbook(wb, c.layout, "sheets:"+c.spreadsheetID)
}
