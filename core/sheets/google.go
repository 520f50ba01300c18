package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleStore writes to a Google spreadsheet. Sheet modification times come from
// Drive, which only tracks the spreadsheet as a whole.
type GoogleStore struct {
	spreadsheetID string
	sheets        *gsheets.Service
	drive         *drive.Service
}

// CredentialOptions authenticates with a service account key file.
func CredentialOptions(credentialsFile string) []option.ClientOption {
	return []option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope),
	}
}

// NewGoogleStore connects to spreadsheetID with the given client options.
func NewGoogleStore(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*GoogleStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	sh, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	dr, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &GoogleStore{spreadsheetID: spreadsheetID, sheets: sh, drive: dr}, nil
}

// ClearRegion implements Store.
func (g *GoogleStore) ClearRegion(ctx context.Context, sheet, rng string) error {
	_, err := g.sheets.Spreadsheets.Values.
		Clear(g.spreadsheetID, A1(sheet, rng), &gsheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", A1(sheet, rng), err)
	}
	return nil
}

// WriteRegion implements Store. Values are written as-is, not parsed as formulas.
func (g *GoogleStore) WriteRegion(ctx context.Context, sheet, rng string, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}

	_, err := g.sheets.Spreadsheets.Values.
		Update(g.spreadsheetID, A1(sheet, rng), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", A1(sheet, rng), err)
	}
	return nil
}

// LastModified implements Store.
func (g *GoogleStore) LastModified(ctx context.Context, sheet string) (time.Time, error) {
	f, err := g.drive.Files.Get(g.spreadsheetID).
		Fields("modifiedTime").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	if f.ModifiedTime == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected modifiedTime %q: %w", f.ModifiedTime, err)
	}
	return ts, nil
}
