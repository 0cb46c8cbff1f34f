package google

import (
	"context"
	"fmt"
	"strings"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	// snapshotRange starts below the header row so header labels are
	// never read back as data.
	snapshotRange = "A2:D"
	headerRange   = "A1:D1"
	columnCount   = 4
)

// SheetsClient implements the SpreadsheetClient port against the Google
// Sheets and Drive APIs. Every call authenticates with the access token
// it is handed; the client itself holds no credentials.
type SheetsClient struct {
	logger zerolog.Logger
}

// NewSheetsClient creates a new Google Sheets adapter
func NewSheetsClient(logger zerolog.Logger) ports.SpreadsheetClient {
	return &SheetsClient{logger: logger}
}

// SpreadsheetURL returns the canonical URL for a spreadsheet ID.
func SpreadsheetURL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", spreadsheetID)
}

// ParseSpreadsheetID extracts the spreadsheet ID from a stored URL of
// the form https://<host>/spreadsheets/d/{id}/edit.
func ParseSpreadsheetID(rawURL string) (string, error) {
	const marker = "/spreadsheets/d/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", fmt.Errorf("not a spreadsheet URL: %s", rawURL)
	}
	rest := rawURL[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", fmt.Errorf("not a spreadsheet URL: %s", rawURL)
	}
	return rest, nil
}

// SpreadsheetIDFromURL parses the spreadsheet ID back out of a stored
// canonical URL.
func (c *SheetsClient) SpreadsheetIDFromURL(rawURL string) (string, error) {
	return ParseSpreadsheetID(rawURL)
}

func tokenOption(accessToken string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// Create makes a new spreadsheet, grants link-based write access via
// Drive, and returns its ID and canonical URL.
func (c *SheetsClient) Create(ctx context.Context, accessToken, title string) (string, string, error) {
	sheetsSvc, err := sheets.NewService(ctx, tokenOption(accessToken))
	if err != nil {
		return "", "", fmt.Errorf("failed to create sheets service: %w", err)
	}

	spreadsheet, err := sheetsSvc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	spreadsheetID := spreadsheet.SpreadsheetId

	driveSvc, err := drive.NewService(ctx, tokenOption(accessToken))
	if err != nil {
		return "", "", fmt.Errorf("failed to create drive service: %w", err)
	}

	_, err = driveSvc.Permissions.Create(spreadsheetID, &drive.Permission{
		Role: "writer",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to share spreadsheet: %w", err)
	}

	c.logger.Info().
		Str("spreadsheetId", spreadsheetID).
		Str("title", title).
		Msg("Created spreadsheet")

	return spreadsheetID, SpreadsheetURL(spreadsheetID), nil
}

// ReadSnapshot reads the data region below the header, keyed by the ID
// column. An empty sheet yields an empty snapshot; any API failure is a
// SnapshotError.
func (c *SheetsClient) ReadSnapshot(ctx context.Context, accessToken, spreadsheetID string) (domain.SheetSnapshot, error) {
	sheetsSvc, err := sheets.NewService(ctx, tokenOption(accessToken))
	if err != nil {
		return nil, &domain.SnapshotError{Err: err}
	}

	resp, err := sheetsSvc.Spreadsheets.Values.Get(spreadsheetID, snapshotRange).Context(ctx).Do()
	if err != nil {
		return nil, &domain.SnapshotError{Err: err}
	}

	snapshot := make(domain.SheetSnapshot, len(resp.Values))
	for i, row := range resp.Values {
		id := cellString(row, 0)
		if id == "" {
			continue
		}
		snapshot[id] = domain.SheetRow{
			Index:       i + 2, // data region starts at sheet row 2
			ID:          id,
			Title:       cellString(row, 1),
			Description: cellString(row, 2),
			Price:       cellString(row, 3),
		}
	}

	return snapshot, nil
}

// ApplyBatch executes a plan as a single batchUpdate call. The header
// labels are the one thing batchUpdate cannot carry, so on first sync
// they go through a values update grouped immediately before the batch.
func (c *SheetsClient) ApplyBatch(ctx context.Context, accessToken, spreadsheetID string, ops []domain.SheetOp) error {
	if len(ops) == 0 {
		return nil
	}

	sheetsSvc, err := sheets.NewService(ctx, tokenOption(accessToken))
	if err != nil {
		return &domain.MutationError{Err: err}
	}

	var requests []*sheets.Request
	for _, op := range ops {
		switch op.Kind {
		case domain.OpFormatHeader:
			if err := c.writeHeader(ctx, sheetsSvc, spreadsheetID, op.Values[0]); err != nil {
				return &domain.MutationError{Err: err}
			}
			requests = append(requests, headerFormatRequests()...)
		case domain.OpUpdateRow:
			requests = append(requests, &sheets.Request{
				UpdateCells: &sheets.UpdateCellsRequest{
					Rows:   []*sheets.RowData{rowData(op.Values[0])},
					Fields: "userEnteredValue",
					Range: &sheets.GridRange{
						SheetId:          0,
						StartRowIndex:    int64(op.Row - 1),
						EndRowIndex:      int64(op.Row),
						StartColumnIndex: 0,
						EndColumnIndex:   columnCount,
					},
				},
			})
		case domain.OpAppendRows:
			rows := make([]*sheets.RowData, 0, len(op.Values))
			for _, values := range op.Values {
				rows = append(rows, rowData(values))
			}
			requests = append(requests, &sheets.Request{
				AppendCells: &sheets.AppendCellsRequest{
					SheetId: 0,
					Rows:    rows,
					Fields:  "userEnteredValue",
				},
			})
		}
	}

	_, err = sheetsSvc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return &domain.MutationError{Err: err}
	}

	c.logger.Info().
		Str("spreadsheetId", spreadsheetID).
		Int("requests", len(requests)).
		Msg("Applied spreadsheet batch")

	return nil
}

func (c *SheetsClient) writeHeader(ctx context.Context, svc *sheets.Service, spreadsheetID string, labels []string) error {
	values := make([]interface{}, len(labels))
	for i, label := range labels {
		values[i] = label
	}
	_, err := svc.Spreadsheets.Values.Update(spreadsheetID, headerRange, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

func headerFormatRequests() []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       0,
					StartRowIndex: 0,
					EndRowIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columnCount,
				},
			},
		},
	}
}

func rowData(values []string) *sheets.RowData {
	cells := make([]*sheets.CellData, 0, len(values))
	for _, value := range values {
		v := value
		cells = append(cells, &sheets.CellData{
			UserEnteredValue: &sheets.ExtendedValue{StringValue: &v},
		})
	}
	return &sheets.RowData{Values: cells}
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, ok := row[idx].(string)
	if !ok {
		return fmt.Sprint(row[idx])
	}
	return s
}
