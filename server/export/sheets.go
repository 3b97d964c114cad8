package export

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type SheetsConfig struct {
	Enabled         bool   `toml:"enabled"`
	CredentialsFile string `toml:"credentials_file" env:"SHEETS_CREDENTIALS_FILE"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
}

func (c SheetsConfig) String() string {
	return fmt.Sprintf("\n Enabled: %t\n CredentialsFile: %s\n SpreadsheetID: %s",
		c.Enabled,
		c.CredentialsFile,
		c.SpreadsheetID,
	)
}

// NewSheets returns nil when the spreadsheet export is disabled.
func NewSheets(ctx context.Context, cfg SheetsConfig) (*Sheets, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Sheets{
		srv:           srv,
		spreadsheetID: cfg.SpreadsheetID,
	}, nil
}

type Sheets struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func (s *Sheets) Enabled() bool {
	return s != nil
}

// Write replaces the content of the sheet named after the meeting number.
func (s *Sheets) Write(ctx context.Context, p Projection) (string, error) {
	title := SheetTitle(p.Header.Number)
	if err := s.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	rng := title + "!A1"
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, title, &sheetsv4.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to clear sheet %q: %w", title, err)
	}

	resp, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheetsv4.ValueRange{
		Values: SheetValues(p),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to write sheet %q: %w", title, err)
	}
	return resp.UpdatedRange, nil
}

func (s *Sheets) ensureSheet(ctx context.Context, title string) error {
	spreadsheet, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return nil
		}
	}

	_, err = s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheetsv4.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsv4.Request{
			{AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: title}}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", title, err)
	}
	return nil
}

func SheetTitle(number int) string {
	return "Meeting " + strconv.Itoa(number)
}

// SheetValues lays the header out above the agenda table.
func SheetValues(p Projection) [][]any {
	h := p.Header
	values := [][]any{
		{"Meeting", h.Number, h.Title, h.Subtitle},
		{"Date", h.Date, "Start", h.StartTime},
		{"Word of the day", h.WOD, "Manager", h.Manager},
		{},
	}
	for _, record := range Tables(p)["agenda.csv"] {
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		values = append(values, row)
	}
	return values
}
