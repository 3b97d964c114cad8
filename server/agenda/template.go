package agenda

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

//go:embed templates/*.csv
var defaultTemplates embed.FS

// Meeting types with a built-in template.
var MeetingTypes = []string{"Regular", "Keynote Speech", "Speech Marathon"}

const (
	RowTypeSection = "Section"
	RowTypeHidden  = "Hidden"
)

var templateHeader = []string{"Type", "Title", "Role", "Owner", "MinDuration", "MaxDuration"}

// TemplateRow is one agenda line of a meeting template.
type TemplateRow struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Role        string `json:"role"`
	Owner       string `json:"owner"`
	MinDuration *int   `json:"min_duration"`
	MaxDuration *int   `json:"max_duration"`
}

func (r TemplateRow) IsSection() bool {
	return strings.EqualFold(r.Type, RowTypeSection)
}

func (r TemplateRow) IsHidden() bool {
	return strings.EqualFold(r.Type, RowTypeHidden)
}

func templateFile(meetingType string) string {
	return "templates/" + strings.ReplaceAll(strings.ToLower(meetingType), " ", "_") + ".csv"
}

// DefaultTemplate returns the built-in template of a meeting type.
func DefaultTemplate(meetingType string) ([]TemplateRow, bool, error) {
	if !slices.Contains(MeetingTypes, meetingType) {
		return nil, false, nil
	}

	f, err := defaultTemplates.Open(templateFile(meetingType))
	if err != nil {
		return nil, false, fmt.Errorf("failed to open default template: %w", err)
	}
	defer f.Close()

	rows, err := ParseTemplate(f)
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

// ParseTemplate reads a template CSV. The first row is a header and is skipped. Missing trailing cells are empty.
func ParseTemplate(r io.Reader) ([]TemplateRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []TemplateRow
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		if line == 1 {
			continue
		}

		cells := make([]string, len(templateHeader))
		for i := range min(len(record), len(cells)) {
			cells[i] = strings.TrimSpace(record[i])
		}
		if strings.Join(cells, "") == "" {
			continue
		}

		row := TemplateRow{
			Type:  cells[0],
			Title: cells[1],
			Role:  cells[2],
			Owner: cells[3],
		}
		if row.MinDuration, err = parseDuration(cells[4]); err != nil {
			return nil, fmt.Errorf("line %d: invalid min duration: %w", line, err)
		}
		if row.MaxDuration, err = parseDuration(cells[5]); err != nil {
			return nil, fmt.Errorf("line %d: invalid max duration: %w", line, err)
		}
		if row.Title == "" {
			return nil, fmt.Errorf("line %d: title is required", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDuration(cell string) (*int, error) {
	if cell == "" {
		return nil, nil
	}
	minutes, err := strconv.Atoi(cell)
	if err != nil {
		return nil, err
	}
	if minutes < 0 {
		return nil, fmt.Errorf("negative duration %d", minutes)
	}
	return &minutes, nil
}

// WriteTemplate writes rows in the template CSV format including the header.
func WriteTemplate(w io.Writer, rows []TemplateRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(templateHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.Type,
			row.Title,
			row.Role,
			row.Owner,
			formatDuration(row.MinDuration),
			formatDuration(row.MaxDuration),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDuration(minutes *int) string {
	if minutes == nil {
		return ""
	}
	return strconv.Itoa(*minutes)
}
