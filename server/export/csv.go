package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tables flattens a projection into named csv tables.
func Tables(p Projection) map[string][][]string {
	agenda := [][]string{
		{"seq", "start_time", "title", "role", "owner", "duration_min", "duration_max", "project_code", "section"},
	}
	for _, row := range p.Rows {
		var start string
		if row.StartTime != nil {
			start = *row.StartTime
		}
		agenda = append(agenda, []string{
			strconv.Itoa(row.Seq),
			start,
			row.Title,
			row.Role,
			row.Owner,
			strconv.Itoa(row.DurationMin),
			strconv.Itoa(row.DurationMax),
			row.ProjectCode,
			strconv.FormatBool(row.IsSection),
		})
	}

	speeches := [][]string{
		{"speaker", "title", "project_code", "duration"},
	}
	for _, speech := range p.Speeches {
		speeches = append(speeches, []string{speech.Speaker, speech.Title, speech.ProjectCode, speech.Duration})
	}

	roles := [][]string{
		{"category", "role", "owners"},
	}
	for _, group := range p.Roles {
		for _, role := range group.Roles {
			roles = append(roles, []string{string(group.Category), role.Role, strings.Join(role.Owners, ", ")})
		}
	}

	tables := map[string][][]string{
		"agenda.csv":   agenda,
		"speeches.csv": speeches,
		"roles.csv":    roles,
	}

	if p.Awards != nil {
		awards := [][]string{
			{"category", "winner"},
		}
		for _, category := range categoryOrder {
			if name, ok := p.Awards[category]; ok {
				awards = append(awards, []string{string(category), name})
			}
		}
		tables["awards.csv"] = awards
	}
	return tables
}

var tableOrder = []string{"agenda.csv", "speeches.csv", "roles.csv", "awards.csv"}

// WriteZip writes every table of the projection as a csv file into one zip archive.
func WriteZip(w io.Writer, p Projection) error {
	tables := Tables(p)

	zw := zip.NewWriter(w)
	for _, filename := range tableOrder {
		records, ok := tables[filename]
		if !ok {
			continue
		}

		f, err := zw.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %q: %w", filename, err)
		}
		if err = csv.NewWriter(f).WriteAll(records); err != nil {
			return fmt.Errorf("failed to write csv records to %q: %w", filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

// WriteAgendaCSV writes only the agenda table.
func WriteAgendaCSV(w io.Writer, p Projection) error {
	return csv.NewWriter(w).WriteAll(Tables(p)["agenda.csv"])
}
