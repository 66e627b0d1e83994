// ABOUTME: Report encoders: JSON, YAML, Markdown tables, and CSV raw sessions.
// ABOUTME: Also reads sessions back out of a JSON export for import.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harperreed/caretrack/internal/models"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatCSV}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q (use json, yaml, markdown, or csv)", s)
}

// Ext returns the file extension for a format.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Encode writes the report in the given format.
func Encode(w io.Writer, f Format, r *Report) error {
	switch f {
	case FormatJSON:
		data, err := JSON(r)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		data, err := YAML(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatCSV:
		return CSV(w, r)
	}
	return fmt.Errorf("unknown format %q", f)
}

// JSON encodes the report as indented JSON.
func JSON(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML encodes the report as YAML.
func YAML(r *Report) ([]byte, error) {
	return yaml.Marshal(r)
}

// pct renders a percentage or an em dash when it is missing.
func pct(p *int) string {
	if p == nil {
		return "—"
	}
	return strconv.Itoa(*p) + "%"
}

// Markdown renders the summary and raw sessions as Markdown tables.
func Markdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format("January 2, 2006")))
	if r.PreparedBy != "" {
		sb.WriteString(fmt.Sprintf("Prepared by: %s\n\n", r.PreparedBy))
	}
	if r.HospitalFilter != "" {
		sb.WriteString(fmt.Sprintf("Hospital Filter: %s\n\n", r.HospitalFilter))
	}
	sb.WriteString(fmt.Sprintf("Total Sessions: %d\n\n", r.TotalSessions))
	sb.WriteString(fmt.Sprintf("**Overall average compliance: %s**\n\n", pct(r.Overall)))

	sb.WriteString("## Metrics\n\n")
	sb.WriteString("| Metric | Average | Sessions with data | Numerator total | Denominator total |\n")
	sb.WriteString("|--------|---------|--------------------|-----------------|-------------------|\n")
	for _, m := range r.Metrics {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d |\n",
			m.Metric.Label, pct(m.Average), m.Sessions, m.NumeratorTotal, m.DenominatorTotal))
	}

	if len(r.Hospitals) > 0 {
		sb.WriteString("\n## Hospital Breakdown\n\n")
		sb.WriteString("| Hospital | Sessions | Overall |")
		for _, m := range models.Metrics {
			sb.WriteString(" " + m.Label + " |")
		}
		sb.WriteString("\n|----------|----------|---------|")
		for range models.Metrics {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for _, h := range r.Hospitals {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |", h.Hospital, h.Sessions, pct(h.Overall)))
			for _, m := range models.Metrics {
				sb.WriteString(" " + pct(h.Averages[m.ID]) + " |")
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Sessions) > 0 {
		sb.WriteString("\n## Sessions\n\n")
		sb.WriteString("| Date | Hospital | Location | Logged By | Overall | Notes |\n")
		sb.WriteString("|------|----------|----------|-----------|---------|-------|\n")
		for _, row := range r.Sessions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				row.Date, row.Hospital, row.Location, row.LoggedBy, pct(row.Overall), row.Notes))
		}
	}

	return sb.String()
}

// CSVHeader returns the raw-sessions column headers.
func CSVHeader() []string {
	header := []string{"Date", "Submitted At", "Hospital", "Location", "Protocol", "Logged By", "Notes"}
	for _, m := range models.Metrics {
		header = append(header, m.Label+" (Num)", m.Label+" (Den)", m.Label+" (%)")
	}
	return append(header, "Overall %")
}

// CSV writes one row per session in spreadsheet-friendly form.
func CSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader()); err != nil {
		return err
	}

	for _, row := range r.Sessions {
		submitted := ""
		if !row.CreatedAt.IsZero() {
			submitted = row.CreatedAt.Format("2006-01-02 15:04:05")
		}
		rec := []string{row.Date, submitted, row.Hospital, row.Location, row.ProtocolForUse, row.LoggedBy, row.Notes}
		for _, m := range models.Metrics {
			num, den := "", ""
			if ratio := row.Ratio(m.ID); ratio != nil {
				num, den = strconv.Itoa(ratio.Numerator), strconv.Itoa(ratio.Denominator)
			}
			rec = append(rec, num, den, pct(row.Percentages[m.ID]))
		}
		rec = append(rec, pct(row.Overall))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadSessions decodes the sessions from a JSON export.
func ReadSessions(rd io.Reader) ([]*models.Session, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	sessions := make([]*models.Session, 0, len(r.Sessions))
	for i := range r.Sessions {
		sessions = append(sessions, r.Sessions[i].Session.Clone())
	}
	return sessions, nil
}
