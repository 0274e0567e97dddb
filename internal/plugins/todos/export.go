package todos

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/tasktags/internal/widgets/tags"
)

// Export formats accepted by GET /api/export.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeader is the first row of every CSV export.
var csvHeader = []string{"ID", "Title", "Content", "Priority", "Completed", "Tags", "Created At", "Updated At"}

// Export is the JSON export document: every todo (with tags) and every tag.
type Export struct {
	ExportedAt time.Time  `json:"exportedAt"`
	Todos      []Todo     `json:"todos"`
	Tags       []tags.Tag `json:"tags"`
}

// WriteCSV writes todos as RFC 4180 CSV, one row per todo. Tag names are
// joined with ", ". Fields containing a comma, quote, CR or LF, or starting
// with a space or tab, are quoted with inner quotes doubled. The last two
// cases cannot come from the API, which trims every text field.
func WriteCSV(w io.Writer, list []Todo) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, t := range list {
		names := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			names[i] = tag.Name
		}

		content := ""
		if t.Content != nil {
			content = *t.Content
		}

		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			content,
			string(t.Priority),
			strconv.FormatBool(t.Completed),
			strings.Join(names, ", "),
			t.CreatedAt.UTC().Format(time.RFC3339),
			t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row for todo %d: %w", t.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// csvFilename names a CSV export after the UTC day it was taken.
func csvFilename(now time.Time) string {
	return fmt.Sprintf("todos-%s.csv", now.UTC().Format("2006-01-02"))
}
