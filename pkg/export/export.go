// Package export renders a built timeline as JSON or CSV, the formats
// the dispatch back office imports day plans in.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kverlo/fieldday/core/clock"
	"github.com/kverlo/fieldday/core/timeline"
)

// WriteJSON writes the timeline to w in JSON format.
func WriteJSON(w io.Writer, items []timeline.Item) error {
	enc := json.NewEncoder(w)
	return enc.Encode(items)
}

// WriteCSV writes the timeline to w with one row per item. Unknown
// clock values become empty cells.
func WriteCSV(w io.Writer, items []timeline.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "kind", "customer", "duration_min", "distance_km", "late_by_min"}); err != nil {
		return err
	}
	for _, it := range items {
		name := ""
		if it.Stop != nil {
			name = it.Stop.CustomerName
		}
		distance := ""
		if it.DistanceKm != nil {
			distance = strconv.FormatFloat(*it.DistanceKm, 'f', -1, 64)
		}
		rec := []string{
			clockCell(it.Start),
			clockCell(it.End),
			it.Kind.String(),
			name,
			strconv.Itoa(it.Duration),
			distance,
			strconv.Itoa(it.LateBy),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func clockCell(m *int) string {
	if m == nil {
		return ""
	}
	return clock.FormatMinutes(*m)
}
