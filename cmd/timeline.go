package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kverlo/fieldday/api/routes"
	"github.com/kverlo/fieldday/core/capacity"
	"github.com/kverlo/fieldday/core/clock"
	"github.com/kverlo/fieldday/core/timeline"
	"github.com/kverlo/fieldday/pkg/export"
)

var timelineFormat string

var timelineCmd = &cobra.Command{
	Use:   "timeline <route.json>",
	Short: "Render the timeline of a route file to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  renderTimeline,
}

func init() {
	timelineCmd.Flags().StringVarP(&timelineFormat, "format", "f", "table", "output format: table, json or csv")
	rootCmd.AddCommand(timelineCmd)
}

func renderTimeline(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read route: %w", err)
	}
	route, err := routes.ParseRoute(data, uuid.New())
	if err != nil {
		return err
	}

	items := timeline.Build(route.Stops, route.WorkdayStart, route.WorkdayEnd, route.ReturnToDepot)
	switch timelineFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), items)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), items)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", timelineFormat)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", itemSpan(it), it.Kind, itemLabel(it))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	m := capacity.Summarize(items, route.WorkdayStart, route.WorkdayEnd)
	fmt.Fprintf(cmd.OutOrStdout(), "\nload %.0f%% (%s), min slack %d min (%s), %.1f km\n",
		m.LoadPercent, m.LoadStatus(), m.MinSlackMinutes, m.SlackStatus(), m.DistanceKm)
	return nil
}

func itemSpan(it timeline.Item) string {
	if it.Start == nil {
		return "--:--"
	}
	if it.End == nil || *it.End == *it.Start {
		return clock.FormatMinutes(*it.Start)
	}
	return clock.FormatMinutes(*it.Start) + "-" + clock.FormatMinutes(*it.End)
}

func itemLabel(it timeline.Item) string {
	switch it.Kind {
	case timeline.KindTravel:
		if it.DistanceKm != nil {
			return fmt.Sprintf("%d min, %.1f km", it.Duration, *it.DistanceKm)
		}
		return fmt.Sprintf("%d min", it.Duration)
	case timeline.KindStop:
		label := ""
		if it.Stop != nil {
			label = it.Stop.CustomerName
		}
		if it.LateBy > 0 {
			label += fmt.Sprintf(" (late %d min)", it.LateBy)
		}
		if it.Stop != nil && it.Stop.NeedsReschedule {
			label += " (needs reschedule)"
		}
		return label
	case timeline.KindBreak:
		return fmt.Sprintf("%d min", it.Duration)
	case timeline.KindGap:
		return fmt.Sprintf("%d min idle", it.Duration)
	default:
		return ""
	}
}
