package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/report"
	"github.com/jengzang/dwell-backend-go/internal/stats"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
)

const timeLayout = "2006-01-02 15:04"

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var filter models.HistoryFilter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded dwell segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			segments := a.locationService(cmd.Context(), nil).History(filter.Query())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ZONE\tENTERED\tEXITED\tDURATION")
			for _, seg := range segments {
				name := models.ZoneName(seg.Zone)
				if name == "" {
					name = tracker.UnknownZone
				}
				exited, dur := seg.Exited.Local().Format(timeLayout), report.FormatDuration(seg.Duration())
				if seg.Open {
					exited, dur = "-", report.FormatDuration(time.Since(seg.Entered))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, seg.Entered.Local().Format(timeLayout), exited, dur)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&filter.MaxAgeDays, "days", 0, "Only segments entered in the last N days (default: retention window).")
	cmd.Flags().BoolVar(&filter.IncludeOpen, "open", true, "Include the segment in progress.")
	cmd.Flags().BoolVar(&filter.NewestFirst, "newest-first", false, "Reverse chronological order.")

	return cmd
}

func newShareCmd(v *viper.Viper) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print time spent per zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.locationService(cmd.Context(), nil)
			if days <= 0 {
				days = svc.RetentionDays()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Time per zone over the last %d days\n", days)
			for _, s := range svc.TimeShare(time.Duration(days) * 24 * time.Hour) {
				fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", s.Name, report.FormatDuration(s.Duration), s.Percent)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default: retention window).")
	return cmd
}

func newStatsCmd(v *viper.Viper) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print visit statistics per zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			segments := a.locationService(cmd.Context(), nil).History(models.HistoryQuery{
				MaxAge: time.Duration(days) * 24 * time.Hour,
			})
			summary := stats.Summarize(segments)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ZONE\tVISITS\tTOTAL\tMEDIAN\tP90\tLONGEST")
			for _, z := range summary.Zones {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", z.Name, z.Visits,
					report.FormatDuration(z.Total), report.FormatDuration(z.Median),
					report.FormatDuration(z.P90), report.FormatDuration(z.Longest))
			}
			fmt.Fprintf(w, "%d segments, diversity %.2f\n", summary.Segments, summary.Diversity)
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Only segments entered in the last N days (default: retention window).")
	return cmd
}
