package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
	"github.com/jengzang/dwell-backend-go/internal/zonefile"
)

func newZonesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Manage zones",
	}

	cmd.AddCommand(newZonesListCmd(v))
	cmd.AddCommand(newZonesAddCmd(v))
	cmd.AddCommand(newZonesRemoveCmd(v))
	cmd.AddCommand(newZonesClosestCmd(v))
	cmd.AddCommand(newZonesExportCmd(v))
	cmd.AddCommand(newZonesImportCmd(v))

	return cmd
}

func printZones(cmd *cobra.Command, zones []models.Zone) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLATITUDE\tLONGITUDE\tRADIUS\tDESCRIPTION")
	for _, z := range zones {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.0fm\t%s\n", z.Name, z.Latitude, z.Longitude, z.Radius, z.Description)
	}
	return w.Flush()
}

func newZonesListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List zones in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			return printZones(cmd, a.locationService(cmd.Context(), nil).ListZones())
		},
	}
}

func newZonesAddCmd(v *viper.Viper) *cobra.Command {
	var zone models.Zone

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.locationService(cmd.Context(), nil).AddZone(cmd.Context(), zone); err != nil {
				return fmt.Errorf("could not add location: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", zone.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&zone.Name, "name", "", "Zone name (unique).")
	cmd.Flags().StringVar(&zone.Description, "description", "", "Free-form description.")
	cmd.Flags().Float64Var(&zone.Latitude, "lat", 0, "Center latitude in degrees.")
	cmd.Flags().Float64Var(&zone.Longitude, "lon", 0, "Center longitude in degrees.")
	cmd.Flags().Float64Var(&zone.Radius, "radius", 0, "Radius in meters.")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("radius")

	return cmd
}

func newZonesRemoveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a zone; recorded history keeps its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.locationService(cmd.Context(), nil).RemoveZone(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newZonesClosestCmd(v *viper.Viper) *cobra.Command {
	var lat, lon float64
	var k int

	cmd := &cobra.Command{
		Use:   "closest",
		Short: "List the zones nearest to a point, ignoring radius",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			zones, err := a.locationService(cmd.Context(), nil).ClosestZones(lat, lon, k)
			if err != nil {
				return err
			}
			return printZones(cmd, zones)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees.")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees.")
	cmd.Flags().IntVar(&k, "k", 3, "Number of zones to list.")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func newZonesExportCmd(v *viper.Viper) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write zones as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			zones := a.locationService(cmd.Context(), nil).ListZones()
			if out == "" || out == "-" {
				return zonefile.Encode(cmd.OutOrStdout(), zones)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := zonefile.Encode(f, zones); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default stdout).")
	return cmd
}

func newZonesImportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add zones from a YAML file, skipping names that already exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			zones, err := zonefile.ReadFile(args[0])
			if err != nil {
				return err
			}

			svc := a.locationService(cmd.Context(), nil)
			var added, skipped int
			for _, z := range zones {
				err := svc.AddZone(cmd.Context(), z)
				switch {
				case err == nil:
					added++
				case errors.Is(err, tracker.ErrZoneExists):
					skipped++
				default:
					return fmt.Errorf("zone %q: %w", z.Name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d zones, skipped %d existing\n", added, skipped)
			return nil
		},
	}
}
