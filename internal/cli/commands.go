// internal/cli/commands.go
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"autoease/internal/models"

	"github.com/spf13/cobra"
)

func newStationsCmd(opts *options) *cobra.Command {
	var carType, service string

	c := &cobra.Command{
		Use:   "stations",
		Short: "List catalog stations, optionally only those eligible for a car type and service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			stations := rt.Catalogs.Current().Stations()
			if carType != "" || service != "" {
				ct, svc, err := parseQuery(carType, service)
				if err != nil {
					return err
				}
				stations = rt.Catalogs.Current().Eligible(ct, svc)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, stations)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tRATING\tREVIEWS\tCAR TYPES\tSERVICES")
			for _, st := range stations {
				fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d\t%s\t%s\n",
					st.ID, st.Name, st.Rating, st.ReviewCount,
					strings.Join(models.CarTypeStrings(st.CarTypesSupported), ", "),
					strings.Join(models.ServiceStrings(st.ServicesOffered), ", "))
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&carType, "car-type", "", "car type, e.g. SUV")
	c.Flags().StringVar(&service, "service", "", "service, e.g. \"Oil Change\"")
	return c
}

func newRankCmd(opts *options) *cobra.Command {
	var carType, service string

	c := &cobra.Command{
		Use:   "rank",
		Short: "Rank the stations eligible for a car type and service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, svc, err := parseQuery(carType, service)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ranked, err := rt.Engine.Rank(ctx, ct, svc, rt.Catalogs.Current())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, ranked)
			}
			if len(ranked) == 0 {
				fmt.Fprintln(out, "No stations available for this service and car type.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tID\tNAME\tREASON")
			for _, r := range ranked {
				fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", r.Rank, r.ID, r.Name, r.Reason)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&carType, "car-type", "", "car type, e.g. SUV")
	c.Flags().StringVar(&service, "service", "", "service, e.g. \"Oil Change\"")
	return c
}

func newSlotsCmd(opts *options) *cobra.Command {
	var stationID, service string

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show the available time slots of a station for a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("station", stationID); err != nil {
				return err
			}
			svc, ok := models.ParseService(service)
			if !ok {
				return fmt.Errorf("unknown service %q", service)
			}
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			slots, err := rt.Generator.Availability(ctx, stationID, svc, rt.Catalogs.Current())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, slots)
			}
			for _, s := range slots {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
	c.Flags().StringVar(&stationID, "station", "", "station id")
	c.Flags().StringVar(&service, "service", "", "service, e.g. \"Engine Diagnostics\"")
	return c
}

func newRecommendCmd(opts *options) *cobra.Command {
	var carType string

	c := &cobra.Command{
		Use:   "recommend [issue description]",
		Short: "Suggest services for a described problem",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, ok := models.ParseCarType(carType)
			if !ok {
				return fmt.Errorf("unknown car type %q", carType)
			}
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			services, err := rt.Recommender.Recommend(ctx, ct, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, models.ServiceStrings(services))
			}
			if len(services) == 0 {
				fmt.Fprintln(out, "No matching services.")
				return nil
			}
			for _, s := range services {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
	c.Flags().StringVar(&carType, "car-type", "", "car type, e.g. Sedan")
	return c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autoease %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}

func parseQuery(carType, service string) (models.CarType, models.Service, error) {
	ct, ok := models.ParseCarType(carType)
	if !ok {
		return "", "", fmt.Errorf("unknown car type %q (want one of %s)", carType, strings.Join(models.CarTypeStrings(models.AllCarTypes), ", "))
	}
	svc, ok := models.ParseService(service)
	if !ok {
		return "", "", fmt.Errorf("unknown service %q (want one of %s)", service, strings.Join(models.ServiceStrings(models.AllServices), ", "))
	}
	return ct, svc, nil
}
