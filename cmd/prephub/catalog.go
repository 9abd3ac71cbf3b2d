package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/prephub/prephub-api/internal/client"
	"github.com/spf13/cobra"
)

func newCoursesCmd(a *app) *cobra.Command {
	var category, level string

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			courses, err := a.client.ListCourses(cmd.Context(), category, level)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tLEVEL\tCERTIFICATE")
			for _, c := range courses {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Title, c.Category, c.Level, c.CertStatus)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&level, "level", "", "filter by level")
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Track job applications",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your job applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := a.client.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tLOCATION\tSTATUS")
			for _, j := range jobs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j.ID, j.Company, j.Position, j.Location, j.Status)
			}
			return tw.Flush()
		},
	})

	var job client.Job
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a new application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(job.Company) == "" || strings.TrimSpace(job.Position) == "" {
				return fmt.Errorf("--company and --position are required")
			}
			saved, err := a.client.AddJob(cmd.Context(), job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s at %s (id %d)\n", saved.Position, saved.Company, saved.ID)
			return nil
		},
	}
	add.Flags().StringVar(&job.Company, "company", "", "company name")
	add.Flags().StringVar(&job.Position, "position", "", "position title")
	add.Flags().StringVar(&job.Location, "location", "", "job location")
	add.Flags().StringVar(&job.Notes, "notes", "", "free-form notes")
	cmd.AddCommand(add)

	return cmd
}
