package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/callflow"
	"github.com/aretw0/callflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the compiled route table",
	Long:  `Compiles the call flow and prints its webhook endpoints as a table or as a Mermaid diagram.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		app, err := callflow.New(demoStates(cfg), nil)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()

		switch format {
		case "table":
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tPATH\tSTATE\tKIND")
			for _, r := range app.Routes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, r.Path, r.StateName, r.Kind)
			}
			return tw.Flush()
		case "mermaid":
			_, err := fmt.Fprint(out, graph.GenerateMermaid(app.States(), app.Routes()))
			return err
		}
		return fmt.Errorf("unknown format %q (want table or mermaid)", format)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringP("format", "f", "table", "Output format: table or mermaid")
}
