package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	service "github.com/okian/squigscan/internal/app"
	"github.com/okian/squigscan/internal/output"
	"github.com/spf13/cobra"
)

func newTopCommand() *cobra.Command {
	var (
		target string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the best-scoring cached devices for a target family",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			list, err := service.New(cfg).Top(cmd.Context(), target, limit)
			if err != nil {
				return err
			}
			renderRanking(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target family name (default: first family alphabetically)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of devices to show")
	return cmd
}

func renderRanking(out io.Writer, list *output.RankedList) {
	fmt.Fprintf(out, "Target: %s (%s)\n", list.Target, list.Type)

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Device", "Score", "Price", "Rig", "Quality"})
	for i, r := range list.Results {
		price := "-"
		if r.Price != nil {
			price = strconv.FormatFloat(*r.Price, 'f', 0, 64)
		}
		tw.AppendRow(table.Row{
			i + 1,
			r.Name,
			strconv.FormatFloat(r.Similarity, 'f', 1, 64),
			price,
			string(r.Rig),
			string(r.Quality),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}
