package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"agencyboard/internal/api"
	"agencyboard/internal/board"
	"agencyboard/internal/pipeline"
)

func newBoardCommand(ctx *commandContext) *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect pipeline boards",
	}
	boardCmd.AddCommand(newBoardShowCommand(ctx))
	boardCmd.AddCommand(newBoardStagesCommand())
	return boardCmd
}

func newBoardShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var stageFilter string

	cmd := &cobra.Command{
		Use:   "show <board>",
		Short: "Show a board's records grouped by stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				projection := coord.Columns()
				if jsonOutput {
					return writeJSON(cmd, api.FromProjection(projection, coord.Registry()))
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				filter := pipeline.Normalize(stageFilter)
				shown := 0
				for _, col := range projection.Columns {
					if filter != "" && pipeline.Normalize(string(col.Stage.ID)) != filter && pipeline.Normalize(col.Stage.Label) != filter {
						continue
					}
					shown++
					for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d)", col.Stage.Label, len(col.Records)), col.Stage.Decoration, colorize) {
						fmt.Fprintln(out, line)
					}
					fmt.Fprintln(out, renderTable("", recordHeaders, recordRows(col.Records), recordAligns))
					fmt.Fprintln(out)
				}
				if filter != "" && shown == 0 {
					return fmt.Errorf("board %s has no stage %q", coord.Board(), stageFilter)
				}
				fmt.Fprintf(out, "%d record(s) on %s\n", len(projection.Flatten()), coord.Board())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&stageFilter, "stage", "", "Only show one stage (id or label)")
	return cmd
}

func newBoardStagesCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "stages [board]",
		Short:       "List the stages of one or every board",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			boards := pipeline.Boards()
			if len(args) == 1 {
				b, err := parseBoardArg(args[0])
				if err != nil {
					return err
				}
				boards = []pipeline.Board{b}
			}

			if jsonOutput {
				payload := make([]api.BoardSummary, 0, len(boards))
				for _, b := range boards {
					reg := pipeline.MustRegistry(b)
					summary := api.BoardSummary{Board: string(b), Guarded: reg.Guarded()}
					for _, st := range reg.Stages() {
						summary.Stages = append(summary.Stages, api.FromStage(st))
					}
					payload = append(payload, summary)
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			for _, b := range boards {
				reg := pipeline.MustRegistry(b)
				rows := make([][]string, 0, len(reg.Stages()))
				for i, st := range reg.Stages() {
					isDefault := ""
					if st.ID == reg.Default() {
						isDefault = "default"
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), string(st.ID), st.Label, orDash(st.Decoration), isDefault})
				}
				title := string(b)
				if reg.Guarded() {
					title += " (guarded)"
				}
				fmt.Fprintln(out, renderTable(title, []string{"#", "Stage", "Label", "Color", ""}, rows, []columnAlignment{alignRight}))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

var (
	recordHeaders = []string{"ID", "Title", "Status", "Payment", "Handler", "Amount"}
	recordAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
)

func recordRows(records []pipeline.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			shortID(rec.ID),
			rec.DisplayName(),
			strings.TrimSpace(rec.Status),
			orDash(rec.PaymentMethod),
			orDash(rec.HandlerValue()),
			formatCents(rec.AmountCents),
		})
	}
	return rows
}
