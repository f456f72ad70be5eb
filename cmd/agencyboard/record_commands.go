package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agencyboard/internal/api"
	"agencyboard/internal/board"
	"agencyboard/internal/pipeline"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Create, move, and remove board records",
	}
	recordCmd.AddCommand(newRecordAddCommand(ctx))
	recordCmd.AddCommand(newRecordMoveCommand(ctx))
	recordCmd.AddCommand(newRecordMovesCommand(ctx))
	recordCmd.AddCommand(newRecordRemoveCommand(ctx))
	recordCmd.AddCommand(newRecordFinalizeCommand(ctx))
	return recordCmd
}

func newRecordAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title, client, status, method, amount, notes string
		jsonOutput                                   bool
	)

	cmd := &cobra.Command{
		Use:   "add <board>",
		Short: "Create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := pipeline.Record{
				Title:         title,
				ClientName:    client,
				Status:        status,
				PaymentMethod: strings.TrimSpace(method),
				Notes:         strings.TrimSpace(notes),
			}
			if strings.TrimSpace(amount) != "" {
				cents, err := parseAmount(amount)
				if err != nil {
					return err
				}
				rec.AmountCents = cents
			}
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				created, err := coord.Create(cmd.Context(), ctx.actor(), rec)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromRecord(created, coord.Registry()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q in %s\n", created.ID, created.DisplayName(), coord.Registry().Classify(created.Status))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Record title")
	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (defaults to the board's first stage)")
	cmd.Flags().StringVar(&method, "payment-method", "", "Payment method, e.g. PIX or Cartão de Crédito")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in reais, e.g. 1.234,56")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordMoveCommand(ctx *commandContext) *cobra.Command {
	var (
		from, link string
		override   bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "move <board> <record-id> <stage>",
		Short: "Move a record to another stage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				id, err := resolveRecordID(coord.Records(), args[1])
				if err != nil {
					return err
				}
				req := pipeline.Request{
					RecordID: id,
					From:     resolveStage(coord.Registry(), from),
					To:       resolveStage(coord.Registry(), args[2]),
					Override: override,
					Payload:  pipeline.Payload{PaymentLink: link},
				}
				return runMove(cmd, ctx, coord, req, jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Expected current stage; the move is refused if the record has moved")
	cmd.Flags().StringVar(&link, "link", "", "Payment link (required when generating a card link)")
	cmd.Flags().BoolVar(&override, "override", false, "Administrative move bypassing the board rules (admins only)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordFinalizeCommand(ctx *commandContext) *cobra.Command {
	var (
		locators, costs []string
		jsonOutput      bool
	)

	cmd := &cobra.Command{
		Use:   "finalize <board> <record-id> <EMITIDO|EMITIDO7C>",
		Short: "Complete an emission, committing locators and costs",
		Long: "Complete an emission. Locators are written first, then costs, then the status.\n" +
			"Each write is an upsert, so re-running the same finalize after a failure converges.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := pipeline.Payload{}
			for _, raw := range locators {
				loc, err := parseLocator(raw)
				if err != nil {
					return err
				}
				payload.Locators = append(payload.Locators, loc)
			}
			for _, raw := range costs {
				line, err := parseCost(raw)
				if err != nil {
					return err
				}
				payload.Costs = append(payload.Costs, line)
			}
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				id, err := resolveRecordID(coord.Records(), args[1])
				if err != nil {
					return err
				}
				req := pipeline.Request{RecordID: id, To: resolveStage(coord.Registry(), args[2]), Payload: payload}
				return runMove(cmd, ctx, coord, req, jsonOutput)
			})
		},
	}
	cmd.Flags().StringArrayVar(&locators, "locator", nil, "Passenger=CODE[/TICKET] (repeatable)")
	cmd.Flags().StringArrayVar(&costs, "cost", nil, "Description=AMOUNT[@Supplier] (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runMove(cmd *cobra.Command, ctx *commandContext, coord *board.Coordinator, req pipeline.Request, jsonOutput bool) error {
	result, err := coord.Move(cmd.Context(), ctx.actor(), req)
	if err != nil {
		var partial *board.PartialCommitError
		if errors.As(err, &partial) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Finalization stopped at %s (completed: %s); re-run the same command to converge.\n",
				partial.Failed, orDash(strings.Join(partial.Completed, ", ")))
		}
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, api.MoveResponse{
			Outcome:   string(result.Outcome),
			From:      string(result.From),
			To:        string(result.To),
			Record:    api.FromRecord(result.Record, coord.Registry()),
			Finalized: result.Finalization != nil,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Moved %q: %s → %s\n", result.Record.DisplayName(), result.From, result.To)
	if fin := result.Finalization; fin != nil {
		fmt.Fprintf(out, "Committed %d locator(s) and %d cost line(s)\n", len(fin.Locators), len(fin.Costs))
	}
	return nil
}

func newRecordMovesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "moves <board> <record-id>",
		Short: "List the moves a record currently offers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				id, err := resolveRecordID(coord.Records(), args[1])
				if err != nil {
					return err
				}
				moves, err := coord.AvailableMoves(id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.MovesResponse{RecordID: id, Moves: api.FromMoves(moves)})
				}
				rows := make([][]string, 0, len(moves))
				for _, m := range moves {
					rows = append(rows, []string{string(m.To), m.Label, string(m.Kind), orDash(strings.Join(m.Requires, ", "))})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(shortID(id), []string{"Stage", "Label", "Kind", "Requires"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRecordRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <board> <record-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a record with its locators and costs",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBoard(cmd.Context(), args[0], func(coord *board.Coordinator) error {
				id, err := resolveRecordID(coord.Records(), args[1])
				if err != nil {
					return err
				}
				if err := coord.Remove(cmd.Context(), ctx.actor(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				return nil
			})
		},
	}
}

// resolveStage maps user input such as "pago" or "Link Gerado" onto a stage
// id. Unrecognised input passes through so the board reports UNKNOWN_STAGE.
func resolveStage(reg *pipeline.Registry, raw string) pipeline.StageID {
	return reg.Resolve(raw)
}
