package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agencyboard/internal/api"
	"agencyboard/internal/webhooks"
)

func newWebhookCommand(ctx *commandContext) *cobra.Command {
	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Trigger meeting and contract automations",
	}
	webhookCmd.AddCommand(newWebhookMeetingCommand(ctx))
	webhookCmd.AddCommand(newWebhookContractCommand(ctx))
	return webhookCmd
}

func newWebhookMeetingCommand(ctx *commandContext) *cobra.Command {
	var (
		req        webhooks.MeetingRequest
		startsAt   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Schedule a client meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, strings.TrimSpace(startsAt))
			if err != nil {
				return fmt.Errorf("--at must be RFC3339, e.g. 2026-05-04T14:00:00-03:00: %w", err)
			}
			req.StartsAt = at
			req.RequestedBy = ctx.actor().Name()
			client := webhooks.NewFromConfig(ctx.configValue(), ctx.commandLogger())
			resp, err := client.ScheduleMeeting(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printWebhookResponse(cmd, resp, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&req.ClientName, "client", "", "Client name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Client email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Client phone")
	cmd.Flags().StringVar(&startsAt, "at", "", "Meeting start (RFC3339)")
	cmd.Flags().IntVar(&req.DurationMinutes, "duration", 30, "Meeting length in minutes")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Notes for the invite")
	cmd.Flags().StringVar(&req.RecordID, "record", "", "Related record id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newWebhookContractCommand(ctx *commandContext) *cobra.Command {
	var (
		req        webhooks.ContractRequest
		amount     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Generate a contract for signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(amount) != "" {
				cents, err := parseAmount(amount)
				if err != nil {
					return err
				}
				req.AmountCents = cents
			}
			req.RequestedBy = ctx.actor().Name()
			client := webhooks.NewFromConfig(ctx.configValue(), ctx.commandLogger())
			resp, err := client.GenerateContract(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printWebhookResponse(cmd, resp, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&req.ClientName, "client", "", "Client name")
	cmd.Flags().StringVar(&req.Document, "document", "", "Client document number (CPF/CNPJ)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Client email")
	cmd.Flags().StringVar(&amount, "amount", "", "Contract amount in reais")
	cmd.Flags().StringVar(&req.Template, "template", "", "Contract template name")
	cmd.Flags().StringVar(&req.RecordID, "record", "", "Related record id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func printWebhookResponse(cmd *cobra.Command, resp webhooks.Response, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, api.WebhookResponse{Link: resp.Link, Status: resp.StatusCode, Raw: resp.Raw})
	}
	out := cmd.OutOrStdout()
	if resp.Link == "" {
		fmt.Fprintf(out, "Webhook accepted (HTTP %d) but returned no link\n", resp.StatusCode)
		return nil
	}
	fmt.Fprintln(out, resp.Link)
	return nil
}
