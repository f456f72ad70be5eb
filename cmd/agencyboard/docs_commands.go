package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"agencyboard/internal/api"
	"agencyboard/internal/documents"
)

func newDocsCommand(ctx *commandContext) *cobra.Command {
	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage per-client document folders",
	}
	docsCmd.AddCommand(newDocsListCommand(ctx))
	docsCmd.AddCommand(newDocsUploadCommand(ctx))
	docsCmd.AddCommand(newDocsURLCommand(ctx))
	docsCmd.AddCommand(newDocsDeleteCommand(ctx))
	return docsCmd
}

func (c *commandContext) documentStore() (*documents.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return documents.NewFromConfig(cfg, c.commandLogger())
}

func newDocsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list <client>",
		Short: "List a client's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.documentStore()
			if err != nil {
				return err
			}
			entries, err := st.List(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				resp := api.DocumentsResponse{Folder: documents.FolderName(args[0]), Documents: make([]api.Document, 0, len(entries))}
				for _, e := range entries {
					resp.Documents = append(resp.Documents, api.FromDocument(e))
				}
				return writeJSON(cmd, resp)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Name, strconv.FormatInt(e.Size, 10), e.ModTime.Local().Format("2006-01-02 15:04")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(documents.FolderName(args[0]), []string{"Name", "Bytes", "Modified"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDocsUploadCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <client> <file>...",
		Short: "Copy files into a client's folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 2 {
				return fmt.Errorf("--name can only be used with a single file")
			}
			st, err := ctx.documentStore()
			if err != nil {
				return err
			}
			for _, path := range args[1:] {
				target := name
				if target == "" {
					target = filepath.Base(path)
				}
				if err := uploadFile(st, args[0], target, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", target, documents.FolderName(args[0]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Stored file name (defaults to the source base name)")
	return cmd
}

func uploadFile(st *documents.Store, folder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := st.Upload(folder, name, f); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func newDocsURLCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "url <client> <name>",
		Short: "Print a time-limited download link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.documentStore()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = ctx.configValue().URLTTL()
			}
			link, expires, err := st.SignedURL(args[0], args[1], ttl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, link)
			fmt.Fprintf(out, "Expires %s\n", expires.Local().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Link lifetime (defaults to documents.url_ttl_seconds)")
	return cmd
}

func newDocsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <client> <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.documentStore()
			if err != nil {
				return err
			}
			if err := st.Delete(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", documents.FolderName(args[0]), args[1])
			return nil
		},
	}
}
