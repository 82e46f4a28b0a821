package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type ingesterFactory func(cmd *cobra.Command) (ingester, *app, error)

func NewIngestCmd(factory ingesterFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index the documents directory",
		Long:  `Extract, chunk and embed the documents (.pdf, .txt, .md) and write them into the vector index. Passage IDs are derived from source and offset, so re-running is idempotent.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeIngestRunner(factory),
	}
}

func makeIngestRunner(factory ingesterFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ingestor, a, err := factory(cmd)
		if err != nil {
			return err
		}

		dir := a.cfg.Ingest.DocsDir
		if len(args) == 1 {
			dir = args[0]
		}

		stats, err := ingestor.IngestDir(cmd.Context(), dir)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d passages from %d documents.\n", stats.Passages, stats.Documents)
		return nil
	}
}
