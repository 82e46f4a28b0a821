package main

import (
	"encoding/json"
	"fmt"

	"github.com/askdoc/askdoc/internal"
	"github.com/spf13/cobra"
)

type searcherFactory func(cmd *cobra.Command, k int) (searcher, *app, error)

func NewSearchCmd(factory searcherFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show retrieval matches without generating",
		Long:  `Run the retrieval half of the pipeline and print the passages that clear the relevance threshold, with scores. Useful for tuning the threshold.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(factory),
	}

	cmd.Flags().IntP("number", "n", 0, "Number of candidates to retrieve (default: config k)")
	return cmd
}

func makeSearchRunner(factory searcherFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		asJSON, _ := cmd.Flags().GetBool("json")

		retriever, _, err := factory(cmd, limit)
		if err != nil {
			return err
		}

		query, err := internal.NewQuery(args[0])
		if err != nil {
			return err
		}

		result, err := retriever.Retrieve(cmd.Context(), query)
		if err != nil {
			return describeFailure(err)
		}

		if asJSON {
			return outputMatchesJSON(cmd, result)
		}

		if !result.Succeeded {
			fmt.Fprintln(cmd.OutOrStdout(), "No passage cleared the relevance threshold.")
			return nil
		}

		for _, m := range result.Matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %-30s  %s\n", m.Score, m.Passage.ID, m.Passage.Source)
		}
		return nil
	}
}

func outputMatchesJSON(cmd *cobra.Command, result internal.RetrievalResult) error {
	out := struct {
		Succeeded bool             `json:"succeeded"`
		Matches   []map[string]any `json:"matches"`
	}{Succeeded: result.Succeeded, Matches: make([]map[string]any, 0, len(result.Matches))}

	for _, m := range result.Matches {
		out.Matches = append(out.Matches, map[string]any{
			"id":     m.Passage.ID,
			"source": m.Passage.Source,
			"score":  m.Score,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
