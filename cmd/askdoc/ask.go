package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/askdoc/askdoc/internal"
	"github.com/spf13/cobra"
)

type answererFactory func(cmd *cobra.Command) (answerer, *app, error)

func NewAskCmd(factory answererFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question",
		Long:  `Ask a single question. The answer is grounded in the indexed documents when possible, with a visible RAG/FALLBACK badge and source citations.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeAskRunner(factory),
	}
}

func makeAskRunner(factory answererFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		pipeline, _, err := factory(cmd)
		if err != nil {
			return err
		}

		result, err := pipeline.Answer(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return describeFailure(err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printAnswer(cmd, result)
		return nil
	}
}

func modeBadge(mode internal.Mode) string {
	if mode == internal.ModeFallback {
		return "💡 FALLBACK"
	}
	return "📚 RAG"
}

func printAnswer(cmd *cobra.Command, result internal.AnsweredResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s\n", modeBadge(result.Mode), result.Answer)
	if len(result.Sources) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nSources: %s\n", strings.Join(result.Sources, ", "))
	}
}

// describeFailure keeps infrastructure failures distinguishable in the
// terminal: a service being down must never read like "no answer found".
func describeFailure(err error) error {
	switch {
	case errors.Is(err, internal.ErrEmbedding):
		return fmt.Errorf("embedding service unavailable: %w", err)
	case errors.Is(err, internal.ErrIndex):
		return fmt.Errorf("vector index unavailable: %w", err)
	case errors.Is(err, internal.ErrGeneration):
		return fmt.Errorf("language model unavailable: %w", err)
	default:
		return err
	}
}
