package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewChatCmd(factory answererFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question loop",
		Long:  `Start an interactive session. Each answer shows whether it was grounded in the documents (RAG) or came from general knowledge (FALLBACK).`,
		Args:  cobra.NoArgs,
		RunE:  makeChatRunner(factory),
	}
}

func makeChatRunner(factory answererFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		pipeline, _, err := factory(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "askdoc chat. Type a question, or 'exit' to quit.")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}

			line := strings.TrimSpace(scanner.Text())
			switch strings.ToLower(line) {
			case "":
				continue
			case "exit", "quit":
				fmt.Fprintln(out, "Bye.")
				return nil
			}

			result, err := pipeline.AnswerStream(cmd.Context(), line)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", describeFailure(err))
				continue
			}

			fmt.Fprintf(out, "[%s]\n", modeBadge(result.Mode))
			for delta := range result.Deltas {
				fmt.Fprint(out, delta)
			}
			fmt.Fprintln(out)
			if len(result.Sources) > 0 {
				fmt.Fprintf(out, "\nSources: %s\n", strings.Join(result.Sources, ", "))
			}
			fmt.Fprintln(out)
		}
	}
}
