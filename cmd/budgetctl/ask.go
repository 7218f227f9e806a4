package main

import (
	"strings"

	"github.com/spf13/cobra"

	"budgetx/internal/client"
)

// maxContextBytes bounds a --context file; the server rejects bodies over 1 MiB.
const maxContextBytes = 512 << 10

func (a *app) askCmd() *cobra.Command {
	var contextFile string
	cmd := &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask a what-if question about the budget",
		Example: `  budgetctl ask "Can I afford a 300 a month car lease?"
  budgetctl ask --context plan.md What if I move to a cheaper flat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			budgetContext := ""
			if contextFile != "" {
				data, err := readSmallFile(contextFile)
				if err != nil {
					return err
				}
				budgetContext = string(data)
			}

			frags, err := a.api.StreamAdvice(cmd.Context(), question, budgetContext)
			if err != nil {
				a.printf("%s\n", client.FallbackAnswer)
				return err
			}
			wrote := false
			for frag, err := range frags {
				if err != nil {
					if !wrote {
						a.printf("%s", client.FallbackAnswer)
					}
					a.printf("\n")
					return err
				}
				a.printf("%s", frag)
				wrote = wrote || frag != ""
			}
			a.printf("\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&contextFile, "context", "", "File with a budget description to use instead of the server's data")
	return cmd
}
