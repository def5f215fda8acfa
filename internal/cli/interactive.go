package cli

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// newInteractiveCmd starts a readline-backed REPL over the root command
// tree, per nix-ai-help/internal/cli/interactive_completion.go's
// InteractiveModeWithCompletion.
func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			runInteractive(cmd.Root())
			return nil
		},
	}
}

func runInteractive(root *cobra.Command) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36mnixmcp>\033[0m ",
		HistoryFile:       "/tmp/nixmcp_core_history",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Println(errStyle.Render(fmt.Sprintf("readline unavailable: %v", err)))
		return
	}
	defer rl.Close()

	fmt.Println(headStyle.Render("nixmcp-core interactive mode — type 'help' or 'exit'"))

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			}
			break
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return
		case input == "help" || input == "?":
			fmt.Println(root.UsageString())
			continue
		}

		root.SetArgs(strings.Fields(input))
		if err := root.Execute(); err != nil {
			fmt.Println(errStyle.Render(err.Error()))
		}
	}
}
