package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newHomeManagerCmd and newDarwinCmd group the Home Manager and nix-darwin
// option queries under their own parents, mirroring the package-level
// nixai convention of one cobra subtree per data source.
func newHomeManagerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "home-manager",
		Short: "Query Home Manager options",
	}

	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Home Manager options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := app.hm.SearchOptions(context.Background(), args[0], limit)
			if !res.Found {
				fmt.Println(errStyle.Render(res.Error))
				return nil
			}
			fmt.Println(headStyle.Render(fmt.Sprintf("%d matches", res.Count)))
			for _, opt := range res.Options {
				fmt.Printf("%s (score %d) - %s\n", opt.Name, res.Scores[opt.Name], opt.Description)
			}
			return nil
		},
	}
	search.Flags().IntVar(&limit, "limit", 20, "maximum results")

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Look up a Home Manager option by exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup := app.hm.GetOption(context.Background(), args[0])
			if !lookup.Found {
				fmt.Println(errStyle.Render(lookup.Error))
				for _, s := range lookup.Suggestions {
					fmt.Println(dimStyle.Render("  did you mean: " + s))
				}
				return nil
			}
			fmt.Println(okStyle.Render(lookup.Name))
			fmt.Printf("type: %s\n%s", lookup.Type, renderDescription(lookup.Description))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List top-level Home Manager option categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := app.hm.GetOptionsList(context.Background())
			if err != nil {
				return err
			}
			for _, cat := range cats {
				fmt.Printf("%s (%d options, types: %v)\n", cat.Name, cat.Count, cat.Types)
				for _, e := range cat.EnableOptions {
					fmt.Println(dimStyle.Render("  enable: " + e.Name))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(search, get, list)
	return cmd
}

func newDarwinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "darwin",
		Short: "Query nix-darwin options",
	}

	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search nix-darwin options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := app.dwn.SearchOptions(context.Background(), args[0], limit)
			if !res.Found {
				fmt.Println(errStyle.Render(res.Error))
				return nil
			}
			fmt.Println(headStyle.Render(fmt.Sprintf("%d matches", res.Count)))
			for _, opt := range res.Options {
				fmt.Printf("%s (score %d) - %s\n", opt.Name, res.Scores[opt.Name], opt.Description)
			}
			return nil
		},
	}
	search.Flags().IntVar(&limit, "limit", 20, "maximum results")

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Look up a nix-darwin option by exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lookup := app.dwn.GetOption(context.Background(), args[0])
			if !lookup.Found {
				fmt.Println(errStyle.Render(lookup.Error))
				for _, s := range lookup.Suggestions {
					fmt.Println(dimStyle.Render("  did you mean: " + s))
				}
				return nil
			}
			fmt.Println(okStyle.Render(lookup.Name))
			fmt.Printf("type: %s\n%s", lookup.Type, renderDescription(lookup.Description))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List top-level nix-darwin option categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := app.dwn.GetOptionsList(context.Background())
			if err != nil {
				return err
			}
			for _, cat := range cats {
				fmt.Printf("%s (%d options, types: %v)\n", cat.Name, cat.Count, cat.Types)
				for _, e := range cat.EnableOptions {
					fmt.Println(dimStyle.Render("  enable: " + e.Name))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(search, get, list)
	return cmd
}
