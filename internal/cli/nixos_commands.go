package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchPackagesCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "search-packages <query>",
		Short: "Search NixOS packages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.nixos.SearchPackages(context.Background(), args[0], limit, offset)
			if err != nil {
				return err
			}
			fmt.Println(headStyle.Render(fmt.Sprintf("%d matches", result.Count)))
			for _, pkg := range result.Packages {
				fmt.Printf("%s (%s) - %s\n", pkg.Name, pkg.Version, pkg.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	return cmd
}

func newSearchOptionsCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "search-options <query>",
		Short: "Search NixOS module options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.nixos.SearchOptions(context.Background(), args[0], limit, offset)
			if err != nil {
				return err
			}
			fmt.Println(headStyle.Render(fmt.Sprintf("%d matches", result.Count)))
			for _, opt := range result.Options {
				fmt.Printf("%s (%s) - %s\n", opt.Name, opt.Type, opt.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	return cmd
}

func newGetPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-package <name>",
		Short: "Look up a NixOS package by exact attribute name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := app.nixos.GetPackage(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !pkg.Found {
				fmt.Println(errStyle.Render(pkg.Error))
				return nil
			}
			fmt.Println(okStyle.Render(pkg.Name))
			fmt.Printf("version: %s\nhomepage: %s\n%s", pkg.Version, pkg.Homepage, renderDescription(pkg.Description))
			return nil
		},
	}
	return cmd
}

func newGetOptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-option <name>",
		Short: "Look up a NixOS module option by exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := app.nixos.GetOption(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !opt.Found {
				fmt.Println(errStyle.Render(opt.Error))
				return nil
			}
			fmt.Println(okStyle.Render(opt.Name))
			fmt.Printf("type: %s\n%s", opt.Type, renderDescription(opt.Description))
			for _, rel := range opt.RelatedOptions {
				fmt.Println(dimStyle.Render("  related: " + rel.Name))
			}
			return nil
		},
	}
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show NixOS package aggregate statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.nixos.GetPackageStats(context.Background(), "*")
			if err != nil {
				return err
			}
			fmt.Println(headStyle.Render("channels"))
			for _, b := range stats.Channels {
				fmt.Printf("  %s: %d\n", b.Key, b.Count)
			}
			fmt.Println(headStyle.Render("licenses"))
			for _, b := range stats.Licenses {
				fmt.Printf("  %s: %d\n", b.Key, b.Count)
			}
			return nil
		},
	}
	return cmd
}
