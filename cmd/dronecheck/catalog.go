package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/dronecheck/internal/catalog"
	"github.com/dshills/dronecheck/internal/render"
)

func newClassesCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the drone classes accepted by check --class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd.OutOrStdout(), *g, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or md")
	return cmd
}

func newCatalogCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the regulation catalog",
	}

	var format string
	show := &cobra.Command{
		Use:   "show [category]",
		Short: "Show operating categories and their subcategories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runCatalogShow(cmd.OutOrStdout(), *g, key, format)
		},
	}
	show.Flags().StringVar(&format, "format", "text", "Output format: text, json or md")

	diff := &cobra.Command{
		Use:   "diff <file>",
		Short: "Compare a catalog file against the active catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogDiff(cmd.OutOrStdout(), *g, args[0])
		},
	}

	cmd.AddCommand(show, diff)
	return cmd
}

func runClasses(w io.Writer, g globalFlags, format string) error {
	renderer, err := render.NewRenderer(format)
	if err != nil {
		return codeError(exitInvalid, "invalid flags: %s", err)
	}
	_, cat, err := loadSettings(g)
	if err != nil {
		return err
	}
	out, err := renderer.RenderClasses(cat.Classes())
	if err != nil {
		return codeError(exitInvalid, "rendering output: %s", err)
	}
	return writeOutput(w, "", out)
}

func runCatalogShow(w io.Writer, g globalFlags, key, format string) error {
	renderer, err := render.NewRenderer(format)
	if err != nil {
		return codeError(exitInvalid, "invalid flags: %s", err)
	}
	_, cat, err := loadSettings(g)
	if err != nil {
		return err
	}

	categories := cat.Categories()
	if key != "" {
		c, ok := cat.Category(strings.ToLower(key))
		if !ok {
			keys := make([]string, 0, len(categories))
			for _, c := range categories {
				keys = append(keys, c.Key)
			}
			return codeError(exitInvalid, "unknown category %q: valid categories are %s", key, strings.Join(keys, ", "))
		}
		categories = []catalog.Category{*c}
	}

	out, err := renderer.RenderCategories(categories)
	if err != nil {
		return codeError(exitInvalid, "rendering output: %s", err)
	}
	return writeOutput(w, "", out)
}

func runCatalogDiff(w io.Writer, g globalFlags, path string) error {
	_, base, err := loadSettings(g)
	if err != nil {
		return err
	}
	other, err := catalog.Load(path)
	if err != nil {
		return codeError(exitInvalid, "loading %s: %s", path, err)
	}

	patch, err := catalog.Diff(base, other)
	if err != nil {
		return codeError(exitInvalid, "diffing catalogs: %s", err)
	}
	if patch == "" {
		_, err := fmt.Fprintln(w, "catalogs are identical")
		return err
	}
	summary, err := catalog.ChangeSummary(base, other)
	if err != nil {
		return codeError(exitInvalid, "diffing catalogs: %s", err)
	}
	return writeOutput(w, "", []byte(summary+"\n"+patch))
}
