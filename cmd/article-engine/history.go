// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/store"
	"github.com/pdiddy/article-engine/pkg/types"
)

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "List previously generated articles",
	Long: `History lists saved articles, newest first. The optional query is
matched against article titles and content using full-text search when the
history index supports it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := store.Open(cmd.Context(), loadConfig().Storage, logger.Named("store"))
	if err != nil {
		return err
	}
	defer s.Close()

	f := types.HistoryFilter{}
	f.Topic, _ = cmd.Flags().GetString("topic")
	f.Platform, _ = cmd.Flags().GetString("platform")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Query, _ = cmd.Flags().GetString("query")
	if len(args) > 0 {
		f.Query = args[0]
	}

	entries, err := s.History(cmd.Context(), f)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(entries, jsonOutput)
}

func formatHistoryOutput(entries []types.HistoryEntry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No articles found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-40s  %-14s  %-10s  %6s  %s\n",
		"Created", "Title", "Style", "Platform", "Words", "File")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, e := range entries {
		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-16s  %-40s  %-14s  %-10s  %6d  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), title, e.Style, e.Platform, e.WordCount, e.ContentPath)
	}

	fmt.Fprintf(os.Stdout, "\n%d articles\n", len(entries))
	return nil
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <article.md|metadata.yaml>",
	Short: "Render a saved article in the terminal",
	Long: `Show renders a saved article as styled Markdown. It accepts either the
article file or its metadata YAML, in which case the article path is read
from the metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	path := args[0]
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		_, saved, err := store.ReadMetadata(path)
		if err != nil {
			return err
		}
		if saved.ContentPath == "" {
			return fmt.Errorf("%s: metadata has no article path", path)
		}
		path = saved.ContentPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading article: %w", err)
	}

	raw, _ := cmd.Flags().GetBool("raw")
	if raw {
		_, err = os.Stdout.Write(data)
		return err
	}

	width, _ := cmd.Flags().GetInt("width")
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(string(data))
	if err != nil {
		return fmt.Errorf("rendering article: %w", err)
	}
	fmt.Print(out)
	return nil
}

func init() {
	historyCmd.Flags().String("topic", "", "filter by topic substring")
	historyCmd.Flags().String("platform", "", "filter by platform")
	historyCmd.Flags().String("query", "", "full-text query (same as the positional argument)")
	historyCmd.Flags().Int("limit", 20, "maximum number of articles")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	showCmd.Flags().Bool("raw", false, "print the Markdown without styling")
	showCmd.Flags().Int("width", 80, "word wrap width")

	rootCmd.AddCommand(historyCmd, showCmd)
}
