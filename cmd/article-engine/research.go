// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic without writing an article",
	Long: `Research runs only the research phase: it searches for sources, fetches
and summarizes them, scores trending angles, and (with --platform) analyzes
similar articles. The bundle is printed as text or JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	e, err := newEngine(cmd.Context(), loadConfig(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	bundle := e.research.Research(cmd.Context(), req.Topic, req.Subtopics, req.Platform)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatResearchOutput(bundle, jsonOutput)
}

func formatResearchOutput(b types.ResearchBundle, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}

	fmt.Fprintf(os.Stdout, "Topic: %s\n\n%s\n", b.Topic, b.Summary)
	for _, st := range b.Subtopics {
		fmt.Fprintf(os.Stdout, "\n## %s\n\n%s\n", st, b.SubtopicSummaries[st])
	}

	if len(b.TrendingTopics) > 0 {
		fmt.Fprintln(os.Stdout, "\nTrending angles")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 60))
		for _, t := range b.TrendingTopics {
			fmt.Fprintf(os.Stdout, "%.2f  %s\n", t.RelevanceScore, t.Name)
		}
	}

	if sa := b.SimilarArticles; sa != nil {
		fmt.Fprintf(os.Stdout, "\nSimilar articles on %s: %d (avg %d words, %d sections)\n",
			sa.Platform, sa.ArticleCount, sa.AvgWordCount, sa.AvgSectionCount)
		for _, s := range sa.CommonSections {
			fmt.Fprintf(os.Stdout, "  - %s\n", s)
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d sources, %d failed\n", b.SourceCount, b.FailedSources)
	return nil
}

func init() {
	addRequestFlags(researchCmd)
	researchCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(researchCmd)
}
