// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/internal/tui"
	"github.com/pdiddy/article-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Research, write, and save an article on a topic",
	Long: `Generate runs the full pipeline for one topic: research, outline
planning, section writing, review, and humanizing. The finished article is
written to the articles directory together with a metadata YAML file and a
"latest" copy.

Use --outline to supply a YAML or JSON outline instead of generating one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg := loadConfig()
	e, err := newEngine(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer e.Close()

	kafkaObs := e.runObserver(newRunID(), req.Topic)
	useTUI, _ := cmd.Flags().GetBool("tui")

	var res pipeline.Result
	if useTUI {
		res, err = tui.Run(ctx, req.Topic, func(ctx context.Context, obs progress.Observer) (pipeline.Result, error) {
			req.Observer = progress.Join(obs, kafkaObs)
			return e.orchestrator.Run(ctx, req)
		})
	} else {
		req.Observer = progress.Join(printer(os.Stderr), kafkaObs)
		res, err = e.orchestrator.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	if !useTUI {
		printSummary(res)
	}
	return nil
}

// newRunID identifies one pipeline run in published progress messages.
func newRunID() string { return uuid.NewString() }

// requestFromFlags builds a pipeline request from the command line. The
// topic may be given as the positional argument or with --topic.
func requestFromFlags(cmd *cobra.Command, args []string) (pipeline.Request, error) {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" && len(args) > 0 {
		topic = args[0]
	}
	if strings.TrimSpace(topic) == "" {
		return pipeline.Request{}, fmt.Errorf("topic required: pass it as an argument or with --topic")
	}

	styleName, _ := cmd.Flags().GetString("style")
	style, err := platform.ParseStyle(strings.ToLower(styleName))
	if err != nil {
		return pipeline.Request{}, err
	}
	platformName, _ := cmd.Flags().GetString("platform")
	p, err := platform.ParsePlatform(strings.ToLower(platformName))
	if err != nil {
		return pipeline.Request{}, err
	}

	req := pipeline.Request{
		Topic:       topic,
		Style:       style,
		Platform:    p,
		Concurrency: loadConcurrency(cmd),
	}
	req.Description, _ = cmd.Flags().GetString("description")
	req.Subtopics, _ = cmd.Flags().GetStringSlice("subtopic")

	if path, _ := cmd.Flags().GetString("outline"); path != "" {
		outline, err := draft.LoadOutline(path)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Outline = outline
	}
	return req, nil
}

// loadConcurrency prefers the flag over configuration.
func loadConcurrency(cmd *cobra.Command) int {
	if cmd.Flags().Changed("concurrency") {
		n, _ := cmd.Flags().GetInt("concurrency")
		return n
	}
	return loadConfig().Concurrency
}

func printSummary(res pipeline.Result) {
	md := res.Metadata
	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stdout, "Title:     %s\n", md.Title)
	fmt.Fprintf(os.Stdout, "Words:     %d (%d sections)\n", md.WordCount, md.SectionCount)
	if r := res.State.Research; r != nil {
		fmt.Fprintf(os.Stdout, "Sources:   %d (%d failed)\n", r.SourceCount, r.FailedSources)
	}
	fmt.Fprintf(os.Stdout, "Gateway:   %d remote, %d cached, %d fallback\n",
		md.Gateway.RemoteCalls, md.Gateway.CacheHits, md.Gateway.Fallbacks)
	fmt.Fprintf(os.Stdout, "Time:      %.1fs\n", md.TotalSeconds)
	if res.Saved.ContentPath != "" {
		fmt.Fprintf(os.Stdout, "Article:   %s\n", res.Saved.ContentPath)
		fmt.Fprintf(os.Stdout, "Latest:    %s\n", res.Saved.LatestPath)
		fmt.Fprintf(os.Stdout, "Metadata:  %s\n", res.Saved.MetadataPath)
	}
	if res.Saved.HTMLPath != "" {
		fmt.Fprintf(os.Stdout, "HTML:      %s\n", res.Saved.HTMLPath)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("topic", "", "article topic")
	cmd.Flags().String("description", "", "extra context for the article")
	cmd.Flags().String("style", string(types.StyleConversational), fmt.Sprintf("writing style %v", platform.StyleNames()))
	cmd.Flags().String("platform", string(types.PlatformNone), fmt.Sprintf("target platform %v", platform.PlatformNames()))
	cmd.Flags().StringSlice("subtopic", nil, "subtopic to research (repeatable)")
	cmd.Flags().Int("concurrency", 1, "sections written in parallel")
}

func init() {
	addRequestFlags(generateCmd)
	generateCmd.Flags().String("outline", "", "YAML or JSON outline file to use instead of planning")
	generateCmd.Flags().Bool("tui", false, "show an interactive progress view")

	rootCmd.AddCommand(generateCmd)
}
