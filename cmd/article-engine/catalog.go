// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/pkg/types"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available writing styles",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range platform.StyleNames() {
			fmt.Fprintf(os.Stdout, "%-16s  %s\n", name, platform.Styles[types.WritingStyle(name)])
		}
	},
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the target platforms and their style profiles",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("profiles")
		for _, name := range platform.PlatformNames() {
			p := types.Platform(name)
			fmt.Fprintf(os.Stdout, "%-10s  %s\n", name, platform.Platforms[p])
			if !verbose {
				continue
			}
			prof := platform.Profile(p)
			if prof == nil {
				continue
			}
			fmt.Fprintf(os.Stdout, "            about %d words in %d sections, %s\n",
				prof.AvgWordCount, prof.AvgSectionCount, prof.Tone)
			fmt.Fprintf(os.Stdout, "            formats: %s\n", strings.Join(prof.CommonFormats, ", "))
			for _, pat := range prof.CommonPatterns {
				fmt.Fprintf(os.Stdout, "            - %s\n", pat)
			}
		}
	},
}

func init() {
	platformsCmd.Flags().Bool("profiles", false, "include each platform's style profile")

	rootCmd.AddCommand(stylesCmd, platformsCmd)
}
