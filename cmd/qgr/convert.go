package main

import (
	"fmt"

	"github.com/qgr-lab/qgr/internal/convert"
	"github.com/spf13/cobra"
)

var (
	convertPattern     string
	convertOnCollision string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertPattern, "pattern", convert.DefaultPattern, "File-name suffix selecting input files")
	convertCmd.Flags().StringVar(&convertOnCollision, "on-collision", "", "Collision policy: overwrite or error (default from config)")
}

var convertCmd = &cobra.Command{
	Use:   "convert [src] [dst]",
	Short: "Convert TEI-XML files into document JSON",
	Long: `Convert a tree of GROBID TEI-XML files into document JSON records.

Each input file yields one JSON record named after its slugified title,
mirrored into the destination tree at the input's relative path. Files
whose extraction fails (for example, missing title) are skipped with a
diagnostic; the batch never aborts for one bad input.

With no arguments, converts from the workspace tei tree into the
converted tree.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	src := cfg.ResolveDir(root, cfg.TEIDir)
	dst := cfg.ResolveDir(root, cfg.ConvertedDir)
	if len(args) > 0 {
		src = args[0]
	}
	if len(args) > 1 {
		dst = args[1]
	}

	policyName := convertOnCollision
	if policyName == "" {
		policyName = cfg.OnCollision
	}
	policy, err := convert.ParsePolicy(policyName)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	conv := &convert.Converter{
		SrcRoot:     src,
		DstRoot:     dst,
		Pattern:     convertPattern,
		OnCollision: policy,
	}

	stats, err := conv.Run()
	if err != nil {
		exitWithError(ExitDataError, "converting: %v", err)
	}

	if humanOutput {
		fmt.Printf("Converted %d documents to %s\n", stats.Converted, dst)
		for _, skip := range stats.Skipped {
			fmt.Printf("  skipped %s: %s\n", skip.Path, skip.Reason)
		}
	} else {
		outputJSON(stats)
	}

	return nil
}
