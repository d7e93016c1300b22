package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qgr-lab/qgr/internal/config"
	"github.com/qgr-lab/qgr/internal/grobid"
	"github.com/spf13/cobra"
)

var grobidSkipCheck bool

func init() {
	rootCmd.AddCommand(grobidCmd)

	grobidCmd.Flags().BoolVar(&grobidSkipCheck, "skip-check", false, "Skip the local PDF sanity check before upload")
}

// GrobidFileResult records the outcome for one PDF.
type GrobidFileResult struct {
	PDF    string `json:"pdf"`
	TEI    string `json:"tei,omitempty"`
	Pages  int    `json:"pages,omitempty"`
	DOI    string `json:"doi,omitempty"`
	Error  string `json:"error,omitempty"`
	Status string `json:"status"`
}

// GrobidResponse is the response for the grobid command.
type GrobidResponse struct {
	Processed int                `json:"processed"`
	Failed    int                `json:"failed"`
	Results   []GrobidFileResult `json:"results"`
}

var grobidCmd = &cobra.Command{
	Use:   "grobid [pdf-dir] [tei-dst]",
	Short: "Convert PDFs to TEI-XML via a GROBID service",
	Long: `Submit every PDF under pdf-dir to a GROBID service and write the
resulting TEI-XML files under tei-dst, named <pdf-basename>.tei.xml.

Each PDF is sanity-checked locally before upload. A PDF that fails
conversion is recorded and skipped; the batch continues.

With no arguments, converts from the workspace pdfs tree into the
tei tree.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runGrobid,
}

func runGrobid(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	pdfDir := cfg.ResolveDir(root, cfg.PDFDir)
	teiDir := cfg.ResolveDir(root, cfg.TEIDir)
	if len(args) > 0 {
		pdfDir = args[0]
	}
	if len(args) > 1 {
		teiDir = args[1]
	}

	var opts []grobid.ClientOption
	if url := config.GetGrobidURL(); url != "" {
		opts = append(opts, grobid.WithBaseURL(url))
	}
	client := grobid.NewClient(opts...)

	if err := client.IsAlive(ctx); err != nil {
		exitWithError(ExitServiceError, "%v", err)
	}

	var pdfs []string
	err := filepath.WalkDir(pdfDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		exitWithError(ExitError, "listing PDFs: %v", err)
	}

	if err := os.MkdirAll(teiDir, 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", teiDir, err)
	}

	resp := GrobidResponse{Results: make([]GrobidFileResult, 0, len(pdfs))}
	for _, pdfPath := range pdfs {
		result := GrobidFileResult{PDF: pdfPath}

		if !grobidSkipCheck {
			info, err := grobid.CheckPDF(pdfPath)
			if err != nil {
				result.Status = "failed"
				result.Error = err.Error()
				resp.Failed++
				resp.Results = append(resp.Results, result)
				continue
			}
			result.Pages = info.Pages
			result.DOI = info.DOI
		}

		tei, err := client.ProcessFulltext(ctx, pdfPath)
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}

		base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
		teiPath := filepath.Join(teiDir, base+".tei.xml")
		if err := os.WriteFile(teiPath, tei, 0644); err != nil {
			result.Status = "failed"
			result.Error = fmt.Sprintf("writing %s: %v", teiPath, err)
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}

		result.Status = "converted"
		result.TEI = teiPath
		resp.Processed++
		resp.Results = append(resp.Results, result)
	}

	if humanOutput {
		fmt.Printf("Converted %d PDFs, %d failed\n", resp.Processed, resp.Failed)
		for _, r := range resp.Results {
			if r.Status == "failed" {
				fmt.Printf("  failed %s: %s\n", r.PDF, r.Error)
			}
		}
	} else {
		outputJSON(resp)
	}

	return nil
}
