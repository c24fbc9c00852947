package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/orchestrate"
)

var (
	extractKind    string
	extractCompany string
	extractText    string
)

var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "Extract one record from a URL or a local text file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(extractKind)
		if err != nil {
			return err
		}

		req := orchestrate.Request{Kind: kind, Company: extractCompany}
		switch {
		case extractText != "":
			raw, readErr := os.ReadFile(extractText)
			if readErr != nil {
				return eris.Wrap(readErr, "read text file")
			}
			req.RawText = string(raw)
		case len(args) == 1:
			req.URL = args[0]
		default:
			return eris.New("either a url argument or --text is required")
		}

		if err := cfg.Validate("extract"); err != nil {
			return err
		}
		env, err := initPipeline(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Orchestrator.Run(cmd.Context(), req)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}
		if !result.Success {
			return eris.Errorf("extraction failed: %s", result.Error)
		}
		return nil
	},
}

func parseKind(s string) (model.RecordKind, error) {
	for _, k := range model.AllRecordKinds() {
		if s == string(k) {
			return k, nil
		}
	}
	return "", eris.Errorf("unknown kind %q (one of: profile, team_roster, product_info, business_metrics)", s)
}

func init() {
	extractCmd.Flags().StringVar(&extractKind, "kind", "profile", "record kind to extract")
	extractCmd.Flags().StringVar(&extractCompany, "company", "", "company or product name for context")
	extractCmd.Flags().StringVar(&extractText, "text", "", "extract from a local text/HTML file instead of fetching")
	rootCmd.AddCommand(extractCmd)
}
