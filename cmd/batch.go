package main

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/orchestrate"
)

var (
	batchWorkers int
	batchDLQPath string
)

var batchCmd = &cobra.Command{
	Use:   "batch <items-file>",
	Short: "Extract records for many targets from a JSON-lines file",
	Long:  "Each line of the input file is a JSON object: {\"url\": \"...\", \"kind\": \"team_roster\", \"company\": \"...\"}. Results are written to stdout; failures go to the dead-letter file for a later re-run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readBatchItems(args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return eris.New("no items in input file")
		}

		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		env, err := initPipeline(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		workers := batchWorkers
		if workers == 0 {
			workers = cfg.Pipeline.Workers
		}

		report, err := env.Orchestrator.RunBatch(cmd.Context(), items, workers)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Outcomes); err != nil {
			return eris.Wrap(err, "encode outcomes")
		}

		if len(report.DeadLetters) > 0 && batchDLQPath != "" {
			if err := writeDeadLetters(batchDLQPath, report); err != nil {
				return err
			}
			zap.L().Warn("batch: wrote dead letters",
				zap.Int("count", len(report.DeadLetters)),
				zap.String("path", batchDLQPath),
			)
		}

		zap.L().Info("batch: done",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func readBatchItems(path string) ([]orchestrate.BatchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open items file")
	}
	defer f.Close()

	var items []orchestrate.BatchItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var item orchestrate.BatchItem
		if err := json.Unmarshal(text, &item); err != nil {
			return nil, eris.Wrapf(err, "parse line %d", line)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read items file")
	}
	return items, nil
}

func writeDeadLetters(path string, report *orchestrate.BatchReport) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrap(err, "open dead-letter file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range report.DeadLetters {
		if err := enc.Encode(entry); err != nil {
			return eris.Wrap(err, "write dead-letter entry")
		}
	}
	return nil
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&batchDLQPath, "dlq", "dead-letters.jsonl", "dead-letter output file for failed items")
	rootCmd.AddCommand(batchCmd)
}
