// Command hivcluster reads a pairwise-distance CSV and emits a clustered,
// canonical JSON report. It is the only I/O boundary for the build
// pipeline: idparse, ingest, subject, cluster and report never touch a file
// handle or a socket themselves.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/molnet/transnet/cluster"
	"github.com/molnet/transnet/idparse"
	"github.com/molnet/transnet/ingest"
	"github.com/molnet/transnet/report"
)

var (
	threshold   float64
	formatFlag  string
	outputFile  string
	regexFlag   string

	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hivcluster [input.csv]",
	Short: "Build a clustered transmission network report from pairwise distances",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.015, "distance threshold")
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "plain", "id format: plain|aeh|lanl|regex")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	rootCmd.Flags().StringVar(&regexFlag, "pattern", "", "compiled pattern for -f regex")

	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func run(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	log := logger.WithField("run_id", runID)

	format, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if format == idparse.Regex {
		if regexFlag == "" {
			return fmt.Errorf("hivcluster: -f regex requires --pattern")
		}
		pattern, err = regexp.Compile(regexFlag)
		if err != nil {
			return fmt.Errorf("hivcluster: invalid --pattern: %w", err)
		}
	}

	buf, err := readInput(args)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"threshold": threshold,
		"format":    format.String(),
	}).Info("building network")

	net, err := ingest.Build(buf, threshold, format, pattern)
	if err != nil {
		return fmt.Errorf("hivcluster: %w", err)
	}

	net.ComputeAdjacency()
	cluster.Compute(net)

	r := report.Assemble(net)
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("hivcluster: serializing report: %w", err)
	}

	log.WithFields(logrus.Fields{
		"nodes": r.NetworkSummary.Nodes,
		"edges": r.NetworkSummary.Edges,
	}).Info("network built")

	return writeOutput(out)
}

func parseFormat(s string) (idparse.Format, error) {
	switch s {
	case "plain":
		return idparse.Plain, nil
	case "aeh":
		return idparse.AEH, nil
	case "lanl":
		return idparse.LANL, nil
	case "regex":
		return idparse.Regex, nil
	default:
		return 0, fmt.Errorf("hivcluster: unknown format %q", s)
	}
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("hivcluster: reading %s: %w", args[0], err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("hivcluster: reading stdin: %w", err)
	}
	return string(b), nil
}

func writeOutput(out []byte) error {
	if outputFile == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("hivcluster: writing %s: %w", outputFile, err)
	}
	return nil
}
