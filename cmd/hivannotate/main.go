// Command hivannotate joins an attribute table onto an already-assembled
// report according to a schema descriptor, emitting the annotated report.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/molnet/transnet/annotate"
)

var (
	outputFile string
	logger     *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hivannotate <report.json> <attributes.json> <schema.json>",
	Short: "Join an attribute table onto a transmission network report",
	Args:  cobra.ExactArgs(3),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func run(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	log := logger.WithField("run_id", runID)

	reportDoc, err := readJSONObject(args[0])
	if err != nil {
		return fmt.Errorf("hivannotate: reading report: %w", err)
	}

	attrsRaw, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("hivannotate: reading attributes: %w", err)
	}
	attrs, err := annotate.NormalizeAttributes(attrsRaw)
	if err != nil {
		return fmt.Errorf("hivannotate: parsing attributes: %w", err)
	}

	schemaDoc, err := readJSONObject(args[2])
	if err != nil {
		return fmt.Errorf("hivannotate: reading schema: %w", err)
	}

	log.WithField("attribute_records", len(attrs)).Info("annotating report")

	result, err := annotate.Annotate(reportDoc, attrs, schemaDoc)
	if err != nil {
		return fmt.Errorf("hivannotate: %w", err)
	}
	if len(result.SkippedNodes) > 0 {
		log.WithField("skipped_nodes", result.SkippedNodes).Warn("some nodes could not be keyed")
	}

	out, err := json.MarshalIndent(reportDoc, "", "  ")
	if err != nil {
		return fmt.Errorf("hivannotate: serializing report: %w", err)
	}

	return writeOutput(out)
}

func readJSONObject(path string) (map[string]interface{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return doc, nil
}

func writeOutput(out []byte) error {
	if outputFile == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("hivannotate: writing %s: %w", outputFile, err)
	}
	return nil
}
