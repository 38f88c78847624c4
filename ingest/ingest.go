// Package ingest reads a pairwise-distance CSV buffer, invokes the ID parser
// on each endpoint, enforces input validity, filters by threshold, and hands
// validated triples to the subject.Network graph builder.
//
// The algorithm is two-pass, matching the original implementation's
// TransmissionNetwork::read_from_csv_str plus its accompanying node-universe
// pre-scan: pass A walks the CSV once to collect the union of every endpoint
// id that appears anywhere (even in rows later dropped by the threshold) and
// the (raw_a, raw_b, distance) tuples that survive the threshold; pass B
// parses every collected id exactly once and feeds the graph builder.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/molnet/transnet/idparse"
	"github.com/molnet/transnet/subject"
)

// Sentinel errors for ingestion failures. Every one of these aborts the
// entire network build; no partial Network is ever returned.
var (
	// ErrEmptyInput indicates the trimmed CSV buffer was empty.
	ErrEmptyInput = errors.New("ingest: empty input")

	// ErrRowTooShort indicates a data row had fewer than three fields.
	ErrRowTooShort = errors.New("ingest: row has fewer than three fields")

	// ErrDistance indicates the third field of a row could not be parsed as
	// a floating-point distance.
	ErrDistance = errors.New("ingest: unparseable distance")

	// ErrMalformedCSV indicates the input buffer could not be decoded as CSV.
	ErrMalformedCSV = errors.New("ingest: malformed csv")
)

const headerDistanceField = "distance"

type candidate struct {
	rawA, rawB string
	distance   float64
}

// Build parses csvBuf as a pairwise-distance table and returns a fully
// populated Network. It does not call ComputeAdjacency; callers run the
// clustering stage explicitly afterward.
func Build(csvBuf string, threshold float64, format idparse.Format, pattern *regexp.Regexp) (*subject.Network, error) {
	trimmed := strings.TrimSpace(csvBuf)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	rows, err := readRows(trimmed)
	if err != nil {
		return nil, err
	}
	rows = dropHeaderIfPresent(rows)

	rawIDs := make(map[string]struct{})
	var candidates []candidate

	for _, row := range rows {
		if len(row) < 3 {
			return nil, ErrRowTooShort
		}
		rawA := strings.TrimSpace(row[0])
		rawB := strings.TrimSpace(row[1])
		if rawA == "" || rawB == "" {
			continue
		}
		distStr := strings.TrimSpace(row[2])
		distance, err := strconv.ParseFloat(distStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrDistance, distStr)
		}

		rawIDs[rawA] = struct{}{}
		rawIDs[rawB] = struct{}{}

		if distance <= threshold {
			candidates = append(candidates, candidate{rawA: rawA, rawB: rawB, distance: distance})
		}
	}

	net := subject.NewNetwork()
	net.Meta["threshold"] = threshold

	parsedByRaw := make(map[string]idparse.Parsed, len(rawIDs))
	for raw := range rawIDs {
		p, err := idparse.Parse(raw, format, pattern)
		if err != nil {
			return nil, err
		}
		parsedByRaw[raw] = p
		net.AddNode(p.ID, p.Date, p.Attributes)
	}

	for _, c := range candidates {
		pa := parsedByRaw[c.rawA]
		pb := parsedByRaw[c.rawB]
		if err := net.AddEdge(pa.ID, pa.Date, pb.ID, pb.Date, c.distance); err != nil {
			return nil, err
		}
	}

	return net, nil
}

// readRows decodes buf as CSV, tolerating ragged rows (field count is
// enforced by the caller, not by the reader).
func readRows(buf string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(buf))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	return rows, nil
}

// dropHeaderIfPresent removes the first row if it looks like a header: at
// least three fields, and the third trims to "distance".
func dropHeaderIfPresent(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	first := rows[0]
	if len(first) >= 3 && strings.TrimSpace(first[2]) == headerDistanceField {
		return rows[1:]
	}
	return rows
}
