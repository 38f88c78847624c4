// Package annotate joins an external attribute table onto an already
// assembled report's Nodes block, the way the original annotation engine's
// keyed join works: build a key for every node id, build the same kind of
// key for every attribute record, and copy schema-declared fields across
// wherever the keys match.
package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. ErrMissingNodes and ErrMissingNodeIDs are structural
// failures that abort the whole annotation; per-node key-construction
// failures are recorded in Result.SkippedNodes instead of aborting.
var (
	ErrMissingNodes   = errors.New("annotate: report has no Nodes block")
	ErrMissingNodeIDs = errors.New("annotate: Nodes.id is missing or not an array")
	ErrNodesShape     = errors.New("annotate: Nodes must be an object with a parallel id array")
)

const (
	defaultKeyDelimiter = "~"
)

var defaultKeyFields = []string{"ehars_uid"}

// schemaField describes one non-"keying" entry of a schema document.
type schemaField struct {
	Type  string          `json:"type"`
	Label string          `json:"label"`
	Enum  json.RawMessage `json:"enum,omitempty"`
}

type keying struct {
	Fields    []string `json:"fields"`
	Delimiter string   `json:"delimiter"`
}

// Result reports which nodes could not be keyed; annotation of the rest
// still proceeds.
type Result struct {
	SkippedNodes []string
}

// Annotate mutates reportJSON (a parsed report document, optionally wrapped
// in {"trace_results": ...}) in place: it ensures patient_attribute_schema
// reflects schemaJSON, then joins attributesJSON onto Nodes.patient_attributes
// by the schema's declared (or default) composite key.
func Annotate(reportJSON map[string]interface{}, attributesJSON []map[string]interface{}, schemaJSON map[string]interface{}) (Result, error) {
	target := reportJSON
	if wrapped, ok := reportJSON["trace_results"].(map[string]interface{}); ok {
		target = wrapped
	}

	fields, delimiter := extractKeying(schemaJSON)

	schemaBlock, _ := target["patient_attribute_schema"].(map[string]interface{})
	if schemaBlock == nil {
		schemaBlock = map[string]interface{}{}
	}
	for name, raw := range schemaJSON {
		if name == "keying" {
			continue
		}
		entry, err := buildSchemaEntry(name, raw)
		if err != nil {
			return Result{}, err
		}
		schemaBlock[name] = entry
	}
	target["patient_attribute_schema"] = schemaBlock

	nodesRaw, ok := target["Nodes"]
	if !ok {
		return Result{}, ErrMissingNodes
	}
	nodesObj, ok := nodesRaw.(map[string]interface{})
	if !ok {
		return Result{}, ErrNodesShape
	}
	idsRaw, ok := nodesObj["id"]
	if !ok {
		return Result{}, ErrMissingNodeIDs
	}
	idsSlice, ok := idsRaw.([]interface{})
	if !ok {
		return Result{}, ErrMissingNodeIDs
	}

	patientAttrs := ensurePatientAttributesSlice(nodesObj, len(idsSlice))

	keyToIndex := make(map[string]int, len(idsSlice))
	var result Result
	for i, raw := range idsSlice {
		id, ok := raw.(string)
		if !ok {
			result.SkippedNodes = append(result.SkippedNodes, fmt.Sprintf("%v", raw))
			continue
		}
		key, err := constructNodeKey(id, fields, delimiter)
		if err != nil {
			result.SkippedNodes = append(result.SkippedNodes, id)
			continue
		}
		keyToIndex[key] = i
	}

	attrByKey := make(map[string]map[string]interface{}, len(attributesJSON))
	for _, rec := range attributesJSON {
		key, err := constructRecordKey(rec, fields, delimiter)
		if err != nil {
			continue
		}
		attrByKey[key] = rec
	}

	schemaFieldNames := make([]string, 0, len(schemaJSON))
	for name := range schemaJSON {
		if name != "keying" {
			schemaFieldNames = append(schemaFieldNames, name)
		}
	}

	for key, idx := range keyToIndex {
		rec, ok := attrByKey[key]
		if !ok {
			continue
		}
		slot, _ := patientAttrs[idx].(map[string]interface{})
		if slot == nil {
			slot = map[string]interface{}{}
		}
		for name := range schemaJSON {
			if name == "keying" {
				continue
			}
			val, present := rec[name]
			if !present {
				continue
			}
			if val == nil {
				val = ""
			}
			slot[name] = val
		}
		patientAttrs[idx] = slot
	}

	for i := range patientAttrs {
		slot, _ := patientAttrs[i].(map[string]interface{})
		if slot == nil {
			slot = map[string]interface{}{}
		}
		for _, name := range schemaFieldNames {
			if v, ok := slot[name]; !ok || v == nil {
				slot[name] = ""
			}
		}
		patientAttrs[i] = slot
	}
	nodesObj["patient_attributes"] = patientAttrs
	target["Nodes"] = nodesObj

	return result, nil
}

func ensurePatientAttributesSlice(nodesObj map[string]interface{}, n int) []interface{} {
	existing, ok := nodesObj["patient_attributes"].([]interface{})
	if ok {
		return existing
	}
	out := make([]interface{}, n)
	for i := range out {
		out[i] = map[string]interface{}{}
	}
	return out
}

func buildSchemaEntry(name string, raw interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("annotate: schema entry %q is not valid JSON: %w", name, err)
	}
	var field schemaField
	if err := json.Unmarshal(b, &field); err != nil {
		return nil, fmt.Errorf("annotate: schema entry %q is not an object: %w", name, err)
	}
	if field.Type == "" {
		field.Type = "String"
	}
	if field.Label == "" {
		field.Label = name
	}
	entry := map[string]interface{}{
		"name":  name,
		"type":  field.Type,
		"label": field.Label,
	}
	if field.Type == "enum" && len(field.Enum) > 0 {
		var enumVals interface{}
		if err := json.Unmarshal(field.Enum, &enumVals); err == nil {
			entry["enum"] = enumVals
		}
	}
	return entry, nil
}

func extractKeying(schemaJSON map[string]interface{}) ([]string, string) {
	fields := append([]string(nil), defaultKeyFields...)
	delimiter := defaultKeyDelimiter

	raw, ok := schemaJSON["keying"]
	if !ok {
		return fields, delimiter
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fields, delimiter
	}
	var k keying
	if err := json.Unmarshal(b, &k); err != nil {
		return fields, delimiter
	}
	if len(k.Fields) > 0 {
		fields = k.Fields
	}
	if k.Delimiter != "" {
		delimiter = k.Delimiter
	}
	return fields, delimiter
}

// constructNodeKey derives the join key for a node id. With one key field
// the id is the key verbatim; with k > 1 fields the id is split on
// delimiter and the first k parts are rejoined.
func constructNodeKey(id string, fields []string, delimiter string) (string, error) {
	if len(fields) <= 1 {
		return id, nil
	}
	parts := strings.Split(id, delimiter)
	if len(parts) < len(fields) {
		return "", fmt.Errorf("annotate: id %q has fewer than %d parts", id, len(fields))
	}
	return strings.Join(parts[:len(fields)], delimiter), nil
}

// constructRecordKey derives the join key for an attribute record by
// concatenating its declared key fields in order.
func constructRecordKey(rec map[string]interface{}, fields []string, delimiter string) (string, error) {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := rec[f]
		if !ok {
			return "", fmt.Errorf("annotate: record missing key field %q", f)
		}
		parts = append(parts, stringify(v))
	}
	return strings.Join(parts, delimiter), nil
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// NormalizeAttributes accepts either a JSON array of attribute records or a
// single object (promoted to a one-element slice), matching the external
// interface's tolerance for both shapes.
func NormalizeAttributes(raw json.RawMessage) ([]map[string]interface{}, error) {
	var arr []map[string]interface{}
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return []map[string]interface{}{obj}, nil
	}
	return nil, fmt.Errorf("annotate: attributes JSON must be an array or object")
}
