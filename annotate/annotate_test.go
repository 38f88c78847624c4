package annotate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molnet/transnet/annotate"
)

func baseReport() map[string]interface{} {
	return map[string]interface{}{
		"Nodes": map[string]interface{}{
			"id": []interface{}{"A", "B", "C"},
		},
	}
}

func baseSchema() map[string]interface{} {
	return map[string]interface{}{
		"ehars_uid": map[string]interface{}{"type": "String", "label": "EHARS UID"},
		"stage":     map[string]interface{}{"type": "String", "label": "Stage"},
	}
}

func TestAnnotate_DefaultKeyJoinsMatchingRecords(t *testing.T) {
	require := require.New(t)
	report := baseReport()
	attrs := []map[string]interface{}{
		{"ehars_uid": "A", "stage": "Acute"},
		{"ehars_uid": "C", "stage": nil},
	}

	res, err := annotate.Annotate(report, attrs, baseSchema())
	require.NoError(err)
	require.Empty(res.SkippedNodes)

	nodes := report["Nodes"].(map[string]interface{})
	patientAttrs := nodes["patient_attributes"].([]interface{})

	a := patientAttrs[0].(map[string]interface{})
	require.Equal("A", a["ehars_uid"])
	require.Equal("Acute", a["stage"])

	b := patientAttrs[1].(map[string]interface{})
	require.Equal("", b["stage"], "unmatched node must fill in empty string")

	c := patientAttrs[2].(map[string]interface{})
	require.Equal("", c["stage"], "null attribute value must convert to empty string")
}

func TestAnnotate_SchemaBlockPopulated(t *testing.T) {
	require := require.New(t)
	report := baseReport()
	_, err := annotate.Annotate(report, nil, baseSchema())
	require.NoError(err)

	schema := report["patient_attribute_schema"].(map[string]interface{})
	entry := schema["stage"].(map[string]interface{})
	require.Equal("stage", entry["name"])
	require.Equal("String", entry["type"])
	require.Equal("Stage", entry["label"])
}

func TestAnnotate_EnumTypeCarriesEnumValues(t *testing.T) {
	require := require.New(t)
	report := baseReport()
	schema := map[string]interface{}{
		"risk": map[string]interface{}{
			"type":  "enum",
			"label": "Risk",
			"enum":  []interface{}{"low", "high"},
		},
	}
	_, err := annotate.Annotate(report, nil, schema)
	require.NoError(err)

	entry := report["patient_attribute_schema"].(map[string]interface{})["risk"].(map[string]interface{})
	require.Equal([]interface{}{"low", "high"}, entry["enum"])
}

func TestAnnotate_CompositeKeyFromMultipleFields(t *testing.T) {
	require := require.New(t)
	report := map[string]interface{}{
		"Nodes": map[string]interface{}{
			"id": []interface{}{"US~001", "US~002~extra"},
		},
	}
	schema := map[string]interface{}{
		"stage": map[string]interface{}{"type": "String", "label": "Stage"},
		"keying": map[string]interface{}{
			"fields":    []interface{}{"country", "uid"},
			"delimiter": "~",
		},
	}
	attrs := []map[string]interface{}{
		{"country": "US", "uid": "001", "stage": "Chronic"},
	}

	_, err := annotate.Annotate(report, attrs, schema)
	require.NoError(err)

	patientAttrs := report["Nodes"].(map[string]interface{})["patient_attributes"].([]interface{})
	first := patientAttrs[0].(map[string]interface{})
	require.Equal("Chronic", first["stage"])
}

func TestAnnotate_NodeWithTooFewPartsIsSkippedNotFatal(t *testing.T) {
	require := require.New(t)
	report := map[string]interface{}{
		"Nodes": map[string]interface{}{
			"id": []interface{}{"onlyone"},
		},
	}
	schema := map[string]interface{}{
		"keying": map[string]interface{}{
			"fields": []interface{}{"country", "uid"},
		},
	}

	res, err := annotate.Annotate(report, nil, schema)
	require.NoError(err)
	require.Equal([]string{"onlyone"}, res.SkippedNodes)
}

func TestAnnotate_MissingNodesIsFatal(t *testing.T) {
	require := require.New(t)
	report := map[string]interface{}{}
	_, err := annotate.Annotate(report, nil, baseSchema())
	require.ErrorIs(err, annotate.ErrMissingNodes)
}

func TestAnnotate_MissingNodeIDsIsFatal(t *testing.T) {
	require := require.New(t)
	report := map[string]interface{}{
		"Nodes": map[string]interface{}{},
	}
	_, err := annotate.Annotate(report, nil, baseSchema())
	require.ErrorIs(err, annotate.ErrMissingNodeIDs)
}

func TestAnnotate_OperatesUnderTraceResultsWrapper(t *testing.T) {
	require := require.New(t)
	report := map[string]interface{}{
		"trace_results": baseReport(),
	}
	attrs := []map[string]interface{}{
		{"ehars_uid": "A", "stage": "Acute"},
	}
	_, err := annotate.Annotate(report, attrs, baseSchema())
	require.NoError(err)

	wrapped := report["trace_results"].(map[string]interface{})
	nodes := wrapped["Nodes"].(map[string]interface{})
	patientAttrs := nodes["patient_attributes"].([]interface{})
	a := patientAttrs[0].(map[string]interface{})
	require.Equal("Acute", a["stage"])
}

func TestNormalizeAttributes_ArrayAndObject(t *testing.T) {
	require := require.New(t)

	arr, err := annotate.NormalizeAttributes(json.RawMessage(`[{"a":1}]`))
	require.NoError(err)
	require.Len(arr, 1)

	single, err := annotate.NormalizeAttributes(json.RawMessage(`{"a":1}`))
	require.NoError(err)
	require.Len(single, 1)

	_, err = annotate.NormalizeAttributes(json.RawMessage(`"not an object"`))
	require.Error(err)
}
