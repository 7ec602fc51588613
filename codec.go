package treediff

import (
	"encoding/json"

	"github.com/goccy/go-yaml"
)

// MarshalChanges encodes a change list to its JSON wire form, an array of
// {kind, path?, lhs?, rhs?, index?, item?, "$dates"?} records
func MarshalChanges(cs Changes) ([]byte, error) {
	return json.Marshal(cs)
}

// UnmarshalChanges decodes the JSON wire form produced by MarshalChanges.
// Timestamp leaves inside record values come back as strings; the patch
// engine revives them through each record's "$dates" markers on application
func UnmarshalChanges(data []byte) (Changes, error) {
	var cs Changes
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// MarshalChangesYAML encodes a change list as YAML with the same field
// shape as the JSON form
func MarshalChangesYAML(cs Changes) ([]byte, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}

// UnmarshalChangesYAML decodes a change list written by MarshalChangesYAML
func UnmarshalChangesYAML(data []byte) (Changes, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return UnmarshalChanges(jsonData)
}
