package models

import (
	"encoding/json"
	"strings"
)

// Field is one column/value pair of a reference row.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record is a reference row with its fields in source column order.
// A nil or empty Record means "no enrichment".
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Empty reports whether the record carries no fields.
func (r Record) Empty() bool {
	return len(r) == 0
}

// Clone returns a copy that shares nothing with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// String renders the record as "k=v" pairs, used in log lines.
func (r Record) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.Key + "=" + f.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the record as an array of fields so column order survives.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Field(r))
}

// Cluster maps a document category to its cluster identifier.
type Cluster struct {
	Category  string `json:"category"`
	ClusterID string `json:"cluster_id"`
}
