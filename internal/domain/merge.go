package domain

import (
	"dario.cat/mergo"
)

// MergeVariables overlays updates onto current without mutating either map.
// Nested maps merge recursively, slices append, and scalar conflicts take
// the updated value.
func MergeVariables(current, updates map[string]interface{}) (map[string]interface{}, error) {
	merged := make(map[string]interface{}, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	if len(updates) == 0 {
		return merged, nil
	}
	if err := mergo.Merge(&merged, updates,
		mergo.WithOverride,
		mergo.WithAppendSlice); err != nil {
		return nil, err
	}
	return merged, nil
}

// SnapshotVariables returns a detached copy of the variables map, safe to
// hand out after the run's context is discarded.
func SnapshotVariables(variables map[string]interface{}) map[string]interface{} {
	snapshot, err := MergeVariables(nil, variables)
	if err != nil {
		// mergo only fails on non-map inputs, which cannot happen here.
		out := make(map[string]interface{}, len(variables))
		for k, v := range variables {
			out[k] = v
		}
		return out
	}
	return snapshot
}

// ApplyDefaults fills zero-valued settings from the engine defaults.
func (s WorkflowSettings) ApplyDefaults(defaults WorkflowSettings) WorkflowSettings {
	merged := s
	if err := mergo.Merge(&merged, defaults); err != nil {
		return s
	}
	return merged
}
