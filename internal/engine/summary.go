package engine

import (
	"atomikgen/internal/namespace"
	"atomikgen/internal/schema"
)

// Summary describes a loaded schema for display.
type Summary struct {
	Source      string                      `json:"source"`
	Namespace   string                      `json:"namespace"`
	Version     string                      `json:"version"`
	Description string                      `json:"description,omitempty"`
	DataWidth   int                         `json:"data_width"`
	Layout      schema.Layout               `json:"layout"`
	Fields      []FieldSummary              `json:"delta_fields"`
	Operations  []string                    `json:"operations"`
	History     int                         `json:"history_depth,omitempty"`
	HasHardware bool                        `json:"has_hardware"`
	Targets     map[string]namespace.Target `json:"targets"`
}

// FieldSummary is one delta field of a Summary.
type FieldSummary struct {
	Name   string           `json:"name"`
	Type   schema.FieldType `json:"type"`
	Width  int              `json:"width"`
	Offset int              `json:"offset"`
}

// Summary returns summary information about the loaded schema.
func (e *Engine) Summary() (*Summary, error) {
	ns, err := e.ExtractMetadata()
	if err != nil {
		return nil, err
	}

	s := e.schema

	sum := &Summary{
		Source:      e.source,
		Namespace:   s.Path().String(),
		Version:     s.Catalogue.Version,
		Description: s.Catalogue.Description,
		DataWidth:   s.DataWidth,
		Layout:      s.Layout,
		Operations:  []string{"accumulate"},
		History:     s.HistoryCapacity(),
		HasHardware: s.Hints != (schema.Hints{}),
		Targets:     ns.Targets,
	}

	if s.Operations.Reconstruct {
		sum.Operations = append(sum.Operations, "reconstruct")
	}

	if s.Operations.Rollback {
		sum.Operations = append(sum.Operations, "rollback")
	}

	for _, f := range s.Fields {
		sum.Fields = append(sum.Fields, FieldSummary{Name: f.Name, Type: f.Type, Width: f.Width, Offset: f.Offset})
	}

	return sum, nil
}
