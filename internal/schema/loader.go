package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and decodes a schema document. JSON documents are accepted
// because JSON is a subset of YAML 1.2.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc.Source = path

	return doc, nil
}

// Parse decodes a schema document. Syntax errors are returned; type
// mismatches are kept on the document and surface as structural
// diagnostics from Validate.
func Parse(data []byte) (*Document, error) {
	var doc Document

	if len(bytes.TrimSpace(data)) == 0 {
		return &doc, nil
	}

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}

		doc.decodeErrors = te.Errors
	}

	return &doc, nil
}
