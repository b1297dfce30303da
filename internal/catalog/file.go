package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Cartons []Carton `yaml:"cartons"`
}

// LoadFile reads a YAML catalog of the form
//
//	cartons:
//	  - name: medium
//	    length: 400
//	    ...
//
// and validates it.
func LoadFile(path string) ([]Carton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	if err := Validate(file.Cartons); err != nil {
		return nil, err
	}
	return cloneAndSort(file.Cartons), nil
}
