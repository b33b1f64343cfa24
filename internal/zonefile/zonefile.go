// Package zonefile reads and writes zone definitions as YAML.
//
//	zones:
//	  - name: Home
//	    description: flat
//	    latitude: 50.088
//	    longitude: 14.4208
//	    radius: 100
package zonefile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/dwell-backend-go/internal/models"
)

type document struct {
	Zones []models.Zone `yaml:"zones"`
}

// Decode reads zones from r
func Decode(r io.Reader) ([]models.Zone, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode zones: %w", err)
	}
	return doc.Zones, nil
}

// Encode writes zones to w
func Encode(w io.Writer, zones []models.Zone) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Zones: zones}); err != nil {
		return fmt.Errorf("failed to encode zones: %w", err)
	}
	return enc.Close()
}

// ReadFile decodes zones from the file at path
func ReadFile(path string) ([]models.Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
