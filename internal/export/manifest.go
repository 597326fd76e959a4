package export

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest records how a persisted order was produced. It is written next
// to the CSV so an order can be audited or reproduced without consulting
// the database.
type Manifest struct {
	Participant string    `yaml:"participant"`
	Phase       string    `yaml:"phase"`
	GeneratedAt time.Time `yaml:"generated_at"`
	SeedMode    string    `yaml:"seed_mode"`
	Seed        int64     `yaml:"seed"`
	Items       int       `yaml:"items"`
	Constraints []string  `yaml:"constraints"`
	Relaxed     bool      `yaml:"relaxed"`
	Warnings    []string  `yaml:"warnings,omitempty"`
}

// ManifestPath returns the manifest path for a sequence CSV path.
func ManifestPath(csvPath string) string {
	return csvPath + ".manifest.yaml"
}

// WriteManifest writes the manifest as YAML next to its sequence file.
func WriteManifest(csvPath string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := ManifestPath(csvPath)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(csvPath string) (Manifest, error) {
	path := ManifestPath(csvPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}
