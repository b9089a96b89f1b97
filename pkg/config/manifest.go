package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Capture records one image of a batch
type Capture struct {
	ID         string    `toml:"id"`
	Morphology string    `toml:"morphology"`
	File       string    `toml:"file"`
	Transform  Transform `toml:"transform"`
}

// Manifest lists the images a batch run produced and the job they share
type Manifest struct {
	Job      Job       `toml:"job"`
	Captures []Capture `toml:"captures"`
}

// Encode writes the manifest as TOML
func (m Manifest) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m)
}

// WriteManifest writes the manifest to path
func WriteManifest(path string, m Manifest) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if err := m.Encode(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return file.Close()
}

// ReadManifest reads a manifest written by WriteManifest
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return m, nil
}
