package roadmap

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed seed/backend.yaml
var backendSeed []byte

// DefaultSeed returns a fresh copy of the built-in backend engineering roadmap.
func DefaultSeed() *Roadmap {
	r, err := ReadSeed(bytes.NewReader(backendSeed))
	if err != nil {
		panic(fmt.Sprintf("roadmap: embedded seed is invalid: %v", err))
	}
	return r
}

// ReadSeed decodes a seed file and validates it.
func ReadSeed(r io.Reader) (*Roadmap, error) {
	rm, err := DecodeRoadmap(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// DecodeRoadmap decodes a roadmap from YAML, or JSON which YAML accepts.
// Missing statuses default to locked. The graph is not validated.
func DecodeRoadmap(r io.Reader) (*Roadmap, error) {
	var rm Roadmap
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rm); err != nil {
		return nil, fmt.Errorf("roadmap: decode seed: %w", err)
	}
	rm.FillDefaults()
	return &rm, nil
}
