package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/scout-helper/tracker/pkg/core"
)

// readSightings reads a JSON array of sightings from path, or stdin for "-".
func readSightings(path string, stdin io.Reader) ([]core.Sighting, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sightings: %w", err)
		}
		defer f.Close()
		r = f
	}
	var sightings []core.Sighting
	if err := json.NewDecoder(r).Decode(&sightings); err != nil {
		return nil, fmt.Errorf("failed to parse sightings: %w", err)
	}
	return sightings, nil
}

// scanSightings calls fn for every sighting in a stream of JSON lines.
// Blank lines are skipped; a malformed line stops the scan.
func scanSightings(r io.Reader, fn func(core.Sighting) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var s core.Sighting
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return sc.Err()
}
