package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectFile is the per-directory settings override.
const ProjectFile = ".linegrid.json"

// FindProjectFiles returns the project settings files from dir upward,
// closest first. A file containing "root": true ends the search.
func FindProjectFiles(dir string) []string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	var found []string
	for {
		path := filepath.Join(abs, ProjectFile)
		if data, err := os.ReadFile(path); err == nil {
			found = append(found, path)
			var marker struct {
				Root bool `json:"root"`
			}
			if json.Unmarshal(data, &marker) == nil && marker.Root {
				break
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			break
		}
		abs = parent
	}
	return found
}

// applyProjectFiles overlays project files onto c, farthest first so the
// closest file wins. Keys a file leaves out keep their current value.
func (c *Config) applyProjectFiles(dir string) error {
	files := FindProjectFiles(dir)
	for i := len(files) - 1; i >= 0; i-- {
		data, err := os.ReadFile(files[i])
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("%s: %w", files[i], err)
		}
	}
	return nil
}
