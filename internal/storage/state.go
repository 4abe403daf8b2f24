package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// StateFileName is the weekly transition state inside the data directory.
const StateFileName = "state.yaml"

// FileStateStore keeps the weekly state in one YAML file.
type FileStateStore struct {
	basePath string
}

// NewStateStore creates a state store backed by state.yaml in basePath.
func NewStateStore(basePath string) *FileStateStore {
	return &FileStateStore{basePath: basePath}
}

func (s *FileStateStore) filePath() string {
	return filepath.Join(s.basePath, StateFileName)
}

// LoadState reads the weekly state. A missing file wraps models.ErrNotFound.
// Buckets absent from the file read as zero.
func (s *FileStateStore) LoadState() (*models.WeeklyState, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("loading state: %s: %w", StateFileName, models.ErrNotFound)
		}
		return nil, fmt.Errorf("loading state: %w", err)
	}
	var state models.WeeklyState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("loading state: parsing YAML: %w", err)
	}
	return &state, nil
}

// SaveState replaces state.yaml.
func (s *FileStateStore) SaveState(state *models.WeeklyState) error {
	if err := saveYAML(s.filePath(), state); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}
