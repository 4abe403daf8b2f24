package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// TasksFileName is the task collection inside the data directory.
const TasksFileName = "tasks.yaml"

// TaskFile is the on-disk layout of tasks.yaml.
type TaskFile struct {
	Version string        `yaml:"version"`
	NextID  int           `yaml:"next_id"`
	Tasks   []models.Task `yaml:"tasks"`
}

// FileTaskStore keeps every task in one YAML file.
type FileTaskStore struct {
	basePath string
}

// NewTaskStore creates a task store backed by tasks.yaml in basePath.
func NewTaskStore(basePath string) *FileTaskStore {
	return &FileTaskStore{basePath: basePath}
}

func (s *FileTaskStore) filePath() string {
	return filepath.Join(s.basePath, TasksFileName)
}

// LoadTasks reads the whole collection. A missing file is an empty
// collection. Invalid records and duplicate ids are read failures.
func (s *FileTaskStore) LoadTasks() (*models.TaskList, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &models.TaskList{NextID: 1}, nil
		}
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	var tf TaskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("loading tasks: parsing YAML: %w", err)
	}

	seen := make(map[int]bool, len(tf.Tasks))
	maxID := 0
	for i := range tf.Tasks {
		t := &tf.Tasks[i]
		if t.ID < 1 {
			return nil, fmt.Errorf("loading tasks: task %q has invalid id %d", t.Title, t.ID)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("loading tasks: duplicate task id %d", t.ID)
		}
		seen[t.ID] = true
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("loading tasks: task %d: %w", t.ID, err)
		}
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	next := tf.NextID
	if next <= maxID {
		next = maxID + 1
	}
	return &models.TaskList{NextID: next, Tasks: tf.Tasks}, nil
}

// SaveTasks replaces tasks.yaml with list.
func (s *FileTaskStore) SaveTasks(list *models.TaskList) error {
	tf := TaskFile{
		Version: "1.0",
		NextID:  list.NextID,
		Tasks:   list.Tasks,
	}
	if tf.Tasks == nil {
		tf.Tasks = []models.Task{}
	}
	if err := saveYAML(s.filePath(), tf); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}
