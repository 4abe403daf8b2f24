package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// PlansDirName holds one plan_<date>.yaml per day.
const PlansDirName = "plans"

const (
	planPrefix = "plan_"
	planSuffix = ".yaml"
)

// FilePlanStore keeps one YAML file per plan date.
type FilePlanStore struct {
	dir string
}

// NewPlanStore creates a plan store under basePath/plans.
func NewPlanStore(basePath string) *FilePlanStore {
	return &FilePlanStore{dir: filepath.Join(basePath, PlansDirName)}
}

func (s *FilePlanStore) planPath(date string) string {
	return filepath.Join(s.dir, planPrefix+date+planSuffix)
}

// LoadPlan reads the plan for date. A missing plan wraps models.ErrNotFound.
func (s *FilePlanStore) LoadPlan(date string) (*models.Plan, error) {
	data, err := os.ReadFile(s.planPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("loading plan %s: %w", date, models.ErrNotFound)
		}
		return nil, fmt.Errorf("loading plan %s: %w", date, err)
	}
	var plan models.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("loading plan %s: parsing YAML: %w", date, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", date, err)
	}
	return &plan, nil
}

// SavePlan replaces the plan file for plan.Date.
func (s *FilePlanStore) SavePlan(plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	if err := saveYAML(s.planPath(plan.Date), plan); err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.Date, err)
	}
	return nil
}

// ListPlanDates returns the dates that have a plan, oldest first.
func (s *FilePlanStore) ListPlanDates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, planPrefix) || !strings.HasSuffix(name, planSuffix) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, planPrefix), planSuffix))
	}
	sort.Strings(dates)
	return dates, nil
}
