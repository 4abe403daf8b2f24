package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// LogsDirName holds one actual_<date>.jsonl file per day.
const LogsDirName = "logs"

const (
	logPrefix = "actual_"
	logSuffix = ".jsonl"
)

// JSONLWorkLog appends work-log entries as JSON lines, one file per date.
type JSONLWorkLog struct {
	dir string
}

// NewJSONLWorkLog creates a work log under basePath/logs.
func NewJSONLWorkLog(basePath string) *JSONLWorkLog {
	return &JSONLWorkLog{dir: filepath.Join(basePath, LogsDirName)}
}

func (l *JSONLWorkLog) logPath(date string) string {
	return filepath.Join(l.dir, logPrefix+date+logSuffix)
}

// Append writes entry to the file of its date.
func (l *JSONLWorkLog) Append(entry models.WorkLogEntry) error {
	if entry.Date == "" {
		return fmt.Errorf("appending work log: entry date must not be empty")
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("appending work log: %w", err)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("appending work log: marshaling entry: %w", err)
	}
	f, err := os.OpenFile(l.logPath(entry.Date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("appending work log: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending work log: %w", err)
	}
	return nil
}

// Read returns the entries whose date matches filter, oldest file first and
// in append order within a file.
func (l *JSONLWorkLog) Read(filter models.WorkLogFilter) ([]models.WorkLogEntry, error) {
	dates, err := l.dates()
	if err != nil {
		return nil, err
	}
	var out []models.WorkLogEntry
	for _, date := range dates {
		if (filter.Since != "" && date < filter.Since) || (filter.Until != "" && date > filter.Until) {
			continue
		}
		entries, err := l.readFile(date)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if filter.Matches(e) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// Close is a no-op; every Append opens and closes its file.
func (l *JSONLWorkLog) Close() error {
	return nil
}

func (l *JSONLWorkLog) dates() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading work log: %w", err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, logPrefix), logSuffix))
	}
	sort.Strings(dates)
	return dates, nil
}

func (l *JSONLWorkLog) readFile(date string) ([]models.WorkLogEntry, error) {
	f, err := os.Open(l.logPath(date))
	if err != nil {
		return nil, fmt.Errorf("reading work log %s: %w", date, err)
	}
	defer f.Close()

	var out []models.WorkLogEntry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var e models.WorkLogEntry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, fmt.Errorf("reading work log %s line %d: %w", date, line, err)
		}
		if e.Date == "" {
			e.Date = date
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading work log %s: %w", date, err)
	}
	return out, nil
}
