package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/workers"
)

var errNoFiles = errors.New("no input files")

// categoryAliases lets the category flag take a short English key as well as
// the stored label.
var categoryAliases = map[string]documents.Category{
	"contract":       documents.CategoryContract,
	"agency":         documents.CategoryAgency,
	"sae":            documents.CategoryAgency,
	"administrative": documents.CategoryAdministrative,
	"site":           documents.CategorySite,
	"subcontractor":  documents.CategorySubcontractor,
	"workers":        documents.CategoryWorkers,
	"training":       documents.CategoryTraining,
	"medical":        documents.CategoryMedical,
}

// parseCategory accepts an empty value, a category label or an alias.
func parseCategory(raw string) (documents.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if c, ok := categoryAliases[strings.ToLower(raw)]; ok {
		return c, nil
	}
	if c, ok := documents.ParseCategory(raw); ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// parseDay reads a YYYY-MM-DD flag in the local zone. Empty means today.
func parseDay(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(documents.DateLayout, strings.TrimSpace(raw), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return day, nil
}

func readUploads(paths []string) ([]documents.Upload, error) {
	if len(paths) == 0 {
		return nil, errNoFiles
	}
	uploads := make([]documents.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		uploads = append(uploads, documents.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}

// uniquePath returns dir/name, adding a numeric suffix while the path is taken.
func uniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; fileExists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// roster is the worker list file read by the reminders command.
type roster struct {
	Workers []workers.Worker `yaml:"workers"`
}

func loadRoster(path string) ([]workers.Worker, error) {
	var r roster
	if err := readYAML(path, &r); err != nil {
		return nil, err
	}
	return r.Workers, nil
}

// docEntry describes one already filed document for offline checks.
type docEntry struct {
	Name       string `yaml:"name"`
	Category   string `yaml:"category"`
	Summary    string `yaml:"summary"`
	WorkerName string `yaml:"workerName"`
	ExpiryDate string `yaml:"expiryDate"`
}

type docList struct {
	Requirements []string   `yaml:"requirements"`
	Checked      []string   `yaml:"checked"`
	Documents    []docEntry `yaml:"documents"`
}

// records converts entries to file records. A missing category means
// subcontractor documents, which is what the checklist reads.
func (l docList) records() ([]documents.Record, error) {
	out := make([]documents.Record, 0, len(l.Documents))
	for i, e := range l.Documents {
		category := documents.CategorySubcontractor
		if e.Category != "" {
			c, err := parseCategory(e.Category)
			if err != nil {
				return nil, fmt.Errorf("documents[%d]: %w", i, err)
			}
			category = c
		}
		out = append(out, documents.FileDocument{Metadata: documents.Metadata{
			ID:         fmt.Sprintf("doc-%d", i+1),
			Name:       e.Name,
			Category:   category,
			Summary:    e.Summary,
			WorkerName: e.WorkerName,
			ExpiryDate: e.ExpiryDate,
			Valid:      true,
		}})
	}
	return out, nil
}

func loadDocList(path string) (docList, error) {
	var l docList
	if err := readYAML(path, &l); err != nil {
		return docList{}, err
	}
	return l, nil
}

func readYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
