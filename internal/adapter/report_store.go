package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	m "github.com/mouse-blink/weave/internal/model"
)

const (
	reportExt     = ".yaml"
	reportIndex   = "index" + reportExt
	reportDirPerm = 0o750
	reportPerm    = 0o600
)

// ErrNoReports is returned when a reports directory holds no weave report.
var ErrNoReports = errors.New("no weave reports found")

// ReportStore persists and retrieves weave reports.
type ReportStore interface {
	// SaveReport writes <run-id>.yaml and refreshes the index.
	SaveReport(dir m.Path, report m.WeaveReport) error
	// LoadLatest returns the most recently created report.
	LoadLatest(dir m.Path) (m.WeaveReport, error)
	// LoadReport returns the report of one run.
	LoadReport(dir m.Path, runID string) (m.WeaveReport, error)
	// CleanReports deletes all but the keep most recent reports.
	CleanReports(dir m.Path, keep int) error
}

// LocalReportStore stores reports as YAML files in a directory.
type LocalReportStore struct{}

// NewReportStore constructs a ReportStore implementation.
func NewReportStore() ReportStore {
	return &LocalReportStore{}
}

type indexEntry struct {
	RunID   string    `yaml:"run_id"`
	Created time.Time `yaml:"created"`
	Applied int       `yaml:"applied"`
	Skipped int       `yaml:"skipped"`
}

type indexYAML struct {
	Latest string       `yaml:"latest"`
	Runs   []indexEntry `yaml:"runs"`
}

// SaveReport writes the report and regenerates the index.
func (rs *LocalReportStore) SaveReport(dir m.Path, report m.WeaveReport) error {
	if dir == "" {
		return errors.New("reports directory is empty")
	}

	if report.RunID == "" {
		return errors.New("report has no run id")
	}

	if err := os.MkdirAll(string(dir), reportDirPerm); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(rs.reportPath(dir, report.RunID), data, reportPerm); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return rs.writeIndex(dir)
}

// LoadLatest reads the index and returns its latest report.
func (rs *LocalReportStore) LoadLatest(dir m.Path) (m.WeaveReport, error) {
	idx, err := rs.readIndex(dir)
	if err != nil {
		return m.WeaveReport{}, err
	}

	if idx.Latest == "" {
		return m.WeaveReport{}, ErrNoReports
	}

	return rs.LoadReport(dir, idx.Latest)
}

// LoadReport decodes the report of runID.
func (rs *LocalReportStore) LoadReport(dir m.Path, runID string) (m.WeaveReport, error) {
	data, err := os.ReadFile(rs.reportPath(dir, runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m.WeaveReport{}, fmt.Errorf("report %s: %w", runID, ErrNoReports)
		}

		return m.WeaveReport{}, fmt.Errorf("read report: %w", err)
	}

	var report m.WeaveReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.WeaveReport{}, fmt.Errorf("unmarshal report %s: %w", runID, err)
	}

	return report, nil
}

// CleanReports keeps the newest keep reports. A missing directory is not an error.
func (rs *LocalReportStore) CleanReports(dir m.Path, keep int) error {
	if dir == "" {
		return errors.New("reports directory is empty")
	}

	reports, err := rs.scan(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	if keep < 0 {
		keep = 0
	}

	for i := keep; i < len(reports); i++ {
		if err := os.Remove(rs.reportPath(dir, reports[i].RunID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove report %s: %w", reports[i].RunID, err)
		}
	}

	if keep == 0 {
		if err := os.Remove(filepath.Join(string(dir), reportIndex)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove index: %w", err)
		}

		return nil
	}

	return rs.writeIndex(dir)
}

func (rs *LocalReportStore) reportPath(dir m.Path, runID string) string {
	return filepath.Join(string(dir), runID+reportExt)
}

// scan decodes every stored report, newest first.
func (rs *LocalReportStore) scan(dir m.Path) ([]m.WeaveReport, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, err
	}

	var reports []m.WeaveReport

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == reportIndex || !strings.HasSuffix(name, reportExt) {
			continue
		}

		report, err := rs.LoadReport(dir, strings.TrimSuffix(name, reportExt))
		if err != nil {
			return nil, err
		}

		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Created.After(reports[j].Created)
	})

	return reports, nil
}

func (rs *LocalReportStore) writeIndex(dir m.Path) error {
	reports, err := rs.scan(dir)
	if err != nil {
		return fmt.Errorf("scan reports: %w", err)
	}

	idx := indexYAML{Runs: make([]indexEntry, 0, len(reports))}
	for _, r := range reports {
		idx.Runs = append(idx.Runs, indexEntry{
			RunID:   r.RunID,
			Created: r.Created,
			Applied: r.Count(m.OutcomeApplied),
			Skipped: r.Count(m.OutcomeSkipped),
		})
	}

	if len(idx.Runs) > 0 {
		idx.Latest = idx.Runs[0].RunID
	}

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), reportIndex), data, reportPerm); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	return nil
}

func (rs *LocalReportStore) readIndex(dir m.Path) (indexYAML, error) {
	data, err := os.ReadFile(filepath.Join(string(dir), reportIndex))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return indexYAML{}, ErrNoReports
		}

		return indexYAML{}, fmt.Errorf("read index: %w", err)
	}

	var idx indexYAML
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return indexYAML{}, fmt.Errorf("unmarshal index: %w", err)
	}

	return idx, nil
}
