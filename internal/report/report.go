package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/schemafuzz/schemafuzz/internal/replay"
	"github.com/schemafuzz/schemafuzz/internal/runner"
)

const FileName = "report.json"

// RunReport summarizes a fuzz run.
type RunReport struct {
	Version     string            `json:"version"`
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Dialect     string            `json:"dialect"`
	Seed        uint64            `json:"seed"`
	Summary     Summary           `json:"summary"`
	Scenarios   []ScenarioSummary `json:"scenarios"`
	Fingerprint string            `json:"fingerprint"`
	Mismatches  []replay.Mismatch `json:"mismatches,omitempty"`
}

// Summary holds run-wide totals.
type Summary struct {
	Scenarios   int            `json:"scenarios"`
	Statements  int            `json:"statements"`
	Exhausted   int            `json:"exhausted"`
	Operations  map[string]int `json:"operations"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
}

// ScenarioSummary describes one scenario.
type ScenarioSummary struct {
	Index          int    `json:"index"`
	Table          string `json:"table"`
	FinalTable     string `json:"final_table"`
	InitialColumns int    `json:"initial_columns"`
	FinalColumns   int    `json:"final_columns"`
	Statements     int    `json:"statements"`
	Exhausted      int    `json:"exhausted"`
	DurationMS     int64  `json:"duration_ms"`
	Fingerprint    string `json:"fingerprint"`
}

// GenerateReport builds the report of res. m supplies the fingerprints and
// may come from the same run or from a replay.
func GenerateReport(runID string, res *runner.Result, m *replay.Manifest, mismatches []replay.Mismatch) *RunReport {
	r := &RunReport{
		Version:     "1",
		RunID:       runID,
		GeneratedAt: time.Now(),
		Dialect:     res.Dialect,
		Seed:        res.Seed,
		Fingerprint: m.Fingerprint,
		Mismatches:  mismatches,
		Summary: Summary{
			Scenarios:   len(res.Scenarios),
			Operations:  make(map[string]int),
			SkipReasons: make(map[string]int),
		},
	}

	prints := make(map[int]string, len(m.Scenarios))
	for _, s := range m.Scenarios {
		prints[s.Index] = s.Fingerprint
	}

	for _, sc := range res.Scenarios {
		stmts := sc.Statements()
		r.Summary.Statements += len(stmts)
		r.Summary.Exhausted += sc.Exhausted()
		for _, st := range sc.Steps {
			if st.Skipped != "" {
				r.Summary.SkipReasons[st.Skipped]++
				continue
			}
			r.Summary.Operations[st.Operation]++
		}

		ss := ScenarioSummary{
			Index:          sc.Index,
			Table:          sc.Create.TableName,
			InitialColumns: len(sc.Create.Columns),
			Statements:     len(stmts),
			Exhausted:      sc.Exhausted(),
			DurationMS:     sc.Duration.Milliseconds(),
			Fingerprint:    prints[sc.Index],
		}
		if sc.Final != nil {
			ss.FinalTable = sc.Final.Name()
			ss.FinalColumns = sc.Final.NumColumns()
		}
		r.Scenarios = append(r.Scenarios, ss)
	}
	return r
}

// WriteJSON writes the report as JSON.
func WriteJSON(report *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON reads a report from a JSON file.
func ReadJSON(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	r := &RunReport{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return r, nil
}

// WriteText writes the report as human-readable text.
func WriteText(report *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	return os.WriteFile(path, []byte(FormatText(report)), 0o644)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// FormatText renders the report as human-readable text.
func FormatText(report *RunReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("=== schemafuzz Run Report ==="))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Run:       %s\n", report.RunID))
	b.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Dialect:   %s\n", report.Dialect))
	b.WriteString(fmt.Sprintf("Seed:      %d\n\n", report.Seed))

	b.WriteString(sectionStyle.Render("Summary:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Scenarios:  %d\n", report.Summary.Scenarios))
	b.WriteString(fmt.Sprintf("  Statements: %d\n", report.Summary.Statements))
	b.WriteString(fmt.Sprintf("  Exhausted:  %d\n", report.Summary.Exhausted))
	for _, op := range sortedKeys(report.Summary.Operations) {
		b.WriteString(fmt.Sprintf("  %s: %d\n", op, report.Summary.Operations[op]))
	}
	for _, reason := range sortedKeys(report.Summary.SkipReasons) {
		b.WriteString(fmt.Sprintf("  skipped (%s): %d\n", reason, report.Summary.SkipReasons[reason]))
	}
	b.WriteString(fmt.Sprintf("  Fingerprint: %s\n\n", report.Fingerprint))

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Table", "Final", "Columns", "Statements", "Exhausted", "Fingerprint"})
	for _, s := range report.Scenarios {
		t.AppendRow(table.Row{
			s.Index,
			s.Table,
			s.FinalTable,
			fmt.Sprintf("%d -> %d", s.InitialColumns, s.FinalColumns),
			s.Statements,
			s.Exhausted,
			s.Fingerprint,
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(report.Mismatches) > 0 {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(fmt.Sprintf("Replay mismatches: %d", len(report.Mismatches))))
		b.WriteString("\n")
		for _, m := range report.Mismatches {
			b.WriteString(fmt.Sprintf("  %s\n", m))
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
