// Package replay records enough about a run to regenerate it later and
// checks that regeneration produces byte-identical SQL.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/schemafuzz/schemafuzz/internal/runner"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

const (
	CurrentVersion = 1
	FileName       = "replay.json"
)

// Manifest describes a finished run.
type Manifest struct {
	Version       int               `json:"version"`
	RunID         string            `json:"run_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Dialect       string            `json:"dialect"`
	TypeOverrides map[string]string `json:"type_overrides,omitempty"`
	Options       RunOptions        `json:"options"`
	// Dictionary is the word file used for names, empty for the built-in
	// words. WordsHash pins its content.
	Dictionary  string     `json:"dictionary,omitempty"`
	WordsHash   string     `json:"words_hash,omitempty"`
	Scenarios   []Scenario `json:"scenarios"`
	Fingerprint string     `json:"fingerprint"`
}

// RunOptions are the runner options that influence generated output.
type RunOptions struct {
	Seed       uint64              `json:"seed"`
	Scenarios  int                 `json:"scenarios"`
	Statements int                 `json:"statements"`
	Columns    int                 `json:"columns"`
	Location   bool                `json:"location"`
	Weights    runner.Weights      `json:"weights"`
	Protected  []schema.OptionKind `json:"protected,omitempty"`
}

// Scenario fingerprints the SQL of one scenario.
type Scenario struct {
	Index       int    `json:"index"`
	Table       string `json:"table"`
	Statements  int    `json:"statements"`
	Exhausted   int    `json:"exhausted"`
	Fingerprint string `json:"fingerprint"`
}

// Mismatch is a scenario whose regenerated SQL differs from the record.
type Mismatch struct {
	Index int    `json:"index"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("scenario %d: fingerprint %s, regenerated %s", m.Index, m.Want, m.Got)
}

// Fingerprint hashes statements in order, each terminated by a newline.
func Fingerprint(statements []string) string {
	h := xxh3.New()
	for _, s := range statements {
		_, _ = h.WriteString(s)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// WordsHash hashes a dictionary. Nil hashes to the empty string.
func WordsHash(words []string) string {
	if words == nil {
		return ""
	}
	return Fingerprint(words)
}

// NewManifest records res, produced by a run with opts.
func NewManifest(runID string, res *runner.Result, opts runner.Options, overrides map[string]string, dictionary string) *Manifest {
	m := &Manifest{
		Version:       CurrentVersion,
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		Dialect:       res.Dialect,
		TypeOverrides: overrides,
		Options: RunOptions{
			Seed:       opts.Seed,
			Scenarios:  opts.Scenarios,
			Statements: opts.Statements,
			Columns:    opts.Columns,
			Location:   opts.Location,
			Weights:    opts.Weights,
			Protected:  opts.Protected,
		},
		Dictionary: dictionary,
		WordsHash:  WordsHash(opts.Words),
		Scenarios:  fingerprints(res),
	}
	m.Fingerprint = total(m.Scenarios)
	return m
}

func fingerprints(res *runner.Result) []Scenario {
	out := make([]Scenario, len(res.Scenarios))
	for i, sc := range res.Scenarios {
		stmts := sc.Statements()
		out[i] = Scenario{
			Index:       sc.Index,
			Table:       sc.Create.TableName,
			Statements:  len(stmts),
			Exhausted:   sc.Exhausted(),
			Fingerprint: Fingerprint(stmts),
		}
	}
	return out
}

func total(scenarios []Scenario) string {
	prints := make([]string, len(scenarios))
	for i, s := range scenarios {
		prints[i] = s.Fingerprint
	}
	return Fingerprint(prints)
}

// RunnerOptions rebuilds the runner options of the recorded run.
func (m *Manifest) RunnerOptions(tr translator.Translator, words []string, workers int, logger *slog.Logger) runner.Options {
	return runner.Options{
		Seed:       m.Options.Seed,
		Scenarios:  m.Options.Scenarios,
		Statements: m.Options.Statements,
		Columns:    m.Options.Columns,
		Workers:    workers,
		Location:   m.Options.Location,
		Weights:    m.Options.Weights,
		Words:      words,
		Protected:  m.Options.Protected,
		Translator: tr,
		Logger:     logger,
	}
}

// Compare returns the scenarios of res whose fingerprints differ from the
// record. A scenario count change is reported against the missing indexes.
func (m *Manifest) Compare(res *runner.Result) []Mismatch {
	got := fingerprints(res)
	var out []Mismatch
	n := max(len(got), len(m.Scenarios))
	for i := 0; i < n; i++ {
		var want, have string
		if i < len(m.Scenarios) {
			want = m.Scenarios[i].Fingerprint
		}
		if i < len(got) {
			have = got[i].Fingerprint
		}
		if want != have {
			out = append(out, Mismatch{Index: i, Want: want, Got: have})
		}
	}
	return out
}

// Verify regenerates the recorded run and compares it with the record.
// words must be the dictionary the run used; nil for the built-in words.
func Verify(ctx context.Context, m *Manifest, words []string, workers int, logger *slog.Logger) (*runner.Result, []Mismatch, error) {
	if h := WordsHash(words); h != m.WordsHash {
		return nil, nil, fmt.Errorf("dictionary changed since the run (hash %s, recorded %s)", h, m.WordsHash)
	}
	tr, err := translator.ForDialect(m.Dialect, m.TypeOverrides)
	if err != nil {
		return nil, nil, fmt.Errorf("building translator: %w", err)
	}
	res, err := runner.Run(ctx, m.RunnerOptions(tr, words, workers, logger))
	if err != nil {
		return nil, nil, fmt.Errorf("regenerating run: %w", err)
	}
	return res, m.Compare(res), nil
}

// Load reads a manifest from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay manifest: %w", err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing replay manifest: %w", err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported replay manifest version %d (expected %d)", m.Version, CurrentVersion)
	}
	return m, nil
}

// Save writes the manifest to disk.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating replay directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling replay manifest: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
