package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schemafuzz/schemafuzz/internal/replay"
	"github.com/schemafuzz/schemafuzz/internal/runner"
	"github.com/schemafuzz/schemafuzz/internal/translator/mysql"
)

func sampleRun(t *testing.T) (*runner.Result, *replay.Manifest) {
	t.Helper()
	opts := runner.Options{
		Seed:       5,
		Scenarios:  3,
		Statements: 8,
		Columns:    4,
		Workers:    2,
		Weights:    runner.Weights{AddColumn: 1, DropColumn: 2, RenameTable: 1},
		Translator: mysql.New(nil),
	}
	res, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return res, replay.NewManifest("run-42", res, opts, nil, "")
}

func TestJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	res, m := sampleRun(t)
	report := GenerateReport("run-42", res, m, nil)

	if err := WriteJSON(report, path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	loaded, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if loaded.Version != "1" {
		t.Errorf("expected version 1, got %s", loaded.Version)
	}
	if loaded.RunID != "run-42" {
		t.Errorf("expected run-42, got %s", loaded.RunID)
	}
	if loaded.Dialect != "mysql" {
		t.Errorf("expected mysql, got %s", loaded.Dialect)
	}
	if loaded.Summary.Scenarios != 3 || len(loaded.Scenarios) != 3 {
		t.Errorf("expected 3 scenarios, got %d/%d", loaded.Summary.Scenarios, len(loaded.Scenarios))
	}
	if loaded.Fingerprint != m.Fingerprint {
		t.Errorf("expected fingerprint %s, got %s", m.Fingerprint, loaded.Fingerprint)
	}
}

func TestSummaryTotals(t *testing.T) {
	res, m := sampleRun(t)
	report := GenerateReport("run-42", res, m, nil)

	var statements, exhausted int
	for _, s := range report.Scenarios {
		statements += s.Statements
		exhausted += s.Exhausted
		if s.Fingerprint == "" {
			t.Errorf("scenario %d has no fingerprint", s.Index)
		}
	}
	if report.Summary.Statements != statements || report.Summary.Exhausted != exhausted {
		t.Errorf("summary %+v does not match scenario totals %d/%d", report.Summary, statements, exhausted)
	}

	ops := 0
	for _, n := range report.Summary.Operations {
		ops += n
	}
	// Every scenario also has its CREATE TABLE.
	if ops+len(report.Scenarios) != statements {
		t.Errorf("operation counts %v do not add up to %d statements", report.Summary.Operations, statements)
	}
}

func TestFormatText(t *testing.T) {
	res, m := sampleRun(t)
	report := GenerateReport("run-42", res, m, []replay.Mismatch{{Index: 1, Want: "aa", Got: "bb"}})

	text := FormatText(report)
	if !strings.Contains(text, "schemafuzz Run Report") {
		t.Error("should contain title")
	}
	if !strings.Contains(text, "run-42") {
		t.Error("should contain run id")
	}
	if !strings.Contains(text, res.Scenarios[0].Create.TableName) {
		t.Error("should list the scenario tables")
	}
	if !strings.Contains(text, "Replay mismatches: 1") {
		t.Error("should report mismatches")
	}
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")

	res, m := sampleRun(t)
	if err := WriteText(GenerateReport("run-42", res, m, nil), path); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
}
