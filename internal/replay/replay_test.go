package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/schemafuzz/schemafuzz/internal/runner"
	"github.com/schemafuzz/schemafuzz/internal/translator"
	_ "github.com/schemafuzz/schemafuzz/internal/translator/mysql"
)

func record(t *testing.T, words []string) (*Manifest, *runner.Result) {
	t.Helper()
	tr, err := translator.ForDialect("mysql", nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := runner.Options{
		Seed:       11,
		Scenarios:  4,
		Statements: 10,
		Columns:    5,
		Workers:    2,
		Location:   true,
		Weights:    runner.Weights{AddColumn: 1, DropColumn: 1, RenameTable: 1},
		Words:      words,
		Translator: tr,
	}
	res, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return NewManifest("run-1", res, opts, nil, ""), res
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"ALTER TABLE t RENAME u;"})
	if len(a) != 16 {
		t.Errorf("expected 16 hex digits, got %q", a)
	}
	if a != Fingerprint([]string{"ALTER TABLE t RENAME u;"}) {
		t.Error("fingerprint is not stable")
	}
	if a == Fingerprint([]string{"ALTER TABLE t RENAME v;"}) {
		t.Error("different statements share a fingerprint")
	}
	// Statement boundaries are part of the hash.
	if Fingerprint([]string{"ab", "c"}) == Fingerprint([]string{"a", "bc"}) {
		t.Error("fingerprint ignores statement boundaries")
	}
}

func TestVerifyReproducesRun(t *testing.T) {
	m, _ := record(t, nil)

	path := filepath.Join(t.TempDir(), "out", FileName)
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, mismatches, err := Verify(context.Background(), loaded, nil, 4, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches, got %v", mismatches)
	}
}

func TestCompareDetectsChangedStatement(t *testing.T) {
	m, res := record(t, nil)

	res.Scenarios[2].CreateSQL = "CREATE TABLE x(a INT);"

	mismatches := m.Compare(res)
	if len(mismatches) != 1 || mismatches[0].Index != 2 {
		t.Fatalf("expected one mismatch in scenario 2, got %v", mismatches)
	}
	if mismatches[0].Want == mismatches[0].Got {
		t.Error("mismatch should carry different fingerprints")
	}
}

func TestCompareDetectsMissingScenario(t *testing.T) {
	m, res := record(t, nil)
	res.Scenarios = res.Scenarios[:3]

	mismatches := m.Compare(res)
	if len(mismatches) != 1 || mismatches[0].Index != 3 || mismatches[0].Got != "" {
		t.Errorf("expected scenario 3 reported missing, got %v", mismatches)
	}
}

func TestVerifyRejectsChangedDictionary(t *testing.T) {
	m, _ := record(t, []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"})
	if _, _, err := Verify(context.Background(), m, []string{"alpha"}, 1, nil); err == nil {
		t.Error("expected error for a different dictionary")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	m, _ := record(t, nil)
	m.Version = 7
	path := filepath.Join(t.TempDir(), FileName)
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown version")
	}
}
