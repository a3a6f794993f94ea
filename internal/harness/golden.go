package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querydsl/internal/dsl"
)

// GoldenDir holds golden documents, relative to the test's package.
const GoldenDir = "testdata/golden"

// RunWithGolden runs a scenario, fails t on unmet expectations, and
// compares the assembled document against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, f := range result.Failures {
		t.Error(f)
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's document against its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenBytes is the golden file form of a result: the indented document.
func GoldenBytes(result *Result) ([]byte, error) {
	return dsl.MarshalIndent(result.Document)
}
