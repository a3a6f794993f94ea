package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querydsl/internal/querytree"
)

const (
	collectionCompact = `{"c":"a","p":[{"f":"collection.attributes.name","o":"equals","v":"CNC","t":"text"}]}`
	heightCompact     = `{"c":"a","p":[{"f":"data.attributes.managedAttributes","o":"greaterThan","v":"10","t":"managedAttribute","d":"height"}]}`
	heightID          = "0190c1a2-0000-7000-8000-0000000000aa"
)

// jsonResponse decodes a JSON-mode CLI response.
func jsonResponse(t *testing.T, stdout string) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	return resp
}

func TestCompile_TreeFile(t *testing.T) {
	res := execute(t, "", "compile", "testdata/tree.json", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	assert.JSONEq(t, readTestdata(t, "expected_document.json"), res.Stdout)
}

// The text-mode document is pinned byte for byte. To regenerate, run:
//
//	go test ./internal/cli -run TestCompile_Golden -update
func TestCompile_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	res := execute(t, "", "compile", "testdata/tree.json", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	g.Assert(t, "compile_collection", []byte(res.Stdout))

	res = execute(t, "", "compile", "--compact", collectionCompact, "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	g.Assert(t, "compile_collection", []byte(res.Stdout))
}

func TestCompile_Stdin(t *testing.T) {
	res := execute(t, readTestdata(t, "tree.json"), "compile", "-", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	assert.JSONEq(t, readTestdata(t, "expected_document.json"), res.Stdout)
}

func TestCompile_CompactJSON(t *testing.T) {
	res := execute(t, "",
		"compile", "--compact", collectionCompact,
		"--registry", "testdata/registry.yaml",
		"--columns", "testdata/registry.yaml",
		"--page-size", "10", "--page-offset", "20",
		"--sort", "data.attributes.materialSampleName:desc",
		"--group", "aafc",
		"--format", "json")
	require.NoError(t, res.Err, res.Stderr)

	resp := jsonResponse(t, res.Stdout)
	assert.Equal(t, "ok", resp["status"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, collectionCompact, data["compact"])
	assert.NotContains(t, data, "errors")

	doc := data["document"].(map[string]any)
	assert.Equal(t, float64(10), doc["size"])
	assert.Equal(t, float64(20), doc["from"])
	assert.Equal(t, []any{map[string]any{"data.attributes.materialSampleName": map[string]any{"order": "desc"}}}, doc["sort"])
	assert.Contains(t, doc["_source"], "included.attributes.name")

	must := doc["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	assert.Equal(t, map[string]any{"term": map[string]any{"data.attributes.group.keyword": "aafc"}}, must[1])
}

func TestCompile_EmptyCompact(t *testing.T) {
	res := execute(t, "", "compile", "--compact", "{}", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	assert.JSONEq(t, `{}`, res.Stdout)
	assert.Contains(t, res.Stderr, "compact string holds no query")
}

func TestCompile_InvalidRuleStillCompiles(t *testing.T) {
	res := execute(t, "", "compile", "testdata/invalid_tree.json", "--registry", "testdata/registry.yaml", "--format", "json")
	require.NoError(t, res.Err, res.Stderr)

	data := jsonResponse(t, res.Stdout)["data"].(map[string]any)
	errs := data["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "dateMustBeFormattedYyyyMmDd", errs[0].(map[string]any)["id"])
	assert.Contains(t, res.Stderr, "invalid rule")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		errCode string
	}{
		{
			name:    "no registry",
			args:    []string{"compile", "testdata/tree.json"},
			errCode: ErrCodeConfig,
		},
		{
			name:    "missing tree file",
			args:    []string{"compile", "testdata/missing.json", "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
		{
			name:    "empty stdin",
			stdin:   "  \n",
			args:    []string{"compile", "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
		{
			name:    "malformed tree",
			stdin:   `{"type":"rule"}`,
			args:    []string{"compile", "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
		{
			name:    "file and compact",
			args:    []string{"compile", "testdata/tree.json", "--compact", collectionCompact, "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
		{
			name:    "bad sort direction",
			args:    []string{"compile", "testdata/tree.json", "--sort", "x:sideways", "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
		{
			name:    "negative offset",
			args:    []string{"compile", "testdata/tree.json", "--page-offset", "-1", "--registry", "testdata/registry.yaml"},
			errCode: ErrCodeInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tt.stdin, tt.args...)
			require.Error(t, res.Err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
			assert.True(t, Reported(res.Err))
			assert.Contains(t, res.Stderr, "Error ["+tt.errCode+"]")
			assert.Empty(t, res.Stdout)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	res := execute(t, "", "validate", "testdata/tree.json", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	assert.Equal(t, "✓ Tree is valid\n", res.Stdout)

	res = execute(t, "", "validate", "testdata/tree.json", "--registry", "testdata/registry.yaml", "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	assert.JSONEq(t, `{"status":"ok","data":{"valid":true,"errors":[]}}`, res.Stdout)
}

func TestValidate_Invalid(t *testing.T) {
	res := execute(t, "", "validate", "testdata/invalid_tree.json", "--registry", "testdata/registry.yaml")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))
	assert.True(t, Reported(res.Err))
	assert.Contains(t, res.Stdout, "✗ ")
	assert.Contains(t, res.Stdout, "the date must be formatted as YYYY-MM-DD")
	assert.Contains(t, res.Stderr, "Error [E020]: 1 invalid rule(s)")
}

func TestValidate_InvalidJSON(t *testing.T) {
	res := execute(t, "", "validate", "testdata/invalid_tree.json", "--registry", "testdata/registry.yaml", "--format", "json")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))

	resp := jsonResponse(t, res.Stdout)
	assert.Equal(t, "error", resp["status"])
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errObj["code"])
	details := errObj["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "dateMustBeFormattedYyyyMmDd", details[0].(map[string]any)["id"])
}

func TestValidate_French(t *testing.T) {
	res := execute(t, "", "validate", "testdata/invalid_tree.json", "--registry", "testdata/registry.yaml", "--lang", "fr")
	require.Error(t, res.Err)
	assert.Contains(t, res.Stdout, "la date doit être au format AAAA-MM-JJ")
}

func TestValidate_BadLanguage(t *testing.T) {
	res := execute(t, "", "validate", "testdata/tree.json", "--registry", "testdata/registry.yaml", "--lang", "!!")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "invalid --lang")
}

func TestEncode(t *testing.T) {
	res := execute(t, "", "encode", "testdata/tree.json")
	require.NoError(t, res.Err, res.Stderr)
	assert.Equal(t, collectionCompact+"\n", res.Stdout)

	res = execute(t, "", "encode", "testdata/tree.json", "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	assert.JSONEq(t, `{"status":"ok","data":{"compact":`+jsonString(t, collectionCompact)+`}}`, res.Stdout)
}

func TestEncode_SubGroupsFail(t *testing.T) {
	res := execute(t, "", "encode", "testdata/nested_tree.json")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "Error [E021]")
	assert.Empty(t, res.Stdout)
}

func TestDecode(t *testing.T) {
	res := execute(t, "", "decode", collectionCompact)
	require.NoError(t, res.Err, res.Stderr)

	tree, err := querytree.Parse([]byte(res.Stdout))
	require.NoError(t, err)
	assert.Equal(t, querytree.And, tree.Conjunction)
	require.Len(t, tree.Children, 1)
	rule, ok := tree.Children[0].(*querytree.Rule)
	require.True(t, ok)
	assert.Equal(t, "collection.attributes.name", rule.Field)
	assert.Equal(t, "CNC", rule.Value)
	assert.NotEmpty(t, rule.ID)
}

func TestDecode_Empty(t *testing.T) {
	res := execute(t, "", "decode", "")
	require.Error(t, res.Err)
	assert.Equal(t, ExitFailure, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "Error [E010]")

	res = execute(t, "", "decode", "", "--default")
	require.NoError(t, res.Err, res.Stderr)
	tree, err := querytree.Parse([]byte(res.Stdout))
	require.NoError(t, err)
	assert.NotEmpty(t, tree.ID)
}

func TestFields(t *testing.T) {
	res := execute(t, "", "fields", "--registry", "testdata/registry.yaml")
	require.NoError(t, res.Err, res.Stderr)
	assert.Contains(t, res.Stdout, "KEY")
	assert.Contains(t, res.Stdout, "collection.attributes.name")
	assert.Contains(t, res.Stdout, "included.attributes.name")

	res = execute(t, "", "fields", "--registry", "testdata/registry.yaml", "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	data := jsonResponse(t, res.Stdout)["data"].([]any)
	require.NotEmpty(t, data)

	byKey := map[string]map[string]any{}
	for _, item := range data {
		fi := item.(map[string]any)
		byKey[fi["key"].(string)] = fi
	}
	ma := byKey["data.attributes.managedAttributes"]
	require.NotNil(t, ma)
	assert.Equal(t, "managedAttribute", ma["type"])
	assert.Contains(t, ma["operators"], "equals")
}

func TestSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"took": 4,
			"timed_out": false,
			"hits": {
				"total": {"value": 10000, "relation": "gte"},
				"hits": [
					{"_index": "samples", "_id": "a1", "_score": 1.5},
					{"_index": "samples", "_id": "b2", "_score": null}
				]
			}
		}`)
	}))
	defer srv.Close()

	res := execute(t, "", "search", "testdata/tree.json",
		"--registry", "testdata/registry.yaml",
		"--endpoint", srv.URL,
		"--index", "samples",
		"--page-size", "2")
	require.NoError(t, res.Err, res.Stderr)

	assert.Equal(t, "/samples/_search", gotPath)
	assert.Equal(t, float64(2), gotBody["size"])
	assert.Contains(t, gotBody, "query")
	assert.Equal(t, "10000+ hit(s) in 4ms\n  a1  1.500\n  b2\n", res.Stdout)
}

func TestSearch_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"took":1,"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`)
	}))
	defer srv.Close()

	res := execute(t, "", "search", "testdata/tree.json",
		"--registry", "testdata/registry.yaml", "--endpoint", srv.URL, "--index", "samples", "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	resp := jsonResponse(t, res.Stdout)
	assert.Equal(t, "ok", resp["status"])
	hits := resp["data"].(map[string]any)["hits"].(map[string]any)
	assert.Equal(t, map[string]any{"value": float64(0), "relation": "eq"}, hits["total"])
}

func TestSearch_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parsing_exception","reason":"bad query"},"status":400}`)
	}))
	defer srv.Close()

	res := execute(t, "", "search", "testdata/tree.json",
		"--registry", "testdata/registry.yaml", "--endpoint", srv.URL, "--index", "samples")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "Error [E030]")
}

func TestSearch_RequiresIndex(t *testing.T) {
	res := execute(t, "", "search", "testdata/tree.json", "--registry", "testdata/registry.yaml")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "Error [E050]")
}

func TestCatalog_ImportAndResolve(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	res := execute(t, "", "catalog", "import", "testdata/seed.yaml", "--catalog", db)
	require.NoError(t, res.Err, res.Stderr)
	assert.Contains(t, res.Stdout, "Imported 2 managed attribute(s)")

	res = execute(t, "", "catalog", "attributes", "--catalog", db, "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	attrs := jsonResponse(t, res.Stdout)["data"].([]any)
	require.Len(t, attrs, 2)
	assert.Equal(t, "height", attrs[0].(map[string]any)["key"])
	assert.Equal(t, heightID, attrs[0].(map[string]any)["id"])

	res = execute(t, "", "compile", "--compact", heightCompact,
		"--registry", "testdata/registry.yaml", "--catalog", db, "--format", "json")
	require.NoError(t, res.Err, res.Stderr)
	data := jsonResponse(t, res.Stdout)["data"].(map[string]any)
	assert.Contains(t, data["compact"], heightID)
	must := data["document"].(map[string]any)["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	require.Len(t, must, 1)
	assert.Equal(t, map[string]any{
		"range": map[string]any{
			"data.attributes.managedAttributes.height": map[string]any{"gt": float64(10)},
		},
	}, must[0])
}

func TestCatalog_RequiresPath(t *testing.T) {
	res := execute(t, "", "catalog", "attributes")
	require.Error(t, res.Err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.Err))
	assert.Contains(t, res.Stderr, "no catalog")
}

func jsonString(t *testing.T, s string) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}
