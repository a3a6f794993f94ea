package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querydsl/internal/dsl"
	"github.com/roach88/querydsl/internal/field"
)

func assertDoc(t *testing.T, want string, got dsl.Object) {
	t.Helper()
	data, err := dsl.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(data))
}

func sampleQuery() dsl.Object {
	return dsl.Object{"query": dsl.Must(dsl.Term("data.attributes.name.keyword", "x"))}
}

func TestApplyPagination_ZeroIsSentinel(t *testing.T) {
	q := sampleQuery()
	got := ApplyPagination(q, 0, 5)
	assert.Equal(t, q, got)
}

func TestApplyPagination(t *testing.T) {
	q := sampleQuery()
	got := ApplyPagination(q, 25, 50)
	assert.Equal(t, 25, got["size"])
	assert.Equal(t, 50, got["from"])
	assert.NotContains(t, q, "size", "input must not be mutated")
}

func TestApplyGroupFilters_Multiple(t *testing.T) {
	got := ApplyGroupFilters(sampleQuery(), []string{"aafc", "cnc"})
	assertDoc(t, `{"query": {"bool": {"must": [
		{"term": {"data.attributes.name.keyword": "x"}},
		{"terms": {"data.attributes.group.keyword": ["aafc", "cnc"]}}
	]}}}`, got)
}

func TestApplyGroupFilters_Single(t *testing.T) {
	got := ApplyGroupFilters(sampleQuery(), []string{"aafc"})
	assertDoc(t, `{"query": {"bool": {"must": [
		{"term": {"data.attributes.name.keyword": "x"}},
		{"term": {"data.attributes.group.keyword": "aafc"}}
	]}}}`, got)
}

func TestApplyGroupFilters_NoGroupsUnchanged(t *testing.T) {
	q := sampleQuery()
	assert.Equal(t, q, ApplyGroupFilters(q, []string{}))
	assert.Equal(t, q, ApplyGroupFilters(q, nil))
	assert.Equal(t, q, ApplyGroupFilters(q, []string{" "}))
}

func TestApplyGroupFilters_EmptyQueryStillFiltered(t *testing.T) {
	assertDoc(t, `{"query": {"bool": {"must": [{"term": {"data.attributes.group.keyword": "aafc"}}]}}}`,
		ApplyGroupFilters(dsl.Object{}, []string{"aafc"}))
	assertDoc(t, `{"query": {"bool": {"must": [{"term": {"data.attributes.group.keyword": "aafc"}}]}}}`,
		ApplyGroupFilters(nil, []string{"aafc"}))
}

func TestApplyGroupFilters_ShouldRootKeepsOrMeaning(t *testing.T) {
	doc := dsl.Object{"query": dsl.Should(dsl.Exists("a"), dsl.Exists("b"))}
	got := ApplyGroupFilters(doc, []string{"aafc"})
	assertDoc(t, `{"query": {"bool": {
		"should": [{"exists": {"field": "a"}}, {"exists": {"field": "b"}}],
		"must": [{"term": {"data.attributes.group.keyword": "aafc"}}],
		"minimum_should_match": 1
	}}}`, got)

	_, mutated := doc["query"].(dsl.Object)["bool"].(dsl.Object)["must"]
	assert.False(t, mutated)
}

func TestApplyGroupFilters_NonBoolRootWrapped(t *testing.T) {
	doc := dsl.Object{"query": dsl.Nested("included", dsl.Exists("included.id"))}
	got := ApplyGroupFilters(doc, []string{"aafc"})
	assertDoc(t, `{"query": {"bool": {"must": [
		{"nested": {"path": "included", "query": {"exists": {"field": "included.id"}}}},
		{"term": {"data.attributes.group.keyword": "aafc"}}
	]}}}`, got)
}

func TestApplyGroupFilters_KeepsOtherKeys(t *testing.T) {
	doc := ApplyPagination(sampleQuery(), 10, 0)
	got := ApplyGroupFilters(doc, []string{"aafc"})
	assert.Equal(t, 10, got["size"])
}

func TestApplyRootQuery(t *testing.T) {
	assert.Equal(t, dsl.Object{}, ApplyRootQuery(nil))

	assertDoc(t, `{"query": {"term": {"f": "v"}}}`, ApplyRootQuery(dsl.Term("f", "v")))
	assertDoc(t, `{"query": {"bool": {"must": [{"term": {"f": "v"}}]}}}`, ApplyRootQuery(dsl.Must(dsl.Term("f", "v"))))

	frag := dsl.Should(dsl.Term("f", "v"))
	assertDoc(t, `{"query": {"bool": {"should": [{"term": {"f": "v"}}], "minimum_should_match": 1}}}`, ApplyRootQuery(frag))
	_, mutated := frag["bool"].(dsl.Object)[dsl.MinimumShouldMatch]
	assert.False(t, mutated)
}

func TestApplyRootQuery_EmptyShould(t *testing.T) {
	frag := dsl.Object{"bool": dsl.Object{"should": []dsl.Object{}}}
	got := ApplyRootQuery(frag)
	b, _ := got.Lookup("query", "bool")
	assert.NotContains(t, b, dsl.MinimumShouldMatch)
}

func TestApplySourceFiltering(t *testing.T) {
	columns := []field.Column{
		{Accessor: "data.attributes.materialSampleName"},
		{Accessor: "data.attributes.createdOn", AdditionalAccessors: []string{"data.attributes.createdBy", "data.id"}},
		{Accessor: "included.attributes.name", RelationshipType: "collection"},
		{Accessor: "data.attributes.materialSampleName"},
	}
	got := ApplySourceFiltering(sampleQuery(), columns)
	assert.Equal(t, []string{
		"data.id",
		"data.type",
		"data.attributes.materialSampleName",
		"data.attributes.createdOn",
		"data.attributes.createdBy",
		"included.attributes.name",
		"included.id",
		"included.type",
	}, got["_source"])
}

func TestApplySourceFiltering_NoIncluded(t *testing.T) {
	got := ApplySourceFiltering(nil, []field.Column{{Accessor: "data.attributes.name"}})
	assert.Equal(t, []string{"data.id", "data.type", "data.attributes.name"}, got["_source"])

	q := sampleQuery()
	assert.Equal(t, q, ApplySourceFiltering(q, nil))
}

func TestBuild(t *testing.T) {
	frag := dsl.Should(dsl.Term("a", "1"), dsl.Term("b", "2"))
	got := Build(frag, Request{
		PageSize:   25,
		PageOffset: 0,
		Sort:       []SortRule{{ID: "data.attributes.name", Desc: true}},
		Columns:    []field.Column{{Accessor: "data.attributes.name", IsKeyword: true}},
		Groups:     []string{"aafc"},
	})
	assertDoc(t, `{
		"query": {"bool": {
			"should": [{"term": {"a": "1"}}, {"term": {"b": "2"}}],
			"minimum_should_match": 1,
			"must": [{"term": {"data.attributes.group.keyword": "aafc"}}]
		}},
		"size": 25,
		"from": 0,
		"sort": [{"data.attributes.name.keyword": {"order": "desc"}}],
		"_source": ["data.id", "data.type", "data.attributes.name"]
	}`, got)
}

func TestBuild_EmptyTree(t *testing.T) {
	assert.Equal(t, dsl.Object{}, Build(nil, Request{}))
}
