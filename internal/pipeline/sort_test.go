package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querydsl/internal/field"
)

func TestApplySortingRules(t *testing.T) {
	columns := []field.Column{
		{Accessor: "data.attributes.materialSampleName", IsKeyword: true},
		{Accessor: "data.attributes.createdOn"},
		{Accessor: "included.attributes.name", IsKeyword: true, RelationshipType: "collection"},
	}
	rules := []SortRule{
		{ID: "included.attributes.name"},
		{ID: "data.attributes.createdOn", Desc: true},
		{ID: "data.attributes.materialSampleName"},
		{ID: "data.attributes.unlisted"},
	}

	got := ApplySortingRules(sampleQuery(), rules, columns)
	assertDoc(t, `{
		"query": {"bool": {"must": [{"term": {"data.attributes.name.keyword": "x"}}]}},
		"sort": [
			{"included.attributes.name.keyword": {
				"order": "asc",
				"nested_path": "included",
				"nested_filter": {"term": {"included.type": "collection"}}
			}},
			{"data.attributes.createdOn": {"order": "desc"}},
			{"data.attributes.materialSampleName.keyword": {"order": "asc"}},
			{"data.attributes.unlisted": {"order": "asc"}}
		]
	}`, got)
}

func TestApplySortingRules_NoRulesUnchanged(t *testing.T) {
	q := sampleQuery()
	assert.Equal(t, q, ApplySortingRules(q, nil, nil))
	assert.Equal(t, q, ApplySortingRules(q, []SortRule{{ID: ""}}, nil))
}

func TestParseSortRule(t *testing.T) {
	tests := []struct {
		in      string
		want    SortRule
		wantErr bool
	}{
		{in: "data.attributes.name", want: SortRule{ID: "data.attributes.name"}},
		{in: "data.attributes.name:desc", want: SortRule{ID: "data.attributes.name", Desc: true}},
		{in: " data.attributes.name : ASC ", want: SortRule{ID: "data.attributes.name"}},
		{in: ":desc", wantErr: true},
		{in: "a:sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortRule(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
