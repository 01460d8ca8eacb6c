package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		"meta": map[string]any{
			"concept-id":  "C1200000001-PROV",
			"provider-id": "PROV",
		},
		"umm": map[string]any{
			"ShortName": "MODIS",
			"Version":   "6.1",
		},
	}
}

func TestProjections(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		input  Record
		want   Record
	}{
		{
			name:   "identity",
			filter: Identity,
			input:  sampleRecord(),
			want:   sampleRecord(),
		},
		{
			name:   "meta",
			filter: Meta,
			input:  sampleRecord(),
			want:   Record{"concept-id": "C1200000001-PROV", "provider-id": "PROV"},
		},
		{
			name:   "umm",
			filter: Umm,
			input:  sampleRecord(),
			want:   Record{"ShortName": "MODIS", "Version": "6.1"},
		},
		{
			name:   "meta missing passes through",
			filter: Meta,
			input:  Record{"other": 1},
			want:   Record{"other": 1},
		},
		{
			name:   "umm not an object passes through",
			filter: Umm,
			input:  Record{"umm": "text"},
			want:   Record{"umm": "text"},
		},
		{
			name:   "concept ids from meta",
			filter: ConceptIDs,
			input:  sampleRecord(),
			want:   Record{"concept-id": "C1200000001-PROV"},
		},
		{
			name:   "concept ids from top level",
			filter: ConceptIDs,
			input:  Record{"concept-id": "G1-PROV", "title": "x"},
			want:   Record{"concept-id": "G1-PROV"},
		},
		{
			name:   "concept ids absent",
			filter: ConceptIDs,
			input:  Record{"title": "x"},
			want:   Record{"title": "x"},
		},
		{
			name:   "concept ids meta without id",
			filter: ConceptIDs,
			input:  Record{"meta": map[string]any{"revision-id": 2}},
			want:   Record{"meta": map[string]any{"revision-id": 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter(tt.input))
		})
	}
}

func TestDrop(t *testing.T) {
	input := sampleRecord()

	once := Drop("umm")(input)
	assert.NotContains(t, once, "umm")
	assert.Contains(t, once, "meta")
	assert.Contains(t, input, "umm", "drop must not modify its input")

	twice := Drop("umm")(once)
	assert.Equal(t, once, twice)

	absent := Drop("missing")(input)
	assert.Equal(t, input, absent)
}

func TestPipeline_Composition(t *testing.T) {
	f1 := Drop("umm")
	f2 := ConceptIDs
	x := sampleRecord()

	got := Chain(f1, f2).ApplyOne(x)
	assert.Equal(t, f2(f1(x)), got)

	assert.Equal(t, x, Pipeline(nil).ApplyOne(x))
	assert.Equal(t, x, Chain().ApplyOne(x))
}

func TestPipeline_Apply(t *testing.T) {
	items := []Record{
		{"meta": map[string]any{"concept-id": "C1"}},
		{"concept-id": "C2"},
		{"title": "no id"},
	}

	got := Chain(ConceptIDs).Apply(items)
	require.Len(t, got, 3)
	assert.Equal(t, Record{"concept-id": "C1"}, got[0])
	assert.Equal(t, Record{"concept-id": "C2"}, got[1])
	assert.Equal(t, Record{"title": "no id"}, got[2])

	assert.Equal(t, items, Pipeline(nil).Apply(items))
	assert.Empty(t, Chain(Meta).Apply(nil))
}

func TestChain_SkipsNil(t *testing.T) {
	p := Chain(nil, Meta, nil)
	assert.Len(t, p, 1)
}

func TestPipeline_NilEntriesAreSkipped(t *testing.T) {
	p := Pipeline{nil, Meta, nil}

	assert.NotPanics(t, func() {
		assert.Equal(t, Record{"concept-id": "C1200000001-PROV", "provider-id": "PROV"}, p.ApplyOne(sampleRecord()))
	})
	assert.Equal(t, []Record{sampleRecord()}, Pipeline{nil}.Apply([]Record{sampleRecord()}))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"identity", "none", "meta", "umm", "concept-ids", "drop:umm"} {
		f, err := ByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
	}

	_, err := ByName("drop:")
	assert.Error(t, err)

	_, err = ByName("bogus")
	assert.EqualError(t, err, `unknown filter "bogus"`)

	p, err := ParseNames([]string{"drop:umm", "meta"})
	require.NoError(t, err)
	assert.Equal(t, Record{"concept-id": "C1200000001-PROV", "provider-id": "PROV"}, p.ApplyOne(sampleRecord()))

	_, err = ParseNames([]string{"meta", "nope"})
	assert.Error(t, err)
}
