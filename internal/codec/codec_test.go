package codec

import (
	"bytes"
	"strings"
	"testing"

	"pathfinder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *domain.Snapshot {
	return domain.NewSnapshot(
		[]domain.Node{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		[]domain.Edge{
			{ID: 10, SrcID: 1, DstID: 2, Weight: 1},
			{ID: 11, SrcID: 2, DstID: 3, Weight: 2.5},
		},
	)
}

func TestYAMLParseMixedNodes(t *testing.T) {
	input := `
nodes:
  - A
  - name: B
  - "  C  "
edges:
  - src: A
    dst: B
    weight: 1
  - {src: B, dst: C, weight: 2.5}
`
	seed, err := NewYAMLCodec().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, seed.Nodes)
	assert.Equal(t, []domain.SeedEdge{
		{Src: "A", Dst: "B", Weight: 1},
		{Src: "B", Dst: "C", Weight: 2.5},
	}, seed.Edges)
}

func TestYAMLParseEmpty(t *testing.T) {
	seed, err := NewYAMLCodec().Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Nodes)
	assert.Empty(t, seed.Edges)
}

func TestJSONParseMixedNodes(t *testing.T) {
	input := `{"nodes": ["A", {"name": "B"}], "edges": [{"src": "A", "dst": "B", "weight": 3}]}`

	seed, err := NewJSONCodec().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, seed.Nodes)
	assert.Equal(t, []domain.SeedEdge{{Src: "A", Dst: "B", Weight: 3}}, seed.Edges)
}

func TestParseRejectsIncompleteEntries(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		want   string
	}{
		{"yaml blank node", "yaml", "nodes:\n  - \"  \"\n", "node 1"},
		{"yaml edge without dst", "yaml", "edges:\n  - src: A\n    weight: 1\n", "edge 1"},
		{"json nameless node", "json", `{"nodes": [{"id": 4}]}`, "node 1"},
		{"json bad node type", "json", `{"nodes": [true]}`, "failed to parse JSON"},
		{"json malformed", "json", `{"nodes": [`, "failed to parse JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := ImporterFor(tt.format)
			require.NoError(t, err)

			_, err = imp.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(sampleSnapshot(), &buf))

	out := buf.String()
	assert.Contains(t, out, `"name": "A"`)
	assert.Contains(t, out, `"src_id": 2`)
	assert.Contains(t, out, `"dst": "C"`)
	assert.Contains(t, out, `"weight": 2.5`)
}

func TestExportThenImport(t *testing.T) {
	snap := sampleSnapshot()
	want := domain.SeedFromSnapshot(snap)

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			exp, err := ExporterFor(format)
			require.NoError(t, err)
			imp, err := ImporterFor(format)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, exp.Export(snap, &buf))

			got, err := imp.Parse(&buf)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExportEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(nil, &buf))
	assert.Contains(t, buf.String(), "nodes: []")
	assert.Contains(t, buf.String(), "edges: []")
}

func TestFormatLookup(t *testing.T) {
	assert.Equal(t, "json", FormatFromPath("graph.JSON"))
	assert.Equal(t, "yaml", FormatFromPath("graph.yml"))
	assert.Equal(t, "yaml", FormatFromPath("graph"))

	imp, err := ImporterFor("YML")
	require.NoError(t, err)
	assert.Equal(t, "yaml", imp.Format())

	_, err = ExporterFor("xml")
	assert.Error(t, err)
	_, err = ImporterFor("xml")
	assert.Error(t, err)
	_, err = ExporterFor("csv")
	assert.Error(t, err, "csv is import only")

	assert.Equal(t, "csv", FormatFromPath("data/edges.CSV"))
	imp, err = ImporterFor("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", imp.Format())
}
