package output

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/emit"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
	"github.com/CodMac/cppbind/partition"
	"github.com/CodMac/cppbind/x/pybind11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func sampleOutput() *emit.Output {
	return &emit.Output{
		Driver:  &emit.File{Name: "example.cpp", Content: "// driver\n"},
		Units:   []*emit.File{{Name: "example_0.cpp", Content: "// unit 0\n"}, {Name: "example_1.cpp", Content: "// unit 1\n"}},
		Sources: []string{"example.cpp", "example_0.cpp", "example_1.cpp"},
		Modules: []string{"example.geo", "example.geo.detail"},
	}
}

func TestExporter_ExportUnits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exporter := NewExporter(dir, nil)

	n, err := exporter.ExportUnits("example", sampleOutput())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	content, err := os.ReadFile(filepath.Join(dir, "example_1.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "// unit 1\n", string(content))

	assert.Equal(t, []string{"example.cpp", "example_0.cpp", "example_1.cpp"}, readLines(t, exporter.Path("example.sources")))
	assert.Equal(t, []string{"example.geo", "example.geo.detail"}, readLines(t, exporter.Path("example.modules")))
}

func TestExporter_DuplicateSources(t *testing.T) {
	out := sampleOutput()
	out.Sources = append(out.Sources, "example.cpp")

	dir := filepath.Join(t.TempDir(), "out")
	_, err := NewExporter(dir, nil).ExportUnits("example", out)
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "do not name your module the same as one of your namespaces/classes")

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written on error")
}

func TestExportDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagnostics.jsonl")
	diags := []*model.Diagnostic{
		{QualifiedName: "geo::Opaque", Kind: model.Record, Reason: "incomplete type"},
		{QualifiedName: "geo::Shape::raw", Kind: model.Field, Reason: "bit-field", Location: &model.Location{FilePath: "geo/shapes.hpp", Line: 7}},
	}
	n, err := ExportDiagnostics(path, diags)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	var got model.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, *diags[1].Location, *got.Location)
	assert.Equal(t, "bit-field", got.Reason)
	assert.NotContains(t, lines[0], "Location")
}

func TestExportDiagnostics_BadPath(t *testing.T) {
	_, err := ExportDiagnostics(filepath.Join(t.TempDir(), "missing", "d.jsonl"), nil)
	assert.Error(t, err)
}

func geoRecord(name string, bases ...string) *model.Declaration {
	r := &model.RecordDecl{Tag: model.StructTag, Complete: true, CopyConstructible: true}
	for _, b := range bases {
		r.Bases = append(r.Bases, &model.BaseSpec{Type: &model.TypeDescriptor{Kind: model.RecordType, Name: b, DeclID: b}, Access: model.Public})
	}
	return &model.Declaration{
		ID: "geo::" + name, Kind: model.Record, Name: name, QualifiedName: "geo::" + name,
		Scopes: []model.Scope{{Kind: model.NamespaceScope, Name: "geo", QualifiedName: "geo"}},
		Record: r,
	}
}

// resolved Base <- Derived，draw(const Derived *) 只有前向依赖
func resolved(t *testing.T) (*core.BindingContext, *partition.Plan) {
	t.Helper()
	draw := &model.Declaration{
		Kind: model.Function, Name: "draw", QualifiedName: "geo::draw",
		Scopes: []model.Scope{{Kind: model.NamespaceScope, Name: "geo", QualifiedName: "geo"}},
		Function: &model.FunctionDecl{Params: []*model.Param{{Name: "d", Type: &model.TypeDescriptor{
			Kind:    model.PointerType,
			Pointee: &model.TypeDescriptor{Kind: model.RecordType, Name: "geo::Derived", DeclID: "geo::Derived", Const: true},
		}}}},
	}
	opts := core.Options{Module: "example", Holder: pybind11.HolderShared}
	bc := core.NewBindingContext(nil)
	for _, d := range []*model.Declaration{geoRecord("Base"), geoRecord("Derived", "geo::Base"), draw} {
		bc.AddDeclaration(d)
	}
	require.NoError(t, bc.Resolve(context.Background(), pybind11.NewClassifier(opts), core.ResolveOptions{}))
	require.NoError(t, core.NewBinder(pybind11.NewPybind11Resolver(), nil).BindNames(bc))
	plan, err := partition.NewPartitioner(nil).Partition(bc, 2)
	require.NoError(t, err)
	return bc, plan
}

func TestExportEdges(t *testing.T) {
	bc, _ := resolved(t)
	path := filepath.Join(t.TempDir(), "edges.jsonl")
	n, err := ExportEdges(path, bc.Edges())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var first model.DependencyEdge
	require.NoError(t, json.Unmarshal([]byte(readLines(t, path)[0]), &first))
	assert.Equal(t, "geo::Derived", first.From)
	assert.Equal(t, "geo::Base", first.To)
	assert.Equal(t, model.BaseEdge, first.Kind)
	assert.Equal(t, model.Full, first.Strength)
}

func TestExportMermaidHTML(t *testing.T) {
	bc, plan := resolved(t)
	path := filepath.Join(t.TempDir(), "graph.html")

	nodes, edges, err := ExportMermaidHTML(path, bc, plan, false)
	require.NoError(t, err)
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 1, edges)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "subgraph p0 [📦 partition 0]")
	assert.Contains(t, html, "subgraph p1 [📦 partition 1]")
	assert.Contains(t, html, "n_geo__Derived ==>|BASE| n_geo__Base")
	assert.NotContains(t, html, "PARAMETER")

	_, edges, err = ExportMermaidHTML(path, bc, plan, true)
	require.NoError(t, err)
	assert.Equal(t, 2, edges)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-.->|PARAMETER| n_geo__Derived")
}

func TestSafeID(t *testing.T) {
	assert.Equal(t, "n_ns__Box_int_", safeID("ns::Box<int>"))
	assert.Equal(t, "n_ns__f_const_ns__A_p_", safeID("ns::f(const ns::A *)"))
}
