package emit

import (
	"context"
	"strings"
	"testing"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
	"github.com/CodMac/cppbind/partition"
	"github.com/CodMac/cppbind/x/pybind11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = core.Options{Module: "example", Holder: pybind11.HolderShared}

func scopes(ns string) []model.Scope {
	return []model.Scope{{Kind: model.NamespaceScope, Name: ns, QualifiedName: ns}}
}

func record(ns, name string, bases ...string) *model.Declaration {
	r := &model.RecordDecl{Tag: model.StructTag, Complete: true, CopyConstructible: true, MoveConstructible: true}
	for _, b := range bases {
		r.Bases = append(r.Bases, &model.BaseSpec{
			Type:   &model.TypeDescriptor{Kind: model.RecordType, Name: b, DeclID: b},
			Access: model.Public,
		})
	}
	return &model.Declaration{
		ID: ns + "::" + name, Kind: model.Record, Name: name, QualifiedName: ns + "::" + name,
		Scopes: scopes(ns), Header: ns + "/types.hpp", Record: r,
	}
}

func useFunction() *model.Declaration {
	d := &model.Declaration{
		Kind: model.Function, Name: "use", QualifiedName: "ns::use", Scopes: scopes("ns"), Header: "ns/api.hpp",
		Function: &model.FunctionDecl{
			Result: &model.TypeDescriptor{Kind: model.FundamentalType, Name: "void"},
			Params: []*model.Param{{Name: "d", Type: &model.TypeDescriptor{
				Kind:    model.LValueRefType,
				Pointee: &model.TypeDescriptor{Kind: model.RecordType, Name: "ns::Derived", DeclID: "ns::Derived", Const: true},
			}}},
		},
	}
	d.ID = d.Identity()
	return d
}

// run 分类、命名、划分并发射
func run(t *testing.T, partitions, workers int, decls ...*model.Declaration) (*core.BindingContext, *Output) {
	t.Helper()
	bc := core.NewBindingContext(nil)
	for _, d := range decls {
		bc.AddDeclaration(d)
	}
	require.NoError(t, bc.Resolve(context.Background(), pybind11.NewClassifier(opts), core.ResolveOptions{Workers: workers}))

	resolver := pybind11.NewPybind11Resolver()
	for k := 0; k < partitions; k++ {
		bc.Reserve(resolver.EntryPoint(opts.Module, k))
	}
	require.NoError(t, core.NewBinder(resolver, nil).BindNames(bc))

	plan, err := partition.NewPartitioner(nil).Partition(bc, partitions)
	require.NoError(t, err)
	out, err := NewEmitter(opts.Module, pybind11.NewRenderer(opts), resolver, nil).Emit(bc, plan)
	require.NoError(t, err)
	return bc, out
}

func TestEmit_TwoPartitions(t *testing.T) {
	_, out := run(t, 2, 2, record("ns", "Base"), record("ns", "Derived", "ns::Base"), useFunction())

	assert.Equal(t, []string{"example.cpp", "example_0.cpp", "example_1.cpp"}, out.Sources)
	assert.Equal(t, []string{"example.ns"}, out.Modules)
	require.Len(t, out.Units, 2)

	first := out.Units[0].Content
	base := strings.Index(first, "void bind_ns_Base(ModuleGetter &M)\n")
	derived := strings.Index(first, "void bind_ns_Derived(ModuleGetter &M)\n")
	require.True(t, base >= 0 && derived >= 0)
	assert.Less(t, base, derived, "dependencies are registered first")
	assert.Contains(t, first, "\tbind_ns_Base(M);\n\n\t{ // ns::Derived\n")
	assert.Contains(t, first, "pybind11::class_<ns::Derived, std::shared_ptr<ns::Derived>, ns::Base> cl(M(\"ns\"), \"Derived\", \"\");")
	assert.NotContains(t, first, "void bind_ns_Base(ModuleGetter &M);")
	assert.Contains(t, first, "#include <ns/types.hpp>\n")

	second := out.Units[1].Content
	assert.Contains(t, second, "void bind_ns_Derived(ModuleGetter &M);\n")
	assert.Contains(t, second, "#include <ns/api.hpp>\n#include <ns/types.hpp>\n", "headers of referenced declarations are included")
	assert.Contains(t, second, "\tM(\"ns\").def(\"use\"")
	assert.Contains(t, second, ";\n\n\tbind_ns_Derived(M);\n}\n", "parameter types are ensured after registration")
	assert.Contains(t, second, "void bind_example_1(ModuleGetter &M)\n{\n\tbind_ns_use(M);\n}\n")

	driver := out.Driver.Content
	assert.Contains(t, driver, "\tmodules[\"ns\"] = modules[\"\"].def_submodule(\"ns\", \"Bindings for ns namespace\");\n")
	assert.Contains(t, driver, "\tbind_example_0(M);\n\tbind_example_1(M);\n")
}

func TestEmit_Deterministic(t *testing.T) {
	decls := func() []*model.Declaration {
		return []*model.Declaration{record("ns", "Base"), record("ns", "Derived", "ns::Base"), useFunction(), record("app", "Widget", "ns::Base")}
	}
	_, want := run(t, 3, 1, decls()...)

	reversed := decls()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	for _, workers := range []int{2, 8} {
		_, got := run(t, 3, workers, reversed...)
		assert.Equal(t, want.Sources, got.Sources)
		assert.Equal(t, want.Modules, got.Modules)
		assert.Equal(t, want.Driver.Content, got.Driver.Content)
		for k := range want.Units {
			assert.Equal(t, want.Units[k].Content, got.Units[k].Content, "unit %d", k)
		}
	}
}

func TestEmit_NestedAndAlias(t *testing.T) {
	base := record("ns", "Base")
	kind := &model.Declaration{
		ID: "ns::Base::Kind", Kind: model.Enum, Name: "Kind", QualifiedName: "ns::Base::Kind",
		Scopes: append(scopes("ns"), model.Scope{Kind: model.RecordScope, Name: "Base", QualifiedName: "ns::Base", DeclID: "ns::Base"}),
		Enum:   &model.EnumDecl{Scoped: true, Enumerators: []*model.Enumerator{{Name: "a"}}},
	}
	round := &model.Declaration{
		ID: "app::Round", Kind: model.Alias, Name: "Round", QualifiedName: "app::Round", Scopes: scopes("app"),
		Alias: &model.AliasDecl{Target: &model.TypeDescriptor{Kind: model.RecordType, Name: "ns::Base", DeclID: "ns::Base"}},
	}
	_, out := run(t, 1, 2, round, kind, base)

	unit := out.Units[0].Content
	assert.Contains(t, unit, "pybind11::enum_<ns::Base::Kind>(((pybind11::object) M(\"ns\").attr(\"Base\")), \"Kind\"")
	assert.Contains(t, unit, "\tM(\"app\").attr(\"Round\") = M(\"ns\").attr(\"Base\");\n")
	assert.Less(t, strings.Index(unit, "void bind_ns_Base(ModuleGetter &M)\n"), strings.Index(unit, "void bind_ns_Base_Kind(ModuleGetter &M)\n"))
	assert.Equal(t, []string{"example.app", "example.ns"}, out.Modules)
}

func TestEmit_NestedReturnCycle(t *testing.T) {
	outer := record("ns", "Outer")
	outer.Record.Methods = []*model.Method{{
		Name:   "begin",
		Access: model.Public,
		Result: &model.TypeDescriptor{Kind: model.RecordType, Name: "ns::Outer::Iter", DeclID: "ns::Outer::Iter"},
	}}
	iter := record("ns", "Iter")
	iter.ID, iter.QualifiedName, iter.Header = "ns::Outer::Iter", "ns::Outer::Iter", "ns/iter.hpp"
	iter.Scopes = append(scopes("ns"), model.Scope{Kind: model.RecordScope, Name: "Outer", QualifiedName: "ns::Outer", DeclID: "ns::Outer"})

	bc, out := run(t, 1, 2, iter, outer)
	v, _ := bc.Verdict("ns::Outer::Iter")
	require.Equal(t, model.Bindable, v.State)

	unit := out.Units[0].Content
	assert.Contains(t, unit, "void bind_ns_Outer_Iter(ModuleGetter &M);\n")
	assert.Contains(t, unit, "#include <ns/iter.hpp>\n#include <ns/types.hpp>\n")

	start := strings.Index(unit, "void bind_ns_Outer(ModuleGetter &M)\n{")
	require.GreaterOrEqual(t, start, 0)
	body := unit[start:]
	body = body[:strings.Index(body, "\n}\n")]
	class := strings.Index(body, "pybind11::class_<ns::Outer,")
	ensure := strings.Index(body, "\tbind_ns_Outer_Iter(M);")
	require.True(t, class >= 0 && ensure >= 0, body)
	assert.Less(t, class, ensure, "the nested type is ensured only after Outer exists")

	assert.Contains(t, unit, "registered = true;\n\n\tbind_ns_Outer(M);\n\n\t{ // ns::Outer::Iter\n")
	assert.Contains(t, unit, "pybind11::class_<ns::Outer::Iter, std::shared_ptr<ns::Outer::Iter>> cl(((pybind11::object) M(\"ns\").attr(\"Outer\")), \"Iter\", \"\");")
}

func TestEmit_OmitsShadowedFunction(t *testing.T) {
	overload := func(param *model.TypeDescriptor) *model.Declaration {
		d := &model.Declaration{
			Kind: model.Function, Name: "f", QualifiedName: "ns::f", Scopes: scopes("ns"), Header: "ns/api.hpp",
			Function: &model.FunctionDecl{
				Result: &model.TypeDescriptor{Kind: model.FundamentalType, Name: "void"},
				Params: []*model.Param{{Name: "x", Type: param}},
			},
		}
		d.ID = d.Identity()
		return d
	}
	integer := &model.TypeDescriptor{Kind: model.FundamentalType, Name: "int"}
	constInt := &model.TypeDescriptor{Kind: model.FundamentalType, Name: "int", Const: true}
	byValue := overload(integer)
	byRef := overload(&model.TypeDescriptor{Kind: model.LValueRefType, Pointee: constInt})

	bc, out := run(t, 1, 1, byValue, byRef)
	require.Len(t, bc.Bindable(), 2)
	require.Len(t, bc.Diagnostics(), 1)

	unit := out.Units[0].Content
	assert.Equal(t, 1, strings.Count(unit, "static bool registered"))
	assert.Equal(t, 1, strings.Count(unit, ".def(\"f\""))
	assert.Equal(t, 1, strings.Count(unit, "\tbind_ns_f"), "only the surviving overload is called from the entry point")
}

func TestCollectNamespaces(t *testing.T) {
	bc, _ := run(t, 1, 1, record("a::b::c", "X"), record("a", "Y"))
	assert.Equal(t, []string{"a", "a::b", "a::b::c"}, collectNamespaces(bc))
}
