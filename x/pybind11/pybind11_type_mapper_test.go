package pybind11

import (
	"testing"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
	"github.com/stretchr/testify/assert"
)

func TestTypeMapper_Map(t *testing.T) {
	point := value("geo::Point")
	locked := newRecord("geo::Lock", &model.RecordDecl{Complete: true})
	shape := newRecord("geo::Shape", &model.RecordDecl{Complete: true, Abstract: true, Polymorphic: true})
	owned := newRecord("geo::Owned", &model.RecordDecl{Complete: true, MoveConstructible: true, Holder: HolderUnique})
	skipped := value("geo::Gone")
	pending := value("geo::Later")
	color := &model.Declaration{
		ID: "geo::Color", Kind: model.Enum, Name: "Color", QualifiedName: "geo::Color",
		Enum: &model.EnumDecl{Enumerators: []*model.Enumerator{{Name: "red"}}},
	}

	view := newFakeView(point, locked, shape, owned, skipped, pending, color)
	view.verdicts["geo::Gone"] = model.NewSkipped("incomplete type")
	view.verdicts["geo::Later"] = model.NewDeferred("geo::Other")
	mapper := NewTypeMapper("")

	constChar := fundamental("char")
	constChar.Const = true
	enumType := &model.TypeDescriptor{Kind: model.EnumType, Name: "geo::Color", DeclID: "geo::Color"}

	tests := []struct {
		name     string
		typ      *model.TypeDescriptor
		pos      core.Position
		status   core.MapStatus
		refs     []string
		valueRef string
		headers  []string
		policy   string
		reason   string
	}{
		{name: "int", typ: fundamental("int"), pos: core.PosParam, status: core.Representable},
		{name: "void result", typ: fundamental("void"), pos: core.PosReturn, status: core.Representable},
		{name: "void parameter", typ: fundamental("void"), pos: core.PosParam, status: core.Unrepresentable, reason: "parameter position"},
		{name: "unknown fundamental", typ: fundamental("__int128"), pos: core.PosParam, status: core.Unrepresentable, reason: "no caster"},
		{name: "string", typ: recordType("std::string"), pos: core.PosParam, status: core.Representable},
		{name: "enum", typ: enumType, pos: core.PosParam, status: core.Representable, refs: []string{"geo::Color"}},
		{name: "record by value", typ: recordType("geo::Point"), pos: core.PosParam, status: core.Representable,
			refs: []string{"geo::Point"}, valueRef: "geo::Point"},
		{name: "record by const reference", typ: constRef(recordType("geo::Point")), pos: core.PosParam, status: core.Representable,
			refs: []string{"geo::Point"}},
		{name: "non-copyable by value", typ: recordType("geo::Lock"), pos: core.PosParam, status: core.Unrepresentable,
			reason: "no public copy or move constructor"},
		{name: "non-copyable by reference", typ: ref(recordType("geo::Lock")), pos: core.PosParam, status: core.Representable,
			refs: []string{"geo::Lock"}},
		{name: "non-copyable field", typ: recordType("geo::Lock"), pos: core.PosField, status: core.Representable,
			refs: []string{"geo::Lock"}, valueRef: "geo::Lock"},
		{name: "abstract by value", typ: recordType("geo::Shape"), pos: core.PosReturn, status: core.Unrepresentable, reason: "abstract class"},
		{name: "skipped record", typ: recordType("geo::Gone"), pos: core.PosParam, status: core.Unrepresentable, reason: "incomplete type"},
		{name: "unknown record", typ: recordType("geo::Nowhere"), pos: core.PosParam, status: core.Unrepresentable, reason: "not a binding candidate"},
		{name: "const char pointer", typ: ptr(constChar), pos: core.PosParam, status: core.Representable},
		{name: "int pointer", typ: ptr(fundamental("int")), pos: core.PosParam, status: core.Unrepresentable, reason: "pointer to fundamental"},
		{name: "void pointer", typ: ptr(fundamental("void")), pos: core.PosParam, status: core.Unrepresentable, reason: "untyped pointer"},
		{name: "pointer depth", typ: ptr(ptr(recordType("geo::Point"))), pos: core.PosParam, status: core.Unrepresentable, reason: "pointer depth"},
		{name: "rvalue reference", typ: &model.TypeDescriptor{Kind: model.RValueRefType, Pointee: recordType("geo::Point")},
			pos: core.PosParam, status: core.Unrepresentable, reason: "rvalue reference"},
		{name: "array", typ: &model.TypeDescriptor{Kind: model.ArrayType, Size: 4, Pointee: fundamental("int")},
			pos: core.PosField, status: core.Unrepresentable, reason: "C array"},
		{name: "volatile", typ: &model.TypeDescriptor{Kind: model.FundamentalType, Name: "int", Volatile: true},
			pos: core.PosParam, status: core.Unrepresentable, reason: "volatile"},
		{name: "dependent", typ: &model.TypeDescriptor{Kind: model.DependentType, Name: "T"},
			pos: core.PosParam, status: core.Unrepresentable, reason: "dependent type"},
		{name: "vector of records", typ: constRef(spec("std::vector", recordType("geo::Point"))), pos: core.PosParam,
			status: core.Representable, refs: []string{"geo::Point"}, headers: []string{HeaderSTL}},
		{name: "vector of unknown", typ: spec("std::vector", recordType("geo::Nowhere")), pos: core.PosParam,
			status: core.Unrepresentable, reason: "not a binding candidate"},
		{name: "map", typ: spec("std::map", recordType("std::string"), fundamental("double")), pos: core.PosReturn,
			status: core.Representable, headers: []string{HeaderSTL}},
		{name: "complex", typ: spec("std::complex", fundamental("double")), pos: core.PosParam,
			status: core.Representable, headers: []string{HeaderComplex}},
		{name: "complex of int", typ: spec("std::complex", fundamental("int")), pos: core.PosParam,
			status: core.Unrepresentable, reason: "floating-point"},
		{name: "function pointer", typ: ptr(&model.TypeDescriptor{Kind: model.FunctionType, Result: fundamental("void"),
			Params: []*model.TypeDescriptor{fundamental("int")}}), pos: core.PosParam,
			status: core.Representable, headers: []string{HeaderFunctional}},
		{name: "std::function with unknown argument", typ: spec("std::function", &model.TypeDescriptor{Kind: model.FunctionType,
			Result: fundamental("void"), Params: []*model.TypeDescriptor{recordType("geo::Nowhere")}}), pos: core.PosParam,
			status: core.Unrepresentable, reason: "not a binding candidate"},
		{name: "shared_ptr", typ: spec(HolderShared, recordType("geo::Shape")), pos: core.PosParam,
			status: core.Representable, refs: []string{"geo::Shape"}},
		{name: "shared_ptr holder mismatch", typ: spec(HolderShared, recordType("geo::Owned")), pos: core.PosReturn,
			status: core.Unrepresentable, reason: "holder mismatch"},
		{name: "unique_ptr result", typ: spec(HolderUnique, recordType("geo::Owned")), pos: core.PosReturn,
			status: core.Representable, refs: []string{"geo::Owned"}},
		{name: "unique_ptr parameter", typ: spec(HolderUnique, recordType("geo::Owned")), pos: core.PosParam,
			status: core.Unrepresentable, reason: "only accepted as a return value"},
		{name: "pending record", typ: constRef(recordType("geo::Later")), pos: core.PosParam, status: core.MapPending},
		{name: "reference result policy", typ: ref(recordType("geo::Point")), pos: core.PosReturn,
			status: core.Representable, refs: []string{"geo::Point"}, policy: PolicyReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mapper.Map(tt.typ, tt.pos, view)
			assert.Equal(t, tt.status, m.Status, m.Reason)
			assert.Equal(t, tt.typ.Spell(), m.Spelling)
			if tt.status == core.Representable {
				assert.Equal(t, tt.refs, m.Refs)
				assert.Equal(t, tt.valueRef, m.ValueRef)
				assert.Equal(t, tt.headers, m.Headers)
				assert.Equal(t, tt.policy, m.Policy)
			} else {
				assert.Empty(t, m.Refs)
			}
			if tt.reason != "" {
				assert.Contains(t, m.Reason, tt.reason)
			}
		})
	}
}

func TestTypeMapper_PendingBlocker(t *testing.T) {
	later := value("geo::Later")
	view := newFakeView(later)
	view.verdicts["geo::Later"] = model.Verdict{State: model.Pending}

	m := NewTypeMapper(HolderShared).Map(recordType("geo::Later"), core.PosParam, view)
	assert.Equal(t, core.MapPending, m.Status)
	assert.Equal(t, "geo::Later", m.Blocker)
}

func TestTypeMapper_InstantiationArgument(t *testing.T) {
	lock := newRecord("geo::Lock", &model.RecordDecl{Complete: true})
	view := newFakeView(lock)
	mapper := NewTypeMapper(HolderShared)

	m := mapper.MapInstantiationArg(recordType("geo::Lock"), view)
	assert.True(t, m.OK(), m.Reason)
	assert.Equal(t, []string{"geo::Lock"}, m.Refs)

	m = mapper.MapInstantiationArg(&model.TypeDescriptor{Kind: model.ValueArg, Name: "3"}, view)
	assert.True(t, m.OK())

	m = mapper.Map(&model.TypeDescriptor{Kind: model.ValueArg, Name: "3"}, core.PosParam, view)
	assert.False(t, m.OK())
}
