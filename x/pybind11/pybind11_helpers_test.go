package pybind11

import (
	"context"
	"strings"
	"testing"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
	"github.com/stretchr/testify/require"
)

// --- 类型构造 ---

func fundamental(name string) *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.FundamentalType, Name: name}
}

func recordType(id string) *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.RecordType, Name: id, DeclID: id}
}

func constRef(t *model.TypeDescriptor) *model.TypeDescriptor {
	c := *t
	c.Const = true
	return &model.TypeDescriptor{Kind: model.LValueRefType, Pointee: &c}
}

func ref(t *model.TypeDescriptor) *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.LValueRefType, Pointee: t}
}

func ptr(t *model.TypeDescriptor) *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.PointerType, Pointee: t}
}

func spec(name string, args ...*model.TypeDescriptor) *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.SpecializationType, Name: name, Args: args}
}

// --- 声明构造 ---

func nsScopes(qn string) []model.Scope {
	parts := strings.Split(qn, "::")
	var scopes []model.Scope
	for i := 0; i < len(parts)-1; i++ {
		scopes = append(scopes, model.Scope{
			Kind:          model.NamespaceScope,
			Name:          parts[i],
			QualifiedName: strings.Join(parts[:i+1], "::"),
		})
	}
	return scopes
}

func shortName(qn string) string {
	return qn[strings.LastIndex(qn, ":")+1:]
}

func newRecord(qn string, r *model.RecordDecl) *model.Declaration {
	if r.Tag == "" {
		r.Tag = model.ClassTag
	}
	return &model.Declaration{
		ID:            qn,
		Kind:          model.Record,
		Name:          shortName(qn),
		QualifiedName: qn,
		Scopes:        nsScopes(qn),
		Header:        "geo/shapes.hpp",
		Record:        r,
	}
}

// value 可拷贝、可移动的完整 struct
func value(qn string, fields ...*model.FieldDecl) *model.Declaration {
	return newRecord(qn, &model.RecordDecl{
		Tag:               model.StructTag,
		Complete:          true,
		CopyConstructible: true,
		MoveConstructible: true,
		Fields:            fields,
	})
}

func newFunction(qn string, result *model.TypeDescriptor, params ...*model.Param) *model.Declaration {
	d := &model.Declaration{
		Kind:          model.Function,
		Name:          shortName(qn),
		QualifiedName: qn,
		Scopes:        nsScopes(qn),
		Header:        "geo/api.hpp",
		Function:      &model.FunctionDecl{Params: params, Result: result},
	}
	d.ID = d.Identity()
	return d
}

func param(name string, t *model.TypeDescriptor) *model.Param {
	return &model.Param{Name: name, Type: t}
}

func field(name string, t *model.TypeDescriptor) *model.FieldDecl {
	return &model.FieldDecl{Name: name, Access: model.Public, Type: t}
}

func publicBase(id string) *model.BaseSpec {
	return &model.BaseSpec{Type: recordType(id), Access: model.Public}
}

// --- 流水线 ---

var testOptions = core.Options{Module: "example", Holder: HolderShared}

// resolve 分类并命名全部声明
func resolve(t *testing.T, decls ...*model.Declaration) *core.BindingContext {
	t.Helper()
	bc := core.NewBindingContext(nil)
	for _, d := range decls {
		bc.AddDeclaration(d)
	}
	require.NoError(t, bc.Resolve(context.Background(), NewClassifier(testOptions), core.ResolveOptions{Workers: 2}))
	require.NoError(t, core.NewBinder(NewPybind11Resolver(), nil).BindNames(bc))
	return bc
}

func entryOf(t *testing.T, bc *core.BindingContext, id string) *core.Entry {
	t.Helper()
	e, ok := bc.Entry(id)
	require.True(t, ok, "missing %s", id)
	return e
}

// fakeView 手工设定结论的视图
type fakeView struct {
	decls    map[string]*model.Declaration
	verdicts map[string]model.Verdict
	hints    map[string]string
	final    bool
}

func newFakeView(decls ...*model.Declaration) *fakeView {
	v := &fakeView{
		decls:    map[string]*model.Declaration{},
		verdicts: map[string]model.Verdict{},
		hints:    map[string]string{},
		final:    true,
	}
	for _, d := range decls {
		v.decls[d.ID] = d
		v.verdicts[d.ID] = model.NewBindable()
	}
	return v
}

func (v *fakeView) Declaration(id string) (*model.Declaration, bool) {
	d, ok := v.decls[id]
	return d, ok
}

func (v *fakeView) Verdict(id string) (model.Verdict, bool) {
	s, ok := v.verdicts[id]
	return s, ok
}

func (v *fakeView) NamingHint(id string) string { return v.hints[id] }
func (v *fakeView) Final() bool                 { return v.final }
