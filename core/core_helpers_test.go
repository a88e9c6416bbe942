package core

import (
	"fmt"
	"strings"

	"github.com/CodMac/cppbind/model"
)

// --- 测试替身 ---

// stubClassifier 按预设的依赖给出结论: 依赖可绑定则可绑定，依赖被跳过则跳过，否则等待
type stubClassifier struct {
	deps   map[string]string
	skip   map[string]bool
	panics map[string]bool
}

func (c *stubClassifier) Classify(decl *model.Declaration, view View) *Classification {
	if c.panics[decl.ID] {
		panic("boom")
	}
	if c.skip[decl.ID] {
		return Skip("skipped by stub")
	}
	dep := c.deps[decl.ID]
	if dep != "" {
		v, ok := view.Verdict(dep)
		switch {
		case !ok || v.State == model.Skipped:
			return Skip(fmt.Sprintf("dependency %s is not bound", dep))
		case v.State != model.Bindable:
			return Defer(dep)
		}
	}
	res := &Classification{Verdict: model.NewBindable()}
	if view.Final() {
		res.Fragment = &model.Fragment{DeclID: decl.ID, Kind: decl.Kind, PyName: decl.Name}
		if dep != "" {
			res.Edges = []*model.DependencyEdge{model.NewEdge(decl.ID, dep, model.ParameterEdge)}
		}
	}
	return res
}

// stubResolver 以 "_" 连接作用域
type stubResolver struct{}

func (stubResolver) BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" {
		return name
	}
	return parentQN + "::" + name
}

func (stubResolver) BindingName(decl *model.Declaration) string {
	return strings.ReplaceAll(decl.Spelling(), "::", "_")
}

func (r stubResolver) SignatureName(decl *model.Declaration) string {
	sig := strings.Map(func(c rune) rune {
		if c >= 'a' && c <= 'z' {
			return c
		}
		return -1
	}, model.Signature(decl.Function.Params))
	return r.BindingName(decl) + "_" + sig
}

func (stubResolver) HintName(decl *model.Declaration, hint *model.Declaration) string {
	return strings.ReplaceAll(hint.QualifiedName, "::", "_")
}

func (stubResolver) EntryPoint(module string, index int) string {
	return fmt.Sprintf("%s_%d", module, index)
}

func (stubResolver) ModuleName(module, namespace string) string {
	return module + "." + namespace
}

// mapView 直接由 map 构造的只读视图
type mapView struct {
	decls    map[string]*model.Declaration
	verdicts map[string]model.Verdict
	final    bool
}

func newMapView(decls ...*model.Declaration) *mapView {
	v := &mapView{decls: map[string]*model.Declaration{}, verdicts: map[string]model.Verdict{}, final: true}
	for _, d := range decls {
		v.decls[d.ID] = d
		v.verdicts[d.ID] = model.NewBindable()
	}
	return v
}

func (v *mapView) Declaration(id string) (*model.Declaration, bool) {
	d, ok := v.decls[id]
	return d, ok
}

func (v *mapView) Verdict(id string) (model.Verdict, bool) {
	s, ok := v.verdicts[id]
	return s, ok
}

func (v *mapView) NamingHint(string) string { return "" }
func (v *mapView) Final() bool              { return v.final }

// --- 声明构造 ---

func intType() *model.TypeDescriptor {
	return &model.TypeDescriptor{Kind: model.FundamentalType, Name: "int"}
}

func variable(qn string) *model.Declaration {
	return &model.Declaration{
		ID:            qn,
		Kind:          model.Variable,
		Name:          qn[strings.LastIndex(qn, ":")+1:],
		QualifiedName: qn,
		Variable:      &model.VariableDecl{Type: intType()},
	}
}

func function(qn string, params ...string) *model.Declaration {
	fn := &model.FunctionDecl{Result: intType()}
	for _, p := range params {
		fn.Params = append(fn.Params, &model.Param{Type: &model.TypeDescriptor{Kind: model.FundamentalType, Name: p}})
	}
	d := &model.Declaration{Kind: model.Function, Name: qn, QualifiedName: qn, Function: fn}
	d.ID = d.Identity()
	return d
}

func classRecord(qn string, bases ...*model.BaseSpec) *model.Declaration {
	return &model.Declaration{
		ID:            qn,
		Kind:          model.Record,
		Name:          qn,
		QualifiedName: qn,
		Record:        &model.RecordDecl{Tag: model.ClassTag, Complete: true, Bases: bases},
	}
}

func base(id string, access model.Access, virtual bool) *model.BaseSpec {
	return &model.BaseSpec{
		Type:    &model.TypeDescriptor{Kind: model.RecordType, Name: id, DeclID: id},
		Access:  access,
		Virtual: virtual,
	}
}
