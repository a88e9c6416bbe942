package pybind11

import (
	"fmt"
	"sort"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
)

// TypeMapper pybind11 的类型可表示性判断
type TypeMapper struct {
	holder string // 默认 holder 模板
}

func NewTypeMapper(holder string) *TypeMapper {
	if holder == "" {
		holder = HolderShared
	}
	return &TypeMapper{holder: holder}
}

// walkCtx 递归时的位置信息
type walkCtx struct {
	pos       core.Position
	indirect  bool // 位于指针/引用之下，不需要拷贝/移动构造
	top       bool // 是否为最外层类型
	allowVoid bool
}

type mapState struct {
	view    core.View
	mapping *core.Mapping
	refs    map[string]bool
	headers map[string]bool
}

func (m *TypeMapper) Map(t *model.TypeDescriptor, pos core.Position, view core.View) *core.Mapping {
	return m.mapWith(t, view, walkCtx{pos: pos, top: true, allowVoid: pos == core.PosReturn})
}

// MapInstantiationArg 用户模板实例的实参只需可表示，不要求可拷贝或可移动
func (m *TypeMapper) MapInstantiationArg(t *model.TypeDescriptor, view core.View) *core.Mapping {
	return m.mapWith(t, view, walkCtx{pos: core.PosTemplateArg, indirect: true})
}

func (m *TypeMapper) mapWith(t *model.TypeDescriptor, view core.View, c walkCtx) *core.Mapping {
	st := &mapState{
		view:    view,
		mapping: &core.Mapping{Spelling: t.Spell(), Status: core.Representable},
		refs:    make(map[string]bool),
		headers: make(map[string]bool),
	}
	if m.walk(st, t, c) {
		st.mapping.Policy = m.policyFor(t, c.pos, view)
	} else {
		st.mapping.Refs = nil
		st.mapping.ValueRef = ""
	}
	for h := range st.headers {
		st.mapping.Headers = append(st.mapping.Headers, h)
	}
	sort.Strings(st.mapping.Headers)
	return st.mapping
}

func (st *mapState) fail(format string, args ...any) bool {
	st.mapping.Status = core.Unrepresentable
	st.mapping.Reason = fmt.Sprintf(format, args...)
	return false
}

func (st *mapState) pending(blocker string) bool {
	st.mapping.Status = core.MapPending
	st.mapping.Blocker = blocker
	return false
}

func (st *mapState) ref(id string) {
	if !st.refs[id] {
		st.refs[id] = true
		st.mapping.Refs = append(st.mapping.Refs, id)
	}
}

// walk 按优先级应用映射规则，第一个失败即停止
func (m *TypeMapper) walk(st *mapState, t *model.TypeDescriptor, c walkCtx) bool {
	if t == nil {
		return st.fail("missing type information")
	}
	if t.Volatile {
		return st.fail("volatile-qualified type %q", t.Spell())
	}

	switch t.Kind {
	case model.FundamentalType:
		if !FundamentalTable[t.Name] {
			return st.fail("fundamental type %q has no caster", t.Spell())
		}
		if t.Name == "void" && !c.allowVoid {
			return st.fail("%q in %s position", t.Spell(), c.pos)
		}
		return true

	case model.EnumType, model.RecordType:
		if t.Kind == model.RecordType && StringTable[t.Name] {
			return true
		}
		return m.walkDecl(st, t, c)

	case model.SpecializationType:
		if entry, ok := TemplateTable[t.Name]; ok {
			return m.walkTemplate(st, t, entry.Kind, entry.Header, c)
		}
		return m.walkDecl(st, t, c)

	case model.PointerType, model.LValueRefType:
		if t.Depth() > 1 {
			return st.fail("pointer depth > 1 in %q", t.Spell())
		}
		p := t.Pointee
		if p == nil {
			return st.fail("missing pointee in %q", t.Spell())
		}
		if p.Kind == model.FunctionType {
			return m.walkFunction(st, p)
		}
		if t.Kind == model.PointerType && p.Kind == model.FundamentalType {
			if p.Const && charTypes[p.Name] {
				return true
			}
			if p.Name == "void" {
				return st.fail("untyped pointer %q", t.Spell())
			}
			return st.fail("pointer to fundamental type %q", t.Spell())
		}
		return m.walk(st, p, walkCtx{pos: c.pos, indirect: true})

	case model.FunctionType:
		return m.walkFunction(st, t)

	case model.ValueArg:
		if c.pos != core.PosTemplateArg {
			return st.fail("non-type template argument %q outside a template", t.Spell())
		}
		return true

	case model.RValueRefType:
		return st.fail("rvalue reference %q", t.Spell())
	case model.ArrayType:
		return st.fail("C array %q", t.Spell())
	case model.MemberPointerType:
		return st.fail("member pointer %q", t.Spell())
	case model.DependentType:
		return st.fail("dependent type %q", t.Spell())
	case model.IncompleteType:
		return st.fail("incomplete type %q", t.Spell())
	default:
		return st.fail("unknown type kind %s for %q", t.Kind, t.Spell())
	}
}

// walkDecl record / enum / 用户模板实例: 必须是可绑定声明
func (m *TypeMapper) walkDecl(st *mapState, t *model.TypeDescriptor, c walkCtx) bool {
	if t.DeclID == "" {
		return st.fail("%q is not a binding candidate", t.Spell())
	}
	decl, ok := st.view.Declaration(t.DeclID)
	if !ok {
		return st.fail("%q is not a binding candidate", t.Spell())
	}
	v, _ := st.view.Verdict(t.DeclID)
	switch v.State {
	case model.Skipped:
		return st.fail("%q is not bound: %s", t.Spell(), v.Reason)
	case model.Bindable:
	default:
		return st.pending(t.DeclID)
	}

	switch decl.Kind {
	case model.Enum:
	case model.Record:
		if !c.indirect && !m.byValueOK(decl.Record, c.pos) {
			if decl.Record.Abstract {
				return st.fail("abstract class %q used by value", t.Spell())
			}
			return st.fail("%q used by value has no public copy or move constructor", t.Spell())
		}
		if !c.indirect && c.top {
			st.mapping.ValueRef = t.DeclID
		}
	default:
		return st.fail("%q does not name a class or enum", t.Spell())
	}
	st.ref(t.DeclID)
	return true
}

// byValueOK 按值使用时的构造要求: 参数需要拷贝，返回值与容器元素拷贝或移动皆可
func (m *TypeMapper) byValueOK(r *model.RecordDecl, pos core.Position) bool {
	switch pos {
	case core.PosField, core.PosVariable, core.PosAliasTarget, core.PosBase:
		return true
	case core.PosParam:
		return r.CopyConstructible && !r.Abstract
	default:
		return (r.CopyConstructible || r.MoveConstructible) && !r.Abstract
	}
}

// walkTemplate stl caster 表中的模板: 每个实参都必须可表示
func (m *TypeMapper) walkTemplate(st *mapState, t *model.TypeDescriptor, kind ContainerKind, header string, c walkCtx) bool {
	if header != "" {
		st.headers[header] = true
	}
	arg := func(i int) bool {
		if i >= len(t.Args) {
			return st.fail("%q is missing template arguments", t.Spell())
		}
		return m.walk(st, t.Args[i], walkCtx{pos: core.PosTemplateArg})
	}

	switch kind {
	case Sequence, Optional:
		return arg(0)
	case FixedArray:
		return arg(0) && arg(1)
	case Mapping:
		return arg(0) && arg(1)
	case Product:
		if len(t.Args) == 0 {
			return st.fail("%q is missing template arguments", t.Spell())
		}
		for i := range t.Args {
			if !arg(i) {
				return false
			}
		}
		return true
	case Complex:
		if len(t.Args) == 0 || t.Args[0].Kind != model.FundamentalType ||
			(t.Args[0].Name != "float" && t.Args[0].Name != "double" && t.Args[0].Name != "long double") {
			return st.fail("%q needs a floating-point argument", t.Spell())
		}
		return true
	case String:
		if len(t.Args) == 0 || t.Args[0].Kind != model.FundamentalType || !charTypes[t.Args[0].Name] {
			return st.fail("%q needs a character argument", t.Spell())
		}
		return true
	case Callable:
		if len(t.Args) == 0 || t.Args[0].Kind != model.FunctionType {
			return st.fail("%q needs a function signature", t.Spell())
		}
		return m.walkFunction(st, t.Args[0])
	case SharedOwner, UniqueOwner:
		return m.walkOwner(st, t, kind, c)
	default:
		return st.fail("%q has no caster", t.Spell())
	}
}

// walkOwner std::shared_ptr<T> / std::unique_ptr<T>: T 的 holder 必须一致，unique_ptr 只能作为返回值
func (m *TypeMapper) walkOwner(st *mapState, t *model.TypeDescriptor, kind ContainerKind, c walkCtx) bool {
	if kind == UniqueOwner && (c.pos != core.PosReturn || !c.top) {
		return st.fail("%q is only accepted as a return value", t.Spell())
	}
	if len(t.Args) == 0 {
		return st.fail("%q is missing template arguments", t.Spell())
	}
	held := t.Args[0]
	if held.Const || held.Volatile || held.DeclID == "" ||
		(held.Kind != model.RecordType && held.Kind != model.SpecializationType) {
		return st.fail("%q does not own a bound class", t.Spell())
	}
	if !m.walkDecl(st, held, walkCtx{pos: c.pos, indirect: true}) {
		return false
	}
	decl, _ := st.view.Declaration(held.DeclID)
	if decl.Record == nil {
		return st.fail("%q does not own a bound class", t.Spell())
	}
	if holder := m.HolderOf(decl.Record); holder != t.Name {
		return st.fail("holder mismatch in %q: %q is held by %s", t.Spell(), held.Spell(), holder)
	}
	return true
}

// walkFunction 函数类型 / 函数指针 / std::function: 参数与返回值都必须可表示
func (m *TypeMapper) walkFunction(st *mapState, fn *model.TypeDescriptor) bool {
	st.headers[HeaderFunctional] = true
	if fn.Variadic {
		return st.fail("C variadic function type %q", fn.Spell())
	}
	if fn.Result != nil && !m.walk(st, fn.Result, walkCtx{pos: core.PosReturn, allowVoid: true}) {
		return false
	}
	for _, p := range fn.Params {
		if !m.walk(st, p, walkCtx{pos: core.PosParam}) {
			return false
		}
	}
	return true
}

// HolderOf record 的 holder 模板: 前端覆盖优先，否则为默认 holder
func (m *TypeMapper) HolderOf(r *model.RecordDecl) string {
	if r.Holder != "" {
		return r.Holder
	}
	return m.holder
}

// policyFor 返回已注册类的指针/引用时不转移所有权
func (m *TypeMapper) policyFor(t *model.TypeDescriptor, pos core.Position, view core.View) string {
	if pos != core.PosReturn || (t.Kind != model.PointerType && t.Kind != model.LValueRefType) {
		return ""
	}
	p := t.Pointee
	if p == nil || p.DeclID == "" {
		return ""
	}
	if _, ok := view.Declaration(p.DeclID); !ok {
		return ""
	}
	return PolicyReference
}
