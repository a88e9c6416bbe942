package pybind11

import (
	"fmt"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
)

// --- Record ---

func (c *Classifier) classifyRecord(decl *model.Declaration, view core.View) *core.Classification {
	r := decl.Record
	switch {
	case decl.Name == "":
		return core.Skip("anonymous record")
	case r.Tag == model.UnionTag:
		return core.Skip("union")
	case r.Dependent:
		return core.Skip("uninstantiated class template")
	case !r.Complete:
		return core.Skip("incomplete type")
	case !decl.Access.IsPublic():
		return core.Skip("non-public nested record")
	}
	if blocked := c.checkEnclosing(decl, view); blocked != nil {
		return blocked
	}

	var argRefs []string
	if decl.Instantiation != nil {
		for _, arg := range decl.Instantiation.Args {
			m := c.mapper.MapInstantiationArg(arg, view)
			switch m.Status {
			case core.MapPending:
				return core.Defer(m.Blocker)
			case core.Unrepresentable:
				return core.Skip(fmt.Sprintf("template argument %q is unrepresentable: %s", m.Spelling, m.Reason))
			}
			argRefs = append(argRefs, m.Refs...)
		}
	}

	nodelete := false
	if d := r.Destructor; d != nil && (d.Deleted || !d.Access.IsPublic()) {
		if !r.Abstract {
			if d.Deleted {
				return core.Skip("destructor is deleted")
			}
			return core.Skip("destructor is not public")
		}
		nodelete = true
	}
	if !view.Final() {
		return &core.Classification{Verdict: model.NewBindable()}
	}

	rb := &recordBuilder{c: c, decl: decl, view: view, spelling: decl.Spelling()}
	return rb.build(nodelete, argRefs)
}

// recordBuilder 最终轮中组装一个 record 的注册片段
type recordBuilder struct {
	c        *Classifier
	decl     *model.Declaration
	view     core.View
	spelling string

	edges   []*model.DependencyEdge
	skips   []*model.Diagnostic
	headers []string
}

func (rb *recordBuilder) build(nodelete bool, argRefs []string) *core.Classification {
	r := rb.decl.Record
	frag := rb.c.newFragment(rb.decl, rb.c.pyName(rb.decl, rb.view))
	rf := &model.RecordFragment{Type: rb.spelling}
	if nodelete {
		rf.Holder = fmt.Sprintf("%s<%s, %s>", HolderUnique, rb.spelling, NoDeleteHolder)
	} else {
		rf.Holder = fmt.Sprintf("%s<%s>", rb.c.mapper.HolderOf(r), rb.spelling)
	}

	rb.edges = append(rb.edges, enclosingEdges(rb.decl)...)
	for _, ref := range argRefs {
		rb.edges = append(rb.edges, model.NewEdge(rb.decl.ID, ref, model.TemplateArgEdge))
	}

	links, diags := rb.c.linker.AccessibleBases(rb.decl, rb.view)
	rb.skips = append(rb.skips, diags...)
	for _, link := range links {
		rf.Bases = append(rf.Bases, link.Spelling)
		rb.edges = append(rb.edges, model.NewEdge(rb.decl.ID, link.DeclID, model.BaseEdge))
	}

	if !nodelete {
		rf.Trampoline = rb.trampoline()
	}
	if !r.Abstract || rf.Trampoline != nil {
		rf.Constructors = rb.constructors(rf.Trampoline != nil && r.Abstract)
	}
	rf.Methods = rb.methods()
	rf.Fields = rb.fields()

	frag.Record = rf
	frag.Headers = rb.headers
	return &core.Classification{
		Verdict:     model.NewBindable(),
		Fragment:    frag,
		Edges:       rb.edges,
		MemberSkips: rb.skips,
	}
}

func (rb *recordBuilder) skip(kind model.DeclKind, member, reason string) {
	rb.skips = append(rb.skips, &model.Diagnostic{
		QualifiedName: rb.spelling + "::" + member,
		Kind:          kind,
		Reason:        reason,
		Location:      rb.decl.Location,
	})
}

// signatureOf 映射成员签名，失败时返回原因
func (rb *recordBuilder) signatureOf(params []*model.Param, result *model.TypeDescriptor) (*signature, string) {
	sig, blocked := rb.c.mapSignature(params, result, rb.view)
	if blocked == nil {
		return sig, ""
	}
	if blocked.Verdict.State == model.Deferred {
		return nil, fmt.Sprintf("unresolved dependency %q", blocked.Verdict.Blocker)
	}
	return nil, blocked.Verdict.Reason
}

func (rb *recordBuilder) use(sig *signature) {
	rb.headers = mergeHeaders(rb.headers, sig.headers())
	rb.edges = append(rb.edges, sig.edges(rb.decl.ID)...)
}

// --- 构造函数 ---

func (rb *recordBuilder) constructors(aliasOnly bool) []*model.Callable {
	var groups [][]*model.Callable
	for _, m := range rb.decl.Record.Constructors {
		if !m.Access.IsPublic() || rb.isMoveConstructor(m) {
			continue
		}
		member := rb.decl.Name + model.Signature(m.Params)
		if reason := unsupportedMember(m); reason != "" {
			if !m.Implicit {
				rb.skip(model.Constructor, member, reason)
			}
			continue
		}
		sig, reason := rb.signatureOf(m.Params, nil)
		if sig == nil {
			if !m.Implicit {
				rb.skip(model.Constructor, member, reason)
			}
			continue
		}
		rb.use(sig)

		var group []*model.Callable
		for _, arity := range arities(m.Params) {
			group = append(group, &model.Callable{
				PyName: "__init__",
				Target: rb.spelling,
				Params: arguments(m.Params),
				Arity:  arity,
				Alias:  aliasOnly,
				Doc:    fmt.Sprintf("C++: %s::%s --> void", rb.spelling, member),
			})
		}
		groups = append(groups, group)
	}
	return flattenCollapsed(groups)
}

func (rb *recordBuilder) isMoveConstructor(m *model.Method) bool {
	if len(m.Params) != 1 || m.Params[0].Type == nil {
		return false
	}
	t := m.Params[0].Type
	return t.Kind == model.RValueRefType && t.Pointee != nil && t.Pointee.DeclID == rb.decl.ID
}

// --- 成员函数 ---

func (rb *recordBuilder) methods() []*model.Callable {
	var names []string
	byName := make(map[string][][]*model.Callable)
	members := make(map[string][]string)
	for _, m := range rb.decl.Record.Methods {
		if !m.Access.IsPublic() {
			continue
		}
		member := m.Name + model.Signature(m.Params)
		pyName, reason := methodPyName(m)
		if reason == "" {
			reason = unsupportedMember(m)
		}
		if reason != "" {
			if !m.Implicit {
				rb.skip(model.MethodMember, member, reason)
			}
			continue
		}
		sig, reason := rb.signatureOf(m.Params, m.Result)
		if sig == nil {
			if !m.Implicit {
				rb.skip(model.MethodMember, member, reason)
			}
			continue
		}
		rb.use(sig)

		policy := sig.result.Policy
		if policy != "" && !m.Static {
			policy = PolicyReferenceInternal
		}
		var group []*model.Callable
		for _, arity := range arities(m.Params) {
			group = append(group, &model.Callable{
				PyName:  pyName,
				Target:  rb.spelling + "::" + m.Name,
				Params:  arguments(m.Params),
				Arity:   arity,
				Result:  sig.result.Spelling,
				Pointer: rb.methodPointer(m),
				Static:  m.Static,
				Const:   m.Const,
				Policy:  policy,
				Doc:     fmt.Sprintf("C++: %s::%s%s --> %s", rb.spelling, member, qualifiers(m), sig.result.Spelling),
			})
		}
		if _, ok := byName[pyName]; !ok {
			names = append(names, pyName)
		}
		byName[pyName] = append(byName[pyName], group)
		members[pyName] = append(members[pyName], member)
	}

	var result []*model.Callable
	for _, name := range names {
		kept, shadowed := core.CollapseOverloads(byName[name])
		for _, i := range shadowed {
			rb.skip(model.MethodMember, members[name][i], "registration shadowed by an overload with the same Python signature")
		}
		for _, group := range kept {
			result = append(result, group...)
		}
	}
	return result
}

// methodPointer 取成员地址时的类型，用于在重载之间消歧
func (rb *recordBuilder) methodPointer(m *model.Method) string {
	fn := &model.TypeDescriptor{Kind: model.FunctionType, Result: resultOrVoid(m.Result), Params: paramTypes(m.Params)}
	if m.Static {
		return (&model.TypeDescriptor{Kind: model.PointerType, Pointee: fn}).Spell()
	}
	ptr := &model.TypeDescriptor{
		Kind:    model.MemberPointerType,
		Class:   &model.TypeDescriptor{Kind: model.RecordType, Name: rb.spelling},
		Pointee: fn,
	}
	return ptr.Spell() + qualifiers(m)
}

func qualifiers(m *model.Method) string {
	q := ""
	if m.Const {
		q += " const"
	}
	if m.RefQualifier != "" {
		q += " " + m.RefQualifier
	}
	return q
}

// methodPyName 运算符映射为 Python 特殊方法
func methodPyName(m *model.Method) (string, string) {
	if m.Operator == "" {
		return PythonName(m.Name), ""
	}
	if m.Static {
		return "", fmt.Sprintf("static operator%s has no Python mapping", m.Operator)
	}
	name, ok := OperatorName(m.Operator, len(m.Params))
	if !ok {
		return "", fmt.Sprintf("operator%s has no Python mapping", m.Operator)
	}
	return name, ""
}

// unsupportedMember 删除、被约束排除、C 可变参数、右值限定的成员不注册
func unsupportedMember(m *model.Method) string {
	switch {
	case m.Deleted:
		return "deleted member function"
	case m.Rejected:
		return "rejected by the front end: constraints not satisfied"
	case m.Variadic:
		return "C variadic member function"
	case m.RefQualifier == "&&":
		return "rvalue ref-qualified member function"
	}
	return ""
}

// --- 数据成员 ---

func (rb *recordBuilder) fields() []*model.Property {
	var props []*model.Property
	for _, f := range rb.decl.Record.Fields {
		if !f.Access.IsPublic() {
			continue
		}
		switch {
		case f.BitField:
			rb.skip(model.Field, f.Name, "bit-field")
			continue
		case f.Type != nil && (f.Type.Kind == model.LValueRefType || f.Type.Kind == model.RValueRefType):
			rb.skip(model.Field, f.Name, fmt.Sprintf("reference member %q", f.Type.Spell()))
			continue
		}
		m := rb.c.mapper.Map(f.Type, core.PosField, rb.view)
		if !m.OK() {
			rb.skip(model.Field, f.Name, fmt.Sprintf("type %q is unrepresentable: %s", m.Spelling, m.Reason))
			continue
		}

		readOnly := f.Type.Const && !f.Mutable
		if m.ValueRef != "" {
			if d, ok := rb.view.Declaration(m.ValueRef); ok && d.Record != nil && !d.Record.CopyConstructible {
				readOnly = true
			}
		}
		for _, ref := range m.Refs {
			kind := model.MemberEdge
			if ref == m.ValueRef && !f.Static {
				kind = model.ValueMemberEdge
			}
			rb.edges = append(rb.edges, model.NewEdge(rb.decl.ID, ref, kind))
		}
		rb.headers = mergeHeaders(rb.headers, m.Headers)
		props = append(props, &model.Property{
			PyName:   PythonName(f.Name),
			Target:   rb.spelling + "::" + f.Name,
			ReadOnly: readOnly,
			Static:   f.Static,
		})
	}
	return props
}

// --- Trampoline ---

// trampoline 多态且非 final 的类生成支持 Python 覆盖的派生类。
// 纯虚函数的签名不可表示时无法生成，抽象类因此没有构造函数。
func (rb *recordBuilder) trampoline() *model.Trampoline {
	r := rb.decl.Record
	if !r.Polymorphic || r.Final {
		return nil
	}

	var overrides []*model.Override
	seen := make(map[string]bool)
	for _, owner := range rb.hierarchy() {
		for _, m := range owner.Record.Methods {
			if !m.Virtual && !m.PureVirtual {
				continue
			}
			key := m.Name + model.Signature(m.Params) + qualifiers(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			if m.Final || m.Deleted || m.Static {
				continue
			}

			override, reason := rb.override(m)
			if override == nil {
				if m.PureVirtual {
					rb.skip(model.MethodMember, m.Name+model.Signature(m.Params),
						"pure virtual function cannot be overridden from Python: "+reason)
					return nil
				}
				continue
			}
			overrides = append(overrides, override)
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	return &model.Trampoline{
		Name:      TrampolinePrefix + Mangle(rb.spelling),
		Base:      rb.spelling,
		Copyable:  r.CopyConstructible,
		Overrides: overrides,
	}
}

func (rb *recordBuilder) override(m *model.Method) (*model.Override, string) {
	if m.Access == model.Private && !m.PureVirtual {
		return nil, "private virtual function"
	}
	if m.Variadic || m.RefQualifier != "" {
		return nil, "unsupported qualifiers"
	}
	pyName, reason := methodPyName(m)
	if reason != "" {
		return nil, reason
	}
	sig, reason := rb.signatureOf(m.Params, m.Result)
	if sig == nil {
		return nil, reason
	}
	rb.use(sig)
	return &model.Override{
		Name:   m.Name,
		PyName: pyName,
		Result: sig.result.Spelling,
		Params: arguments(m.Params),
		Const:  m.Const,
		Pure:   m.PureVirtual,
	}, ""
}

// hierarchy 自身及全部祖先，派生类在前，按基类声明顺序深度优先
func (rb *recordBuilder) hierarchy() []*model.Declaration {
	result := []*model.Declaration{rb.decl}
	visited := map[string]bool{rb.decl.ID: true}
	var stack []*model.BaseSpec
	push := func(r *model.RecordDecl) {
		for i := len(r.Bases) - 1; i >= 0; i-- {
			stack = append(stack, r.Bases[i])
		}
	}
	push(rb.decl.Record)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b.Type == nil || b.Type.DeclID == "" || visited[b.Type.DeclID] {
			continue
		}
		visited[b.Type.DeclID] = true
		d, ok := rb.view.Declaration(b.Type.DeclID)
		if !ok || d.Record == nil {
			continue
		}
		result = append(result, d)
		push(d.Record)
	}
	return result
}

// flattenCollapsed 构造函数之间的擦除签名冲突消解
func flattenCollapsed(groups [][]*model.Callable) []*model.Callable {
	kept, _ := core.CollapseOverloads(groups)
	var result []*model.Callable
	for _, group := range kept {
		result = append(result, group...)
	}
	return result
}
