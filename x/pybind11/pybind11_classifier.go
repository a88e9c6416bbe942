package pybind11

import (
	"fmt"
	"strings"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/model"
)

// Classifier pybind11 的实体分类器，按声明种类穷举分派
type Classifier struct {
	opts   core.Options
	mapper *TypeMapper
	linker *core.Linker
}

func NewClassifier(opts core.Options) core.Classifier {
	return &Classifier{
		opts:   opts,
		mapper: NewTypeMapper(opts.Holder),
		linker: core.NewLinker(),
	}
}

func (c *Classifier) Classify(decl *model.Declaration, view core.View) *core.Classification {
	if !decl.Payload() {
		return core.Skip("invalid front-end data")
	}
	switch decl.Kind {
	case model.Record:
		return c.classifyRecord(decl, view)
	case model.Function:
		return c.classifyFunction(decl, view)
	case model.Enum:
		return c.classifyEnum(decl, view)
	case model.Variable:
		return c.classifyVariable(decl, view)
	case model.Alias:
		return c.classifyAlias(decl, view)
	default:
		return core.Skip(fmt.Sprintf("unsupported declaration kind %s", decl.Kind))
	}
}

// --- Function ---

func (c *Classifier) classifyFunction(decl *model.Declaration, view core.View) *core.Classification {
	fn := decl.Function
	switch {
	case fn.Deleted:
		return core.Skip("deleted function")
	case fn.Rejected:
		return core.Skip("rejected by the front end: constraints not satisfied")
	case fn.Variadic:
		return core.Skip("C variadic function")
	}
	if s := decl.EnclosingScope(); s != nil && s.Kind != model.NamespaceScope {
		return core.Skip("function is not at namespace scope")
	}

	pyName := PythonName(decl.Name)
	if fn.Operator != "" {
		name, ok := OperatorName(fn.Operator, len(fn.Params)-1)
		if !ok {
			return core.Skip(fmt.Sprintf("operator%s has no Python mapping", fn.Operator))
		}
		pyName = name
	}

	sig, blocked := c.mapSignature(fn.Params, fn.Result, view)
	if blocked != nil {
		return blocked
	}
	if !view.Final() {
		return &core.Classification{Verdict: model.NewBindable()}
	}

	frag := c.newFragment(decl, pyName)
	frag.Headers = sig.headers()
	pointer := (&model.TypeDescriptor{
		Kind:    model.PointerType,
		Pointee: &model.TypeDescriptor{Kind: model.FunctionType, Result: resultOrVoid(fn.Result), Params: paramTypes(fn.Params)},
	}).Spell()

	frag.Function = &model.FunctionFragment{}
	for _, arity := range arities(fn.Params) {
		frag.Function.Overloads = append(frag.Function.Overloads, &model.Callable{
			PyName:  pyName,
			Target:  decl.Spelling(),
			Params:  arguments(fn.Params),
			Arity:   arity,
			Result:  sig.result.Spelling,
			Pointer: pointer,
			Static:  true,
			Policy:  sig.result.Policy,
			Doc:     fmt.Sprintf("C++: %s%s --> %s", decl.Spelling(), model.Signature(fn.Params), sig.result.Spelling),
		})
	}

	return &core.Classification{
		Verdict:  model.NewBindable(),
		Fragment: frag,
		Edges:    sig.edges(decl.ID),
	}
}

// signature 参数与返回值的映射结果
type signature struct {
	params []*core.Mapping
	result *core.Mapping
}

// mapSignature 任一类型 pending 时 Deferred，不可表示时 Skipped
func (c *Classifier) mapSignature(params []*model.Param, result *model.TypeDescriptor, view core.View) (*signature, *core.Classification) {
	sig := &signature{}
	for i, p := range params {
		m := c.mapper.Map(p.Type, core.PosParam, view)
		switch m.Status {
		case core.MapPending:
			return nil, core.Defer(m.Blocker)
		case core.Unrepresentable:
			return nil, core.Skip(fmt.Sprintf("parameter %d (%q) has unrepresentable type %q: %s", i+1, p.Name, m.Spelling, m.Reason))
		}
		sig.params = append(sig.params, m)
	}
	m := c.mapper.Map(resultOrVoid(result), core.PosReturn, view)
	switch m.Status {
	case core.MapPending:
		return nil, core.Defer(m.Blocker)
	case core.Unrepresentable:
		return nil, core.Skip(fmt.Sprintf("return type %q is unrepresentable: %s", m.Spelling, m.Reason))
	}
	sig.result = m
	return sig, nil
}

func (s *signature) headers() []string {
	var headers []string
	for _, m := range append(append([]*core.Mapping{}, s.params...), s.result) {
		headers = mergeHeaders(headers, m.Headers)
	}
	return headers
}

func (s *signature) edges(from string) []*model.DependencyEdge {
	var edges []*model.DependencyEdge
	for _, m := range s.params {
		for _, ref := range m.Refs {
			edges = append(edges, model.NewEdge(from, ref, model.ParameterEdge))
		}
	}
	for _, ref := range s.result.Refs {
		edges = append(edges, model.NewEdge(from, ref, model.ReturnEdge))
	}
	return edges
}

// --- Enum ---

func (c *Classifier) classifyEnum(decl *model.Declaration, view core.View) *core.Classification {
	e := decl.Enum
	if decl.Name == "" {
		return core.Skip("anonymous enum")
	}
	if !decl.Access.IsPublic() {
		return core.Skip("not publicly accessible")
	}
	if blocked := c.checkEnclosing(decl, view); blocked != nil {
		return blocked
	}
	if len(e.Enumerators) == 0 {
		return core.Skip("enum has no enumerators")
	}
	if e.Underlying != nil {
		if e.Underlying.Kind != model.FundamentalType {
			return core.Skip(fmt.Sprintf("underlying type %q is not integral", e.Underlying.Spell()))
		}
		m := c.mapper.Map(e.Underlying, core.PosVariable, view)
		if !m.OK() {
			return core.Skip(fmt.Sprintf("underlying type %q is unrepresentable: %s", m.Spelling, m.Reason))
		}
	}
	if !view.Final() {
		return &core.Classification{Verdict: model.NewBindable()}
	}

	frag := c.newFragment(decl, PythonName(decl.Name))
	frag.Enum = &model.EnumFragment{Type: decl.Spelling(), Scoped: e.Scoped}
	for _, v := range e.Enumerators {
		frag.Enum.Values = append(frag.Enum.Values, &model.EnumValue{
			PyName: PythonName(v.Name),
			Target: decl.Spelling() + "::" + v.Name,
		})
	}
	return &core.Classification{Verdict: model.NewBindable(), Fragment: frag, Edges: enclosingEdges(decl)}
}

// --- Variable ---

func (c *Classifier) classifyVariable(decl *model.Declaration, view core.View) *core.Classification {
	if !decl.Access.IsPublic() {
		return core.Skip("not publicly accessible")
	}
	if blocked := c.checkEnclosing(decl, view); blocked != nil {
		return blocked
	}
	m := c.mapper.Map(decl.Variable.Type, core.PosVariable, view)
	switch m.Status {
	case core.MapPending:
		return core.Defer(m.Blocker)
	case core.Unrepresentable:
		return core.Skip(fmt.Sprintf("variable type %q is unrepresentable: %s", m.Spelling, m.Reason))
	}
	if !view.Final() {
		return &core.Classification{Verdict: model.NewBindable()}
	}

	frag := c.newFragment(decl, PythonName(decl.Name))
	frag.Headers = m.Headers
	stripped := decl.Variable.Type.Strip()
	frag.Variable = &model.VariableFragment{
		Target:    decl.QualifiedName,
		Reference: stripped.Kind == model.PointerType || (stripped.DeclID != "" && stripped.Kind != model.EnumType),
	}
	edges := enclosingEdges(decl)
	for _, ref := range m.Refs {
		edges = append(edges, model.NewEdge(decl.ID, ref, model.VariableTypeEdge))
	}
	return &core.Classification{Verdict: model.NewBindable(), Fragment: frag, Edges: edges}
}

// --- Alias ---

func (c *Classifier) classifyAlias(decl *model.Declaration, view core.View) *core.Classification {
	if !decl.Access.IsPublic() {
		return core.Skip("not publicly accessible")
	}
	if blocked := c.checkEnclosing(decl, view); blocked != nil {
		return blocked
	}
	target := decl.Alias.Target
	m := c.mapper.Map(target, core.PosAliasTarget, view)
	switch m.Status {
	case core.MapPending:
		return core.Defer(m.Blocker)
	case core.Unrepresentable:
		return core.Skip(fmt.Sprintf("aliased type %q is unrepresentable: %s", m.Spelling, m.Reason))
	}
	if !view.Final() {
		return &core.Classification{Verdict: model.NewBindable()}
	}

	pyName := PythonName(decl.Name)
	frag := c.newFragment(decl, pyName)
	frag.Alias = &model.AliasFragment{Spelling: m.Spelling}
	edges := enclosingEdges(decl)

	// 只有未加限定的类/枚举才有可引用的 Python 对象
	if target.DeclID != "" && !target.Const && !target.Volatile &&
		(target.Kind == model.RecordType || target.Kind == model.EnumType || target.Kind == model.SpecializationType) {
		if td, ok := view.Declaration(target.DeclID); ok {
			frag.Alias.Target = target.DeclID
			frag.Alias.Hint = view.NamingHint(target.DeclID) == decl.ID ||
				(c.pyName(td, view) == pyName && scopeOf(td) == scopeOf(decl))
			edges = append(edges, model.NewEdge(decl.ID, target.DeclID, model.AliasTargetEdge))
		}
	}
	return &core.Classification{Verdict: model.NewBindable(), Fragment: frag, Edges: edges}
}

// --- 公共 ---

// checkEnclosing 嵌套声明要求外层 record 可绑定，局部声明一律跳过
func (c *Classifier) checkEnclosing(decl *model.Declaration, view core.View) *core.Classification {
	s := decl.EnclosingScope()
	if s == nil {
		return nil
	}
	switch s.Kind {
	case model.FunctionScope:
		return core.Skip("local declaration")
	case model.RecordScope:
		v, ok := view.Verdict(s.DeclID)
		if s.DeclID == "" || !ok {
			return core.Skip(fmt.Sprintf("enclosing record %q is not a binding candidate", s.QualifiedName))
		}
		switch v.State {
		case model.Bindable:
			return nil
		case model.Skipped:
			return core.Skip(fmt.Sprintf("enclosing record %q is not bound", s.QualifiedName))
		default:
			return core.Defer(s.DeclID)
		}
	}
	return nil
}

func enclosingEdges(decl *model.Declaration) []*model.DependencyEdge {
	if parent := decl.EnclosingRecord(); parent != "" {
		return []*model.DependencyEdge{model.NewEdge(decl.ID, parent, model.EnclosingEdge)}
	}
	return nil
}

func scopeOf(decl *model.Declaration) string {
	if s := decl.EnclosingScope(); s != nil {
		return s.QualifiedName
	}
	return ""
}

// newFragment 公共字段: 来源注释、头文件、所在模块与外层 record
func (c *Classifier) newFragment(decl *model.Declaration, pyName string) *model.Fragment {
	return &model.Fragment{
		DeclID:  decl.ID,
		Kind:    decl.Kind,
		Comment: sourceComment(decl),
		Include: includeOf(decl),
		Module:  decl.Namespace(),
		Parent:  decl.EnclosingRecord(),
		PyName:  pyName,
	}
}

// pyName record 的 Python 名称: 命名提示的别名优先，实例化的模板改编实参
func (c *Classifier) pyName(decl *model.Declaration, view core.View) string {
	if hint := view.NamingHint(decl.ID); hint != "" {
		if alias, ok := view.Declaration(hint); ok {
			return PythonName(alias.Name)
		}
	}
	if decl.Instantiation != nil && len(decl.Instantiation.Args) > 0 {
		return Mangle(strings.TrimPrefix(decl.Spelling(), qualifier(decl)))
	}
	return PythonName(decl.Name)
}

// qualifier 限定名中短名称之前的部分 (e.g., "ns::")
func qualifier(decl *model.Declaration) string {
	return strings.TrimSuffix(decl.QualifiedName, decl.Name)
}

func sourceComment(decl *model.Declaration) string {
	comment := decl.ID
	if decl.Location != nil {
		comment += fmt.Sprintf(" file:%s line:%d", decl.Location.FilePath, decl.Location.Line)
	}
	return comment
}

func includeOf(decl *model.Declaration) string {
	if decl.Header != "" {
		return decl.Header
	}
	if decl.Location != nil {
		return decl.Location.FilePath
	}
	return ""
}

// arities 从最小元数到完整元数，最小元数由末尾连续的默认实参决定
func arities(params []*model.Param) []int {
	lowest := len(params)
	for i := len(params) - 1; i >= 0 && params[i].HasDefault(); i-- {
		lowest = i
	}
	result := make([]int, 0, len(params)-lowest+1)
	for a := lowest; a <= len(params); a++ {
		result = append(result, a)
	}
	return result
}

func arguments(params []*model.Param) []*model.Argument {
	args := make([]*model.Argument, 0, len(params))
	for i, p := range params {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("a%d", i)
		}
		args = append(args, &model.Argument{Name: name, Type: p.Type.Spell(), Desc: p.Type})
	}
	return args
}

func paramTypes(params []*model.Param) []*model.TypeDescriptor {
	types := make([]*model.TypeDescriptor, 0, len(params))
	for _, p := range params {
		types = append(types, p.Type)
	}
	return types
}

func resultOrVoid(t *model.TypeDescriptor) *model.TypeDescriptor {
	if t == nil {
		return &model.TypeDescriptor{Kind: model.FundamentalType, Name: "void"}
	}
	return t
}

func mergeHeaders(dst, src []string) []string {
	for _, h := range src {
		found := false
		for _, d := range dst {
			if d == h {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, h)
		}
	}
	return dst
}
