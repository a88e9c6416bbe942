package pybind11

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
)

const moduleGetterTypedef = "typedef std::function< pybind11::module & (std::string const &namespace_) > " + ModuleGetter + ";"

// Renderer 把注册片段渲染为 pybind11 源码
type Renderer struct {
	opts core.Options
}

func NewRenderer(opts core.Options) core.Renderer {
	return &Renderer{opts: opts}
}

func (r *Renderer) UnitFileName(module string, index int) string {
	return fmt.Sprintf("%s_%d.cpp", module, index)
}

func (r *Renderer) DriverFileName(module string) string {
	return module + ".cpp"
}

// --- 划分单元 ---

func (r *Renderer) RenderUnit(unit *core.UnitContext) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// File: %s\n", unit.FileName)
	for _, inc := range unit.Includes {
		fmt.Fprintf(&sb, "#include <%s>\n", inc)
	}
	if len(unit.Includes) > 0 {
		sb.WriteString("\n")
	}
	for _, h := range []string{"functional", "memory", "string"} {
		fmt.Fprintf(&sb, "#include <%s>\n", h)
	}
	fmt.Fprintf(&sb, "#include <%s>\n", HeaderCore)
	for _, h := range unit.Headers {
		if h != HeaderCore {
			fmt.Fprintf(&sb, "#include <%s>\n", h)
		}
	}
	sb.WriteString("\n" + moduleGetterTypedef + "\n")

	if len(unit.ForwardDecls) > 0 {
		sb.WriteString("\n")
		for _, name := range unit.ForwardDecls {
			fmt.Fprintf(&sb, "void %s%s(%s &M);\n", BindPrefix, name, ModuleGetter)
		}
	}

	for _, entry := range unit.Entries {
		if rf := entry.Fragment.Record; rf != nil && rf.Trampoline != nil {
			sb.WriteString("\n")
			writeTrampoline(&sb, entry.Fragment.Comment, rf.Trampoline)
		}
	}

	for _, entry := range unit.Entries {
		sb.WriteString("\n")
		if err := r.writeEntry(&sb, entry); err != nil {
			return "", err
		}
	}

	fmt.Fprintf(&sb, "\nvoid %s%s(%s &M)\n{\n", BindPrefix, unit.EntryPoint, ModuleGetter)
	for _, entry := range unit.Entries {
		fmt.Fprintf(&sb, "\t%s%s(M);\n", BindPrefix, entry.Name)
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

// writeEntry 一个幂等的注册函数: 先确保前置依赖已注册，再注册自身，最后确保其余依赖
func (r *Renderer) writeEntry(sb *strings.Builder, entry *core.RenderEntry) error {
	frag := entry.Fragment
	fmt.Fprintf(sb, "// %s\n", frag.Comment)
	fmt.Fprintf(sb, "void %s%s(%s &M)\n{\n", BindPrefix, entry.Name, ModuleGetter)
	sb.WriteString("\tstatic bool registered = false;\n\tif( registered ) return;\n\tregistered = true;\n")
	if len(entry.Deps) > 0 {
		sb.WriteString("\n")
		for _, dep := range entry.Deps {
			fmt.Fprintf(sb, "\t%s%s(M);\n", BindPrefix, dep)
		}
	}
	sb.WriteString("\n")

	scope := scopeExpr(frag.Module, entry.Scope)
	switch {
	case frag.Record != nil:
		writeRecord(sb, scope, frag)
	case frag.Function != nil:
		for _, c := range frag.Function.Overloads {
			sb.WriteString("\t" + scope + callableDef(".def", c, "") + ";\n")
		}
	case frag.Enum != nil:
		writeEnum(sb, scope, frag)
	case frag.Variable != nil:
		value := frag.Variable.Target
		if frag.Variable.Reference {
			value += ", " + PolicyReference
		}
		fmt.Fprintf(sb, "\t%s.attr(%s) = pybind11::cast(%s);\n", scope, strconv.Quote(frag.PyName), value)
	case frag.Alias != nil:
		writeAlias(sb, scope, entry)
	default:
		return errors.AssertionFailedf("fragment of %s has no payload", frag.DeclID)
	}
	if len(entry.After) > 0 {
		sb.WriteString("\n")
		for _, dep := range entry.After {
			fmt.Fprintf(sb, "\t%s%s(M);\n", BindPrefix, dep)
		}
	}
	sb.WriteString("}\n")
	return nil
}

// scopeExpr 注册所在的 Python 作用域表达式
func scopeExpr(module string, scope []string) string {
	expr := fmt.Sprintf("M(%s)", strconv.Quote(module))
	if len(scope) == 0 {
		return expr
	}
	for _, s := range scope {
		expr += fmt.Sprintf(".attr(%s)", strconv.Quote(s))
	}
	return "((pybind11::object) " + expr + ")"
}

// --- class_ ---

func writeRecord(sb *strings.Builder, scope string, frag *model.Fragment) {
	rf := frag.Record
	params := []string{rf.Type, rf.Holder}
	if rf.Trampoline != nil {
		params = append(params, rf.Trampoline.Name)
	}
	params = append(params, rf.Bases...)

	fmt.Fprintf(sb, "\t{ // %s\n", rf.Type)
	fmt.Fprintf(sb, "\t\tpybind11::class_<%s> cl(%s, %s, \"\");\n", strings.Join(params, ", "), scope, strconv.Quote(frag.PyName))
	for _, c := range rf.Constructors {
		sb.WriteString("\t\tcl.def(" + constructorExpr(rf, c) + argsSuffix(c) + ");\n")
	}
	for _, c := range rf.Methods {
		def := ".def"
		if c.Static {
			def = ".def_static"
		}
		sb.WriteString("\t\tcl" + callableDef(def, c, rf.Type) + ";\n")
	}
	for _, p := range rf.Fields {
		def := "def_readwrite"
		if p.ReadOnly {
			def = "def_readonly"
		}
		if p.Static {
			def += "_static"
		}
		fmt.Fprintf(sb, "\t\tcl.%s(%s, &%s);\n", def, strconv.Quote(p.PyName), p.Target)
	}
	sb.WriteString("\t}\n")
}

// constructorExpr 完整元数用 init<>；缺省实参用工厂 lambda，存在 trampoline 时同时给出 trampoline 工厂
func constructorExpr(rf *model.RecordFragment, c *model.Callable) string {
	if c.Full() {
		init := "pybind11::init"
		if c.Alias {
			init = "pybind11::init_alias"
		}
		return fmt.Sprintf("%s<%s>()", init, strings.Join(argTypes(c), ", "))
	}

	factory := func(class string) string {
		return fmt.Sprintf("[](%s){ return new %s(%s); }", lambdaParams(c), class, lambdaArgs(c))
	}
	switch {
	case c.Alias:
		return fmt.Sprintf("pybind11::init( %s )", factory(rf.Trampoline.Name))
	case rf.Trampoline != nil:
		return fmt.Sprintf("pybind11::init( %s, %s )", factory(rf.Type), factory(rf.Trampoline.Name))
	default:
		return fmt.Sprintf("pybind11::init( %s )", factory(rf.Type))
	}
}

// callableDef 完整元数取函数地址，缺省实参用转发 lambda
func callableDef(def string, c *model.Callable, class string) string {
	var fn string
	switch {
	case c.Full():
		fn = fmt.Sprintf("(%s) &%s", c.Pointer, c.Target)
	case class == "" || c.Static:
		fn = fmt.Sprintf("[](%s) -> %s { return %s(%s); }", lambdaParams(c), c.Result, c.Target, lambdaArgs(c))
	default:
		self := class + " &o"
		if c.Const {
			self = "const " + self
		}
		params := self
		if lp := lambdaParams(c); lp != "" {
			params += ", " + lp
		}
		member := strings.TrimPrefix(c.Target, class+"::")
		fn = fmt.Sprintf("[](%s) -> %s { return o.%s(%s); }", params, c.Result, member, lambdaArgs(c))
	}

	expr := fmt.Sprintf("%s(%s, %s, %s", def, strconv.Quote(c.PyName), fn, strconv.Quote(c.Doc))
	if c.Policy != "" {
		expr += ", " + c.Policy
	}
	return expr + argsSuffix(c) + ")"
}

func argTypes(c *model.Callable) []string {
	types := make([]string, 0, c.Arity)
	for _, a := range c.Params[:c.Arity] {
		types = append(types, a.Type)
	}
	return types
}

// lambdaParams lambda 形参统一命名为 a0, a1 ...，避免与 o 冲突
func lambdaParams(c *model.Callable) string {
	parts := make([]string, 0, c.Arity)
	for i, a := range c.Params[:c.Arity] {
		parts = append(parts, a.Declare(fmt.Sprintf("a%d", i)))
	}
	return strings.Join(parts, ", ")
}

func lambdaArgs(c *model.Callable) string {
	parts := make([]string, 0, c.Arity)
	for i := 0; i < c.Arity; i++ {
		parts = append(parts, fmt.Sprintf("a%d", i))
	}
	return strings.Join(parts, ", ")
}

func argsSuffix(c *model.Callable) string {
	var sb strings.Builder
	for _, a := range c.Params[:c.Arity] {
		fmt.Fprintf(&sb, ", pybind11::arg(%s)", strconv.Quote(PythonName(a.Name)))
	}
	return sb.String()
}

// --- enum_ ---

func writeEnum(sb *strings.Builder, scope string, frag *model.Fragment) {
	ef := frag.Enum
	fmt.Fprintf(sb, "\tpybind11::enum_<%s>(%s, %s, pybind11::arithmetic(), \"\")", ef.Type, scope, strconv.Quote(frag.PyName))
	for _, v := range ef.Values {
		fmt.Fprintf(sb, "\n\t\t.value(%s, %s)", strconv.Quote(v.PyName), v.Target)
	}
	if !ef.Scoped {
		sb.WriteString("\n\t\t.export_values()")
	}
	sb.WriteString(";\n")
}

// --- alias ---

// writeAlias 目标为已注册实体且名称不同时才生成 Python 属性
func writeAlias(sb *strings.Builder, scope string, entry *core.RenderEntry) {
	af := entry.Fragment.Alias
	if af.Hint || entry.Target == nil {
		fmt.Fprintf(sb, "\t// %s = %s\n", entry.Fragment.PyName, af.Spelling)
		return
	}
	target := scopeExpr(entry.Target.Module, entry.Target.Scope)
	fmt.Fprintf(sb, "\t%s.attr(%s) = %s.attr(%s);\n",
		scope, strconv.Quote(entry.Fragment.PyName), target, strconv.Quote(entry.Target.PyName))
}

// --- trampoline ---

func writeTrampoline(sb *strings.Builder, comment string, t *model.Trampoline) {
	fmt.Fprintf(sb, "// %s\n", comment)
	fmt.Fprintf(sb, "struct %s : public %s {\n", t.Name, t.Base)
	fmt.Fprintf(sb, "\tusing %s::%s;\n", t.Base, lastComponent(t.Base))
	if t.Copyable {
		fmt.Fprintf(sb, "\n\t%s(const %s &o) : %s(o) {}\n", t.Name, t.Base, t.Base)
	}
	for _, o := range t.Overrides {
		params := make([]string, 0, len(o.Params))
		args := make([]string, 0, len(o.Params))
		for i, p := range o.Params {
			params = append(params, p.Declare(fmt.Sprintf("a%d", i)))
			args = append(args, fmt.Sprintf("a%d", i))
		}
		qualifier := ""
		if o.Const {
			qualifier = " const"
		}
		macro := "PYBIND11_OVERRIDE_NAME"
		if o.Pure {
			macro = "PYBIND11_OVERRIDE_PURE_NAME"
		}
		macroArgs := []string{macroType(o.Result), macroType(t.Base), strconv.Quote(o.PyName), o.Name}
		macroArgs = append(macroArgs, args...)

		// 尾置返回类型: 函数指针等返回值无法写在名称之前
		fmt.Fprintf(sb, "\n\tauto %s(%s)%s -> %s override {\n", o.Name, strings.Join(params, ", "), qualifier, o.Result)
		fmt.Fprintf(sb, "\t\t%s(%s);\n\t}\n", macro, strings.Join(macroArgs, ", "))
	}
	sb.WriteString("};\n")
}

// macroType 含逗号的类型在宏实参中需要包装
func macroType(t string) string {
	if strings.Contains(t, ",") {
		return "PYBIND11_TYPE(" + t + ")"
	}
	return t
}

// lastComponent 继承构造函数的名称: 去掉限定与模板实参 ("ns::Box<int>" -> "Box")
func lastComponent(spelling string) string {
	depth := 0
	end := len(spelling)
	for i := len(spelling) - 1; i >= 0; i-- {
		switch spelling[i] {
		case '>':
			depth++
		case '<':
			depth--
			if depth == 0 {
				end = i
			}
		case ':':
			if depth == 0 {
				return spelling[i+1 : end]
			}
		}
	}
	return spelling[:end]
}

// --- 驱动单元 ---

func (r *Renderer) RenderDriver(driver *core.DriverContext) (string, error) {
	if driver.Module == "" {
		return "", errors.AssertionFailedf("driver has no module name")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "// File: %s\n", driver.FileName)
	for _, h := range []string{"functional", "map", "memory", "stdexcept", "string"} {
		fmt.Fprintf(&sb, "#include <%s>\n", h)
	}
	fmt.Fprintf(&sb, "\n#include <%s>\n\n%s\n\n", HeaderCore, moduleGetterTypedef)
	for _, ep := range driver.EntryPoints {
		fmt.Fprintf(&sb, "void %s%s(%s &M);\n", BindPrefix, ep, ModuleGetter)
	}

	fmt.Fprintf(&sb, "\nPYBIND11_MODULE(%s, root_module) {\n", driver.Module)
	fmt.Fprintf(&sb, "\troot_module.doc() = %s;\n\n", strconv.Quote(driver.Module+" module"))
	sb.WriteString("\tstd::map <std::string, pybind11::module> modules;\n")
	fmt.Fprintf(&sb, "\t%s M = [&](std::string const &namespace_) -> pybind11::module & {\n", ModuleGetter)
	sb.WriteString("\t\tauto it = modules.find(namespace_);\n")
	sb.WriteString("\t\tif( it == modules.end() ) throw std::runtime_error(\"Attempt to access pybind11::module for namespace \" + namespace_ + \" before it was created!!!\");\n")
	sb.WriteString("\t\treturn it->second;\n\t};\n\n")
	sb.WriteString("\tmodules[\"\"] = root_module;\n")
	for _, ns := range driver.Namespaces {
		parent, name := "", ns
		if i := strings.LastIndex(ns, "::"); i >= 0 {
			parent, name = ns[:i], ns[i+2:]
		}
		fmt.Fprintf(&sb, "\tmodules[%s] = modules[%s].def_submodule(%s, %s);\n",
			strconv.Quote(ns), strconv.Quote(parent), strconv.Quote(PythonName(name)),
			strconv.Quote("Bindings for "+ns+" namespace"))
	}
	sb.WriteString("\n")
	for _, ep := range driver.EntryPoints {
		fmt.Fprintf(&sb, "\t%s%s(M);\n", BindPrefix, ep)
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}
