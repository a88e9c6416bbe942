package pybind11

import (
	"fmt"
	"strings"

	"github.com/CodMac/cppbind/model"
)

type SymbolResolver struct{}

func NewPybind11Resolver() *SymbolResolver {
	return &SymbolResolver{}
}

func (r *SymbolResolver) BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" {
		return name
	}
	return parentQN + "::" + name
}

func (r *SymbolResolver) BindingName(decl *model.Declaration) string {
	return Mangle(decl.Spelling())
}

func (r *SymbolResolver) SignatureName(decl *model.Declaration) string {
	if decl.Function == nil {
		return r.BindingName(decl)
	}
	sig := Mangle(model.Signature(decl.Function.Params))
	if sig == "" {
		sig = "void"
	}
	return r.BindingName(decl) + "_" + sig
}

func (r *SymbolResolver) HintName(decl *model.Declaration, hint *model.Declaration) string {
	if hint == nil {
		return ""
	}
	return Mangle(hint.QualifiedName)
}

func (r *SymbolResolver) EntryPoint(module string, index int) string {
	return fmt.Sprintf("%s_%d", Mangle(module), index)
}

func (r *SymbolResolver) ModuleName(module, namespace string) string {
	if namespace == "" {
		return module
	}
	return module + "." + PythonModule(namespace)
}

// Mangle 把 C++ 拼写改编为标识符: "::" -> "_"，"<" -> "_"，">" -> "_t"，
// "*" -> "_ptr"，"&" -> "_ref"，其它非标识符字符 -> "_"，连续的 "_" 合并
func Mangle(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			sb.WriteByte(c)
		case c == '>':
			sb.WriteString("_t_")
		case c == '*':
			sb.WriteString("_ptr_")
		case c == '&':
			sb.WriteString("_ref_")
		default:
			sb.WriteByte('_')
		}
	}

	parts := strings.FieldsFunc(sb.String(), func(r rune) bool { return r == '_' })
	name := strings.Join(parts, "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// PythonName Python 关键字追加 "_"
func PythonName(name string) string {
	if pythonKeywords[name] {
		return name + "_"
	}
	return name
}

// PythonModule 命名空间限定名对应的 Python 子模块路径 (e.g., "a::from" -> "a.from_")
func PythonModule(namespace string) string {
	if namespace == "" {
		return ""
	}
	parts := strings.Split(namespace, "::")
	for i, p := range parts {
		parts[i] = PythonName(p)
	}
	return strings.Join(parts, ".")
}
