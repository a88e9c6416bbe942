package model

import (
	"strconv"
	"strings"
)

// --- 类型描述 (Type Descriptors) ---

// TypeKind 类型描述符的基础种类
type TypeKind string

const (
	FundamentalType    TypeKind = "FUNDAMENTAL"             // int, double, bool, void ...
	RecordType         TypeKind = "RECORD"                  // 非模板 class / struct，或 std::string 一类的已知类型
	EnumType           TypeKind = "ENUM"                    // enum / enum class
	PointerType        TypeKind = "POINTER"                 // T *
	LValueRefType      TypeKind = "LVALUE_REFERENCE"        // T &
	RValueRefType      TypeKind = "RVALUE_REFERENCE"        // T &&
	ArrayType          TypeKind = "ARRAY"                   // T[N]
	FunctionType       TypeKind = "FUNCTION"                // R(Args...)
	SpecializationType TypeKind = "TEMPLATE_SPECIALIZATION" // Tmpl<Args...>
	MemberPointerType  TypeKind = "MEMBER_POINTER"          // T C::*
	DependentType      TypeKind = "DEPENDENT"               // 依赖模板参数的类型
	IncompleteType     TypeKind = "INCOMPLETE"              // 前端未能给出定义
	ValueArg           TypeKind = "VALUE"                   // 非类型模板实参 (e.g., std::array<int, 3> 中的 3)
)

// TypeDescriptor 前端给出的完全解析的类型
type TypeDescriptor struct {
	Kind     TypeKind          `json:"Kind" yaml:"Kind"`
	Name     string            `json:"Name,omitempty" yaml:"Name,omitempty"`         // 基础类型拼写，或 record/enum/模板的限定名
	DeclID   string            `json:"DeclID,omitempty" yaml:"DeclID,omitempty"`     // 指向的声明身份 (record / enum / 实例化 record)
	Const    bool              `json:"Const,omitempty" yaml:"Const,omitempty"`
	Volatile bool              `json:"Volatile,omitempty" yaml:"Volatile,omitempty"`
	Pointee  *TypeDescriptor   `json:"Pointee,omitempty" yaml:"Pointee,omitempty"`   // 指针/引用/数组的元素；成员指针的成员类型
	Class    *TypeDescriptor   `json:"Class,omitempty" yaml:"Class,omitempty"`       // 成员指针所属的类
	Size     int               `json:"Size,omitempty" yaml:"Size,omitempty"`         // 数组长度，0 表示未知
	Args     []*TypeDescriptor `json:"Args,omitempty" yaml:"Args,omitempty"`         // 模板实参
	Params   []*TypeDescriptor `json:"Params,omitempty" yaml:"Params,omitempty"`     // 函数类型的参数
	Result   *TypeDescriptor   `json:"Result,omitempty" yaml:"Result,omitempty"`     // 函数类型的返回值
	Variadic bool              `json:"Variadic,omitempty" yaml:"Variadic,omitempty"` // 函数类型带 C 可变参数
}

// Spell 规范的 C++ 拼写，也是类型相等的依据
func (t *TypeDescriptor) Spell() string {
	if t == nil {
		return "<unknown>"
	}
	return spell(t, "")
}

// Declare 以 name 为声明符拼写一个声明 (e.g., "void (*cb)(int)")
func (t *TypeDescriptor) Declare(name string) string {
	if t == nil {
		return "<unknown> " + name
	}
	return spell(t, name)
}

// Equal 规范拼写相等即类型相等
func (t *TypeDescriptor) Equal(o *TypeDescriptor) bool {
	return t.Spell() == o.Spell()
}

// Depth 指针/引用的层数
func (t *TypeDescriptor) Depth() int {
	depth := 0
	for cur := t; cur != nil; cur = cur.Pointee {
		if cur.Kind != PointerType && cur.Kind != LValueRefType && cur.Kind != RValueRefType {
			break
		}
		depth++
	}
	return depth
}

// Unqualified 去掉顶层 cv 限定的拷贝
func (t *TypeDescriptor) Unqualified() *TypeDescriptor {
	if t == nil || (!t.Const && !t.Volatile) {
		return t
	}
	c := *t
	c.Const, c.Volatile = false, false
	return &c
}

// Strip 去掉顶层引用与 cv 限定，得到被引用的类型
func (t *TypeDescriptor) Strip() *TypeDescriptor {
	cur := t
	for cur != nil && (cur.Kind == LValueRefType || cur.Kind == RValueRefType) {
		cur = cur.Pointee
	}
	return cur.Unqualified()
}

// spell 按 C++ 声明符规则拼写，decl 是已拼好的内层声明符
func spell(t *TypeDescriptor, decl string) string {
	switch t.Kind {
	case PointerType, LValueRefType, RValueRefType:
		op := "*"
		if t.Kind == LValueRefType {
			op = "&"
		} else if t.Kind == RValueRefType {
			op = "&&"
		}
		if t.Const {
			op += " const"
		}
		inner := op
		if decl != "" {
			inner += " " + decl
		}
		if t.Pointee != nil && (t.Pointee.Kind == FunctionType || t.Pointee.Kind == ArrayType) {
			inner = "(" + inner + ")"
		}
		if t.Pointee == nil {
			return "<unknown> " + inner
		}
		return spell(t.Pointee, inner)
	case ArrayType:
		size := ""
		if t.Size > 0 {
			size = strconv.Itoa(t.Size)
		}
		if t.Pointee == nil {
			return "<unknown> " + decl + "[" + size + "]"
		}
		return spell(t.Pointee, decl+"["+size+"]")
	case FunctionType:
		params := make([]string, 0, len(t.Params)+1)
		for _, p := range t.Params {
			params = append(params, p.Spell())
		}
		if t.Variadic {
			params = append(params, "...")
		}
		suffix := decl + "(" + strings.Join(params, ", ") + ")"
		if t.Result == nil {
			return "void " + suffix
		}
		return spell(t.Result, suffix)
	case MemberPointerType:
		class := "<unknown>"
		if t.Class != nil {
			class = t.Class.Spell()
		}
		inner := class + "::*"
		if t.Const {
			inner += " const"
		}
		if decl != "" {
			inner += " " + decl
		}
		if t.Pointee == nil {
			return "<unknown> " + inner
		}
		if t.Pointee.Kind == FunctionType {
			inner = "(" + inner + ")"
		}
		return spell(t.Pointee, inner)
	}

	base := t.Name
	if t.Kind == SpecializationType {
		base += spellArgs(t.Args)
	}
	if t.Volatile {
		base = "volatile " + base
	}
	if t.Const {
		base = "const " + base
	}
	if decl == "" {
		return base
	}
	return base + " " + decl
}

func spellArgs(args []*TypeDescriptor) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Spell())
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
