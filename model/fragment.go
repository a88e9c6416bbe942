package model

import (
	"strings"
)

// --- 注册片段 (Registration Fragments) ---

// Fragment 分类器为可绑定声明产出的结构化注册片段，渲染器据此生成目标运行时代码
type Fragment struct {
	DeclID  string   `json:"DeclID"`
	Kind    DeclKind `json:"Kind"`
	Comment string   `json:"Comment"`          // Comment: 生成代码中的来源注释 (e.g., "ns::A file:a.hpp line:12")
	Include string   `json:"Include"`          // Include: 实体所在头文件
	Module  string   `json:"Module"`           // Module: 所在命名空间的限定名，全局命名空间为 ""
	Parent  string   `json:"Parent,omitempty"` // Parent: 外层 record 的身份，命名空间级为 ""
	PyName  string   `json:"PyName"`           // PyName: Python 侧名称
	Headers []string `json:"Headers,omitempty"` // Headers: 运行时 caster 需要的头文件

	Record   *RecordFragment   `json:"Record,omitempty"`
	Function *FunctionFragment `json:"Function,omitempty"`
	Enum     *EnumFragment     `json:"Enum,omitempty"`
	Variable *VariableFragment `json:"Variable,omitempty"`
	Alias    *AliasFragment    `json:"Alias,omitempty"`
}

// RecordFragment class_ 注册
type RecordFragment struct {
	Type         string      `json:"Type"`
	Holder       string      `json:"Holder"`
	Bases        []string    `json:"Bases,omitempty"`
	Trampoline   *Trampoline `json:"Trampoline,omitempty"`
	Constructors []*Callable `json:"Constructors,omitempty"`
	Methods      []*Callable `json:"Methods,omitempty"`
	Fields       []*Property `json:"Fields,omitempty"`
}

// Callable 一次函数/方法/构造函数注册。Arity 小于参数个数时以 lambda 包装
type Callable struct {
	PyName  string      `json:"PyName"`
	Target  string      `json:"Target"`            // 被调用者的限定名；构造函数为类的拼写
	Params  []*Argument `json:"Params,omitempty"`  // 完整参数列表
	Arity   int         `json:"Arity"`             // 本次注册使用的参数个数
	Result  string      `json:"Result,omitempty"`  // 返回值拼写，构造函数为空
	Pointer string      `json:"Pointer,omitempty"` // 取地址时的函数指针类型
	Static  bool        `json:"Static,omitempty"`
	Const   bool        `json:"Const,omitempty"`
	Policy  string      `json:"Policy,omitempty"` // 返回值策略，空为运行时默认
	Doc     string      `json:"Doc,omitempty"`
	Alias   bool        `json:"Alias,omitempty"` // 构造函数: 只能构造 trampoline (抽象类)
}

// Argument 参数的名称与类型拼写
type Argument struct {
	Name string          `json:"Name"`
	Type string          `json:"Type"`
	Desc *TypeDescriptor `json:"-"` // 拼写声明符所需的类型结构，为空时按 Type 拼接
}

// Declare 以 name 为形参名的声明，函数指针等类型的名称位于声明符内部
func (a *Argument) Declare(name string) string {
	if a.Desc != nil {
		return a.Desc.Declare(name)
	}
	return a.Type + " " + name
}

// Full 是否为完整参数的注册
func (c *Callable) Full() bool {
	return c.Arity == len(c.Params)
}

// Erased 擦除 cv 与引用后的注册签名，同名同签名的两次注册在运行时无法区分
func (c *Callable) Erased() string {
	parts := make([]string, 0, c.Arity)
	for _, p := range c.Params[:c.Arity] {
		parts = append(parts, EraseSpelling(p.Type))
	}
	key := c.PyName + "(" + strings.Join(parts, ",") + ")"
	if c.Static {
		key = "static " + key
	}
	return key
}

// EraseSpelling 去掉拼写末尾的引用与顶层 const
func EraseSpelling(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "&&")
	s = strings.TrimSuffix(s, "&")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " const")
	if !strings.HasSuffix(s, "*") {
		s = strings.TrimPrefix(s, "const ")
	}
	return strings.TrimSpace(s)
}

// Trampoline 支持 Python 覆盖虚函数的派生类
type Trampoline struct {
	Name      string      `json:"Name"`
	Base      string      `json:"Base"`
	Copyable  bool        `json:"Copyable,omitempty"` // 基类可拷贝时需要显式的拷贝构造
	Overrides []*Override `json:"Overrides"`
}

// Override trampoline 中的一个虚函数覆盖
type Override struct {
	Name   string      `json:"Name"` // C++ 名称 (e.g., "compute", "operator+")
	PyName string      `json:"PyName"`
	Result string      `json:"Result"`
	Params []*Argument `json:"Params,omitempty"`
	Const  bool        `json:"Const,omitempty"`
	Pure   bool        `json:"Pure,omitempty"`
}

// Property 数据成员注册
type Property struct {
	PyName   string `json:"PyName"`
	Target   string `json:"Target"` // 成员限定名 (e.g., "ns::A::x")
	ReadOnly bool   `json:"ReadOnly,omitempty"`
	Static   bool   `json:"Static,omitempty"`
}

// EnumFragment enum_ 注册
type EnumFragment struct {
	Type   string       `json:"Type"`
	Scoped bool         `json:"Scoped,omitempty"`
	Values []*EnumValue `json:"Values"`
}

// EnumValue 一个枚举值
type EnumValue struct {
	PyName string `json:"PyName"`
	Target string `json:"Target"`
}

// FunctionFragment 一个重载的全部元数注册
type FunctionFragment struct {
	Overloads []*Callable `json:"Overloads"`
}

// VariableFragment 变量注册
type VariableFragment struct {
	Target    string `json:"Target"`
	Reference bool   `json:"Reference,omitempty"` // 以引用暴露，不拷贝
}

// AliasFragment 别名注册
type AliasFragment struct {
	Target   string `json:"Target,omitempty"` // 被别名的可绑定声明身份，非实体类型为 ""
	Spelling string `json:"Spelling"`
	Hint     bool   `json:"Hint,omitempty"` // 已作为目标的 Python 名称使用，无需再生成别名属性
}

// Empty 全部重载都被同名同签名的注册遮蔽，没有可生成的内容
func (f *Fragment) Empty() bool {
	return f.Function != nil && len(f.Function.Overloads) == 0
}

// Cost 划分时的权重: 每个声明 1，record/enum 每个注册成员再加 1
func (f *Fragment) Cost() int {
	cost := 1
	switch {
	case f.Record != nil:
		cost += len(f.Record.Constructors) + len(f.Record.Methods) + len(f.Record.Fields)
	case f.Enum != nil:
		cost += len(f.Enum.Values)
	}
	return cost
}
