package model

import (
	"strings"
)

// --- 声明类型 (Declaration Kinds) ---

// DeclKind 是表示 C++ 声明种类的字符串常量
type DeclKind string

const (
	Record   DeclKind = "RECORD"   // 顶层实体 	-> class / struct / union (含模板实例)
	Function DeclKind = "FUNCTION" // 顶层实体 	-> 命名空间级自由函数，每个重载一个声明
	Enum     DeclKind = "ENUM"     // 顶层实体 	-> enum / enum class
	Variable DeclKind = "VARIABLE" // 顶层实体 	-> 命名空间级变量
	Alias    DeclKind = "ALIAS"    // 顶层实体 	-> typedef / using

	Constructor  DeclKind = "CONSTRUCTOR" // 成员 	-> 仅用于诊断
	MethodMember DeclKind = "METHOD"      // 成员 	-> 仅用于诊断
	Field        DeclKind = "FIELD"       // 成员 	-> 仅用于诊断
	Base         DeclKind = "BASE"        // 成员 	-> 仅用于诊断 (歧义基类)
)

// Access C++ 访问控制
type Access string

const (
	Public    Access = "public"
	Protected Access = "protected"
	Private   Access = "private"
)

// IsPublic 空值视为 public (命名空间级声明没有访问控制)
func (a Access) IsPublic() bool {
	return a == "" || a == Public
}

// ScopeKind 外层作用域的种类
type ScopeKind string

const (
	NamespaceScope ScopeKind = "NAMESPACE"
	RecordScope    ScopeKind = "RECORD"
	FunctionScope  ScopeKind = "FUNCTION"
)

// Scope 声明的一层外层作用域
type Scope struct {
	Kind          ScopeKind `json:"Kind" yaml:"Kind"`
	Name          string    `json:"Name" yaml:"Name"`
	QualifiedName string    `json:"QualifiedName" yaml:"QualifiedName"`
	DeclID        string    `json:"DeclID,omitempty" yaml:"DeclID,omitempty"` // RecordScope 时指向外层 record 的身份
}

// Location 描述了声明在源码中的位置
type Location struct {
	FilePath string `json:"FilePath" yaml:"FilePath"`
	Line     int    `json:"Line" yaml:"Line"`
	Column   int    `json:"Column,omitempty" yaml:"Column,omitempty"`
}

// Instantiation 模板实例身份
type Instantiation struct {
	Template string            `json:"Template" yaml:"Template"` // 主模板的限定名
	Args     []*TypeDescriptor `json:"Args" yaml:"Args"`
}

// Declaration 前端解析完成的一个 C++ 声明。入库后不可变。
// Record / Function / Enum / Variable / Alias 中恰好有一个与 Kind 对应的 payload。
type Declaration struct {
	ID            string         `json:"ID,omitempty" yaml:"ID,omitempty"`         // ID: 身份，缺省时由 Identity() 计算
	Kind          DeclKind       `json:"Kind" yaml:"Kind"`                         // Kind: 声明种类
	Name          string         `json:"Name" yaml:"Name"`                         // Name: 短名称 (e.g., "Box")
	QualifiedName string         `json:"QualifiedName" yaml:"QualifiedName"`       // QualifiedName: 限定名，不含自身模板实参 (e.g., "ns::Box")
	Access        Access         `json:"Access,omitempty" yaml:"Access,omitempty"` // Access: 嵌套声明的访问控制
	Scopes        []Scope        `json:"Scopes,omitempty" yaml:"Scopes,omitempty"` // Scopes: 由外到内的外层作用域链
	Location      *Location      `json:"Location,omitempty" yaml:"Location,omitempty"`
	Header        string         `json:"Header,omitempty" yaml:"Header,omitempty"` // Header: 生成代码中 #include 的拼写
	Doc           string         `json:"Doc,omitempty" yaml:"Doc,omitempty"`
	Instantiation *Instantiation `json:"Instantiation,omitempty" yaml:"Instantiation,omitempty"`

	Record   *RecordDecl   `json:"Record,omitempty" yaml:"Record,omitempty"`
	Function *FunctionDecl `json:"Function,omitempty" yaml:"Function,omitempty"`
	Enum     *EnumDecl     `json:"Enum,omitempty" yaml:"Enum,omitempty"`
	Variable *VariableDecl `json:"Variable,omitempty" yaml:"Variable,omitempty"`
	Alias    *AliasDecl    `json:"Alias,omitempty" yaml:"Alias,omitempty"`
}

// RecordTag class / struct / union
type RecordTag string

const (
	ClassTag  RecordTag = "class"
	StructTag RecordTag = "struct"
	UnionTag  RecordTag = "union"
)

// RecordDecl class / struct / union 的 payload
type RecordDecl struct {
	Tag               RecordTag      `json:"Tag" yaml:"Tag"`
	Complete          bool           `json:"Complete" yaml:"Complete"`                                         // 定义可见
	Dependent         bool           `json:"Dependent,omitempty" yaml:"Dependent,omitempty"`                   // 未实例化的模板
	Abstract          bool           `json:"Abstract,omitempty" yaml:"Abstract,omitempty"`                     // 含未覆盖的纯虚函数
	Polymorphic       bool           `json:"Polymorphic,omitempty" yaml:"Polymorphic,omitempty"`               // 含虚函数
	Final             bool           `json:"Final,omitempty" yaml:"Final,omitempty"`                           // class X final
	CopyConstructible bool           `json:"CopyConstructible,omitempty" yaml:"CopyConstructible,omitempty"`   // public 且未删除的拷贝构造
	MoveConstructible bool           `json:"MoveConstructible,omitempty" yaml:"MoveConstructible,omitempty"`   // public 且未删除的移动构造
	Holder            string         `json:"Holder,omitempty" yaml:"Holder,omitempty"`                         // 前端给出的 holder 覆盖 (e.g., "std::unique_ptr")
	Destructor        *SpecialMember `json:"Destructor,omitempty" yaml:"Destructor,omitempty"`                 // nil 表示隐式 public 析构
	Bases             []*BaseSpec    `json:"Bases,omitempty" yaml:"Bases,omitempty"`
	Constructors      []*Method      `json:"Constructors,omitempty" yaml:"Constructors,omitempty"`
	Methods           []*Method      `json:"Methods,omitempty" yaml:"Methods,omitempty"`
	Fields            []*FieldDecl   `json:"Fields,omitempty" yaml:"Fields,omitempty"`
}

// SpecialMember 析构函数等特殊成员
type SpecialMember struct {
	Access  Access `json:"Access" yaml:"Access"`
	Deleted bool   `json:"Deleted,omitempty" yaml:"Deleted,omitempty"`
	Virtual bool   `json:"Virtual,omitempty" yaml:"Virtual,omitempty"`
}

// BaseSpec 直接基类
type BaseSpec struct {
	Type    *TypeDescriptor `json:"Type" yaml:"Type"`
	Access  Access          `json:"Access" yaml:"Access"`
	Virtual bool            `json:"Virtual,omitempty" yaml:"Virtual,omitempty"`
}

// Method 成员函数 / 构造函数
type Method struct {
	Name         string          `json:"Name" yaml:"Name"`
	Access       Access          `json:"Access" yaml:"Access"`
	Params       []*Param        `json:"Params,omitempty" yaml:"Params,omitempty"`
	Result       *TypeDescriptor `json:"Result,omitempty" yaml:"Result,omitempty"` // 构造函数为 nil
	Static       bool            `json:"Static,omitempty" yaml:"Static,omitempty"`
	Const        bool            `json:"Const,omitempty" yaml:"Const,omitempty"`
	Virtual      bool            `json:"Virtual,omitempty" yaml:"Virtual,omitempty"`
	PureVirtual  bool            `json:"PureVirtual,omitempty" yaml:"PureVirtual,omitempty"`
	Final        bool            `json:"Final,omitempty" yaml:"Final,omitempty"`
	Deleted      bool            `json:"Deleted,omitempty" yaml:"Deleted,omitempty"`
	Implicit     bool            `json:"Implicit,omitempty" yaml:"Implicit,omitempty"`         // 编译器隐式声明
	Rejected     bool            `json:"Rejected,omitempty" yaml:"Rejected,omitempty"`         // 约束不满足，被前端排除
	Variadic     bool            `json:"Variadic,omitempty" yaml:"Variadic,omitempty"`         // C 风格可变参数
	Operator     string          `json:"Operator,omitempty" yaml:"Operator,omitempty"`         // 运算符符号 (e.g., "+", "[]", "bool")
	RefQualifier string          `json:"RefQualifier,omitempty" yaml:"RefQualifier,omitempty"` // "", "&", "&&"
}

// Param 函数参数
type Param struct {
	Name    string          `json:"Name,omitempty" yaml:"Name,omitempty"`
	Type    *TypeDescriptor `json:"Type" yaml:"Type"`
	Default string          `json:"Default,omitempty" yaml:"Default,omitempty"` // 默认实参的源码拼写，非空即有默认值
}

// HasDefault 参数是否带默认实参
func (p *Param) HasDefault() bool {
	return p.Default != ""
}

// FieldDecl 数据成员
type FieldDecl struct {
	Name     string          `json:"Name" yaml:"Name"`
	Access   Access          `json:"Access" yaml:"Access"`
	Type     *TypeDescriptor `json:"Type" yaml:"Type"`
	Static   bool            `json:"Static,omitempty" yaml:"Static,omitempty"`
	BitField bool            `json:"BitField,omitempty" yaml:"BitField,omitempty"`
	Mutable  bool            `json:"Mutable,omitempty" yaml:"Mutable,omitempty"`
}

// FunctionDecl 自由函数的 payload
type FunctionDecl struct {
	Params   []*Param        `json:"Params,omitempty" yaml:"Params,omitempty"`
	Result   *TypeDescriptor `json:"Result" yaml:"Result"`
	Deleted  bool            `json:"Deleted,omitempty" yaml:"Deleted,omitempty"`
	Rejected bool            `json:"Rejected,omitempty" yaml:"Rejected,omitempty"`
	Variadic bool            `json:"Variadic,omitempty" yaml:"Variadic,omitempty"`
	Operator string          `json:"Operator,omitempty" yaml:"Operator,omitempty"`
}

// EnumDecl 枚举的 payload
type EnumDecl struct {
	Scoped      bool            `json:"Scoped,omitempty" yaml:"Scoped,omitempty"`
	Underlying  *TypeDescriptor `json:"Underlying,omitempty" yaml:"Underlying,omitempty"` // nil 表示 int
	Enumerators []*Enumerator   `json:"Enumerators" yaml:"Enumerators"`
}

// Enumerator 枚举值
type Enumerator struct {
	Name  string `json:"Name" yaml:"Name"`
	Value string `json:"Value,omitempty" yaml:"Value,omitempty"`
}

// VariableDecl 变量的 payload
type VariableDecl struct {
	Type      *TypeDescriptor `json:"Type" yaml:"Type"`
	Constexpr bool            `json:"Constexpr,omitempty" yaml:"Constexpr,omitempty"`
}

// AliasDecl typedef / using 的 payload
type AliasDecl struct {
	Target *TypeDescriptor `json:"Target" yaml:"Target"`
}

// Spelling 返回含模板实参的 C++ 拼写 (e.g., "ns::Box<int>")
func (d *Declaration) Spelling() string {
	if d.Instantiation == nil || len(d.Instantiation.Args) == 0 {
		return d.QualifiedName
	}
	return d.QualifiedName + spellArgs(d.Instantiation.Args)
}

// Identity 计算声明身份：限定名 + 模板实参 (+ 函数参数签名)
func (d *Declaration) Identity() string {
	id := d.Spelling()
	if d.Kind == Function && d.Function != nil {
		id += Signature(d.Function.Params)
	}
	return id
}

// Signature 参数列表的规范拼写 (e.g., "(int, const ns::A &)")
func Signature(params []*Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Type.Spell())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// EnclosingScope 最内层作用域，全局命名空间返回 nil
func (d *Declaration) EnclosingScope() *Scope {
	if len(d.Scopes) == 0 {
		return nil
	}
	return &d.Scopes[len(d.Scopes)-1]
}

// EnclosingRecord 直接外层 record 的身份，不是嵌套声明时返回 ""
func (d *Declaration) EnclosingRecord() string {
	if s := d.EnclosingScope(); s != nil && s.Kind == RecordScope {
		return s.DeclID
	}
	return ""
}

// Namespace 最内层命名空间的限定名，全局命名空间为 ""
func (d *Declaration) Namespace() string {
	for i := len(d.Scopes) - 1; i >= 0; i-- {
		if d.Scopes[i].Kind == NamespaceScope {
			return d.Scopes[i].QualifiedName
		}
	}
	return ""
}

// Payload 检查 payload 与 Kind 是否一致
func (d *Declaration) Payload() bool {
	n := 0
	for _, set := range []bool{d.Record != nil, d.Function != nil, d.Enum != nil, d.Variable != nil, d.Alias != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return false
	}
	switch d.Kind {
	case Record:
		return d.Record != nil
	case Function:
		return d.Function != nil
	case Enum:
		return d.Enum != nil
	case Variable:
		return d.Variable != nil
	case Alias:
		return d.Alias != nil
	default:
		return false
	}
}
