package model

// --- 依赖边类型 (Dependency Edge Kinds) ---

// EdgeKind A -> B 表示 A 的注册代码引用了 B 的绑定名
type EdgeKind string

const (
	// --- 1. 结构关系 (Structural) ---

	// BaseEdge 基类: 派生类注册时必须先注册基类
	// e.g., [Source(Derived) -> Target(Base)]
	BaseEdge EdgeKind = "BASE"

	// EnclosingEdge 外层作用域: 嵌套声明注册在外层类的作用域内
	// e.g., [Source(Outer::Inner) -> Target(Outer)]
	EnclosingEdge EdgeKind = "ENCLOSING_SCOPE"

	// ValueMemberEdge 值成员: 数据成员以值类型持有另一个 record
	// e.g., [Source(A { B b; }) -> Target(B)]
	ValueMemberEdge EdgeKind = "VALUE_MEMBER"

	// --- 2. 签名引用 (Signature) ---

	// ParameterEdge 参数类型
	// e.g., [Source(f(const A &)) -> Target(A)]
	ParameterEdge EdgeKind = "PARAMETER"

	// ReturnEdge 返回类型
	// e.g., [Source(A make()) -> Target(A)]
	ReturnEdge EdgeKind = "RETURN"

	// MemberEdge 指针/引用成员，或成员函数签名中的类型
	// e.g., [Source(A { B *b; }) -> Target(B)]
	MemberEdge EdgeKind = "MEMBER"

	// TemplateArgEdge 模板实参
	// e.g., [Source(Box<A>) -> Target(A)]
	TemplateArgEdge EdgeKind = "TEMPLATE_ARG"

	// --- 3. 别名与变量 (Alias & Variable) ---

	// AliasTargetEdge 别名目标
	// e.g., [Source(using IntBox = Box<int>) -> Target(Box<int>)]
	AliasTargetEdge EdgeKind = "ALIAS_TARGET"

	// VariableTypeEdge 变量类型
	// e.g., [Source(A global_a) -> Target(A)]
	VariableTypeEdge EdgeKind = "VARIABLE_TYPE"
)

// Strength 依赖强度
type Strength string

const (
	Full    Strength = "full"    // 需要 B 的完整定义，不能用前向声明打破环
	Forward Strength = "forward" // 前向声明即可满足
)

// Strength 由边的种类决定
func (k EdgeKind) Strength() Strength {
	switch k {
	case BaseEdge, ValueMemberEdge:
		return Full
	default:
		return Forward
	}
}

// Placement 基类与外层作用域的依赖决定全局顺序
func (k EdgeKind) Placement() bool {
	return k == BaseEdge || k == EnclosingEdge
}

// Prerequisite 注册自身时目标必须已经存在于 Python 侧: 基类、外层作用域、别名目标与变量类型。
// 其余依赖只在调用时才需要目标，放在自身注册之后确保
func (k EdgeKind) Prerequisite() bool {
	switch k {
	case BaseEdge, EnclosingEdge, AliasTargetEdge, VariableTypeEdge:
		return true
	default:
		return false
	}
}

// DependencyEdge 描述了两个可绑定声明之间的依赖
type DependencyEdge struct {
	From     string   `json:"From"` // 源声明身份
	To       string   `json:"To"`   // 目标声明身份
	Kind     EdgeKind `json:"Kind"`
	Strength Strength `json:"Strength"`
}

// NewEdge 按种类补全强度
func NewEdge(from, to string, kind EdgeKind) *DependencyEdge {
	return &DependencyEdge{From: from, To: to, Kind: kind, Strength: kind.Strength()}
}
