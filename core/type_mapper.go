package core

import (
	"github.com/CodMac/cppbind/model"
)

// Position 类型出现的位置
type Position string

const (
	PosParam       Position = "parameter"
	PosReturn      Position = "return"
	PosField       Position = "field"
	PosVariable    Position = "variable"
	PosBase        Position = "base"
	PosTemplateArg Position = "template-argument"
	PosAliasTarget Position = "alias-target"
)

// MapStatus 类型映射的结论
type MapStatus string

const (
	Representable   MapStatus = "representable"
	Unrepresentable MapStatus = "unrepresentable"
	MapPending      MapStatus = "pending"
)

// Mapping 一次类型映射的结果
type Mapping struct {
	Spelling string
	Status   MapStatus
	Reason   string   // Unrepresentable 的原因，引用出错的类型拼写
	Blocker  string   // Pending 时阻塞的声明身份
	Refs     []string // 引用的可绑定声明，按出现顺序去重
	ValueRef string   // 以值方式直接引用的 record (完整依赖)
	Headers  []string // 需要的 caster 头文件
	Policy   string   // 指针/引用返回值的策略
}

func (m *Mapping) OK() bool {
	return m.Status == Representable
}

// TypeMapper 判断一个完全解析的类型在目标运行时能否表示
type TypeMapper interface {
	Map(t *model.TypeDescriptor, pos Position, view View) *Mapping
}
