package core

import (
	"sort"

	"github.com/CodMac/cppbind/model"
)

// RenderEntry 单元中的一个注册函数
type RenderEntry struct {
	Name     string          // 绑定名
	Fragment *model.Fragment // 注册片段
	Deps     []string        // 注册前需确保已注册的绑定名，按绑定名排序
	After    []string        // 注册后再确保的其余依赖，按绑定名排序
	Includes []string        // 被引用实体的头文件
	Scope    []string        // 外层 record 的 Python 名称链，命名空间级为空
	Target   *AliasTarget    // 别名目标，仅别名且目标为可绑定实体时有
}

// AliasTarget 别名指向的已注册实体在 Python 侧的位置
type AliasTarget struct {
	Module string
	Scope  []string
	PyName string
}

// UnitContext 一个划分单元的渲染上下文
type UnitContext struct {
	Index        int
	Module       string
	FileName     string
	EntryPoint   string
	Includes     []string // 实体与其引用实体的头文件
	Headers      []string // 运行时 caster 头文件
	ForwardDecls []string // 需要前向声明的注册函数 (绑定名)
	Entries      []*RenderEntry
}

func NewUnitContext(module string, index int) *UnitContext {
	return &UnitContext{Index: index, Module: module, Entries: make([]*RenderEntry, 0)}
}

// AddEntry 按发射顺序追加注册函数，并收集头文件
func (uc *UnitContext) AddEntry(entry *RenderEntry) {
	uc.Entries = append(uc.Entries, entry)
	if entry.Fragment.Include != "" {
		uc.Includes = appendUnique(uc.Includes, entry.Fragment.Include)
	}
	for _, inc := range entry.Includes {
		uc.Includes = appendUnique(uc.Includes, inc)
	}
	for _, h := range entry.Fragment.Headers {
		uc.Headers = appendUnique(uc.Headers, h)
	}
}

// AddForwardDecl 登记需要前向声明的注册函数
func (uc *UnitContext) AddForwardDecl(name string) {
	uc.ForwardDecls = appendUnique(uc.ForwardDecls, name)
}

// Seal 排序头文件与前向声明，使输出与遍历顺序无关
func (uc *UnitContext) Seal() {
	sort.Strings(uc.Includes)
	sort.Strings(uc.Headers)
	sort.Strings(uc.ForwardDecls)
}

// DriverContext 驱动单元的渲染上下文
type DriverContext struct {
	Module      string
	FileName    string
	EntryPoints []string // 按划分序号升序
	Namespaces  []string // 需要创建的子模块，按限定名排序，父在子前
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
