package core

import (
	"sort"

	"github.com/CodMac/cppbind/model"
)

const reasonShadowed = "registration shadowed by an overload with the same Python signature"

// CollapseOverloads 消解同一作用域内同名注册的擦除签名冲突。
// groups 按身份顺序排列，每组是一个重载从最小元数到完整元数的注册。
// 完整元数的注册优先占用签名，其次按组顺序；返回保留的注册与被完全遮蔽的组下标。
func CollapseOverloads(groups [][]*model.Callable) ([][]*model.Callable, []int) {
	claimed := make(map[string]bool)
	keep := make([]map[*model.Callable]bool, len(groups))
	for i := range groups {
		keep[i] = make(map[*model.Callable]bool)
	}

	for _, full := range []bool{true, false} {
		for i, group := range groups {
			for _, c := range group {
				if c.Full() != full {
					continue
				}
				key := c.Erased()
				if claimed[key] {
					continue
				}
				claimed[key] = true
				keep[i][c] = true
			}
		}
	}

	result := make([][]*model.Callable, len(groups))
	var shadowed []int
	for i, group := range groups {
		for _, c := range group {
			if keep[i][c] {
				result[i] = append(result[i], c)
			}
		}
		if len(result[i]) == 0 && len(group) > 0 {
			shadowed = append(shadowed, i)
		}
	}
	return result, shadowed
}

// collapseFunctionOverloads 对同一模块中同名的自由函数重载做冲突消解
func (bc *BindingContext) collapseFunctionOverloads() {
	groups := make(map[string][]*Entry)
	for _, e := range bc.Bindable() {
		if e.Fragment.Function == nil {
			continue
		}
		key := e.Fragment.Module + "\x00" + e.Fragment.PyName
		groups[key] = append(groups[key], e)
	}

	for _, key := range sortedKeys(groups) {
		entries := groups[key]
		if len(entries) < 2 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Decl.ID < entries[j].Decl.ID })

		callables := make([][]*model.Callable, len(entries))
		for i, e := range entries {
			callables[i] = e.Fragment.Function.Overloads
		}
		kept, shadowed := CollapseOverloads(callables)
		for i, e := range entries {
			e.Fragment.Function.Overloads = kept[i]
		}
		for _, i := range shadowed {
			e := entries[i]
			e.MemberSkips = append(e.MemberSkips, &model.Diagnostic{
				QualifiedName: e.Decl.ID,
				Kind:          model.Function,
				Reason:        reasonShadowed,
				Location:      e.Decl.Location,
			})
		}
	}
}
