package core

import (
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
)

// --- 运行时特有的命名规则 ---

type NameResolver interface {
	// BuildQualifiedName 根据父作用域和当前名构建限定名 (C++ 用 "::")
	BuildQualifiedName(parentQN, name string) string

	// BindingName 默认绑定名: 改编后的限定名 (含模板实参)
	BindingName(decl *model.Declaration) string

	// SignatureName 带参数签名的绑定名，用于消解函数重载的冲突
	SignatureName(decl *model.Declaration) string

	// HintName 以别名命名的绑定名，decl 没有命名提示时返回 ""
	HintName(decl *model.Declaration, hint *model.Declaration) string

	// EntryPoint 第 index 个划分单元的入口名，预留给绑定名冲突检查
	EntryPoint(module string, index int) string

	// ModuleName 命名空间在目标运行时中的完整模块路径 (e.g., "example.ns.from_")
	ModuleName(module, namespace string) string
}

var nameResolverMap = make(map[Runtime]NameResolver)

// RegisterNameResolver 注册一个运行时与其对应的 NameResolver
func RegisterNameResolver(rt Runtime, resolver NameResolver) {
	nameResolverMap[rt] = resolver
}

// GetNameResolver 根据运行时获取 NameResolver 实例
func GetNameResolver(rt Runtime) (NameResolver, error) {
	resolver, ok := nameResolverMap[rt]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownRuntime, "no NameResolver for runtime: %s", rt)
	}
	return resolver, nil
}
