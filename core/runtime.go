package core

import (
	"strings"
)

// Runtime 目标嵌入运行时
type Runtime string

const (
	RuntimePybind11 Runtime = "pybind11"
)

// Options 运行时组件的构造参数
type Options struct {
	Module string // 生成的 Python 扩展模块名
	Holder string // 默认 holder 模板 (e.g., "std::shared_ptr")
}

// ParseRuntime 大小写不敏感
func ParseRuntime(name string) Runtime {
	return Runtime(strings.ToLower(strings.TrimSpace(name)))
}
