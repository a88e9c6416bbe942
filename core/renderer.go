package core

import (
	"github.com/CodMac/cppbind/errors"
)

// Renderer 把结构化的注册片段渲染为目标运行时的源码
type Renderer interface {
	// UnitFileName 第 index 个划分单元的文件名
	UnitFileName(module string, index int) string
	// DriverFileName 驱动单元的文件名
	DriverFileName(module string) string
	// RenderUnit 渲染一个划分单元
	RenderUnit(unit *UnitContext) (string, error)
	// RenderDriver 渲染驱动单元
	RenderDriver(driver *DriverContext) (string, error)
}

// RendererFactory 按运行时选项构造 Renderer
type RendererFactory func(opts Options) Renderer

var rendererMap = make(map[Runtime]RendererFactory)

// RegisterRenderer 注册一个运行时与其对应的 Renderer 工厂
func RegisterRenderer(rt Runtime, factory RendererFactory) {
	rendererMap[rt] = factory
}

// GetRenderer 根据运行时获取 Renderer 实例
func GetRenderer(rt Runtime, opts Options) (Renderer, error) {
	factory, ok := rendererMap[rt]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownRuntime, "no renderer registered for runtime: %s", rt)
	}
	return factory(opts), nil
}
