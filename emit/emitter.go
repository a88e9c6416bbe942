// Package emit 按划分结果生成各单元与驱动单元的源码。
package emit

import (
	"sort"
	"strings"
	"time"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/partition"
	"go.uber.org/zap"
)

// File 一个生成的源文件
type File struct {
	Name    string
	Content string
}

// Output 一次生成的全部产物，内容与遍历顺序无关
type Output struct {
	Units   []*File  // 按划分序号
	Driver  *File
	Sources []string // 全部生成文件名，驱动单元在前
	Modules []string // 目标运行时中的子模块路径，已排序
}

type Emitter struct {
	module   string
	renderer core.Renderer
	resolver core.NameResolver
	logger   *zap.SugaredLogger
}

func NewEmitter(module string, renderer core.Renderer, resolver core.NameResolver, log *zap.SugaredLogger) *Emitter {
	return &Emitter{
		module:   module,
		renderer: renderer,
		resolver: resolver,
		logger:   logger.OrNop(log).With(logger.FieldComponent, "emitter"),
	}
}

// Emit 为每个划分生成一个单元，再生成按序号调用全部入口的驱动单元
func (em *Emitter) Emit(bc *core.BindingContext, plan *partition.Plan) (*Output, error) {
	start := time.Now()
	out := &Output{}
	entryPoints := make([]string, 0, len(plan.Partitions))

	for k, ids := range plan.Partitions {
		unit, err := em.buildUnit(bc, plan, k, ids)
		if err != nil {
			return nil, errors.Wrapf(err, "build unit %d", k)
		}
		text, err := em.renderer.RenderUnit(unit)
		if err != nil {
			return nil, errors.Wrapf(err, "render unit %s", unit.FileName)
		}
		out.Units = append(out.Units, &File{Name: unit.FileName, Content: text})
		entryPoints = append(entryPoints, unit.EntryPoint)
		em.logger.Debugw("unit rendered",
			logger.FieldPartition, k,
			logger.FieldCount, len(unit.Entries),
			"forward_decls", len(unit.ForwardDecls))
	}

	namespaces := collectNamespaces(bc)
	driver := &core.DriverContext{
		Module:      em.module,
		FileName:    em.renderer.DriverFileName(em.module),
		EntryPoints: entryPoints,
		Namespaces:  namespaces,
	}
	text, err := em.renderer.RenderDriver(driver)
	if err != nil {
		return nil, errors.Wrap(err, "render driver")
	}
	out.Driver = &File{Name: driver.FileName, Content: text}

	out.Sources = append(out.Sources, out.Driver.Name)
	for _, u := range out.Units {
		out.Sources = append(out.Sources, u.Name)
	}
	for _, ns := range namespaces {
		out.Modules = append(out.Modules, em.resolver.ModuleName(em.module, ns))
	}
	sort.Strings(out.Modules)

	em.logger.Infow("emission finished",
		logger.FieldCount, len(out.Units),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return out, nil
}

// buildUnit 划分内按局部依赖子图的拓扑序发射；跨划分的依赖与因打破前向环而后置的依赖需要前向声明。
// 前置依赖 (model.EdgeKind.Prerequisite) 在自身注册前确保，其余依赖在注册后确保
func (em *Emitter) buildUnit(bc *core.BindingContext, plan *partition.Plan, k int, ids []string) (*core.UnitContext, error) {
	unit := core.NewUnitContext(em.module, k)
	unit.FileName = em.renderer.UnitFileName(em.module, k)
	unit.EntryPoint = em.resolver.EntryPoint(em.module, k)

	edges := bc.Edges()
	order := partition.NewGraph(ids, edges).Order(partition.AllEdges, partition.FullEdges)
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	for i, id := range order {
		e, ok := bc.Entry(id)
		if !ok || e.Fragment == nil || e.Name == "" {
			return nil, errors.AssertionFailedf("%s is not a named bindable declaration", id)
		}
		if e.Fragment.Empty() {
			em.logger.Debugw("empty registration omitted", logger.FieldDecl, id)
			continue
		}

		var deps, after, includes []string
		for _, edge := range e.Edges {
			dep := bc.NameOf(edge.To)
			if dep == "" {
				return nil, errors.AssertionFailedf("%s depends on unnamed %s", id, edge.To)
			}
			if edge.Kind.Prerequisite() {
				deps = appendUnique(deps, dep)
			} else {
				after = appendUnique(after, dep)
			}
			if target, ok := bc.Entry(edge.To); ok && target.Fragment != nil && target.Fragment.Include != "" {
				includes = appendUnique(includes, target.Fragment.Include)
			}
			if p, local := position[edge.To]; !local || p > i {
				unit.AddForwardDecl(dep)
			}
		}
		after = subtract(after, deps)
		sort.Strings(deps)
		sort.Strings(after)

		entry := &core.RenderEntry{
			Name:     e.Name,
			Fragment: e.Fragment,
			Deps:     deps,
			After:    after,
			Includes: includes,
			Scope:    pythonScope(bc, e.Fragment.Parent),
		}
		if af := e.Fragment.Alias; af != nil && af.Target != "" && !af.Hint {
			entry.Target = aliasTarget(bc, af.Target)
		}
		unit.AddEntry(entry)
	}
	unit.Seal()
	return unit, nil
}

// pythonScope 外层 record 的 Python 名称链，最外层在前
func pythonScope(bc *core.BindingContext, parent string) []string {
	var scope []string
	for parent != "" {
		e, ok := bc.Entry(parent)
		if !ok || e.Fragment == nil {
			break
		}
		scope = append([]string{e.Fragment.PyName}, scope...)
		parent = e.Fragment.Parent
	}
	return scope
}

func aliasTarget(bc *core.BindingContext, id string) *core.AliasTarget {
	e, ok := bc.Entry(id)
	if !ok || e.Fragment == nil {
		return nil
	}
	return &core.AliasTarget{
		Module: e.Fragment.Module,
		Scope:  pythonScope(bc, e.Fragment.Parent),
		PyName: e.Fragment.PyName,
	}
}

// collectNamespaces 需要创建子模块的命名空间，补全祖先；字典序保证父在子前
func collectNamespaces(bc *core.BindingContext) []string {
	seen := make(map[string]bool)
	for _, e := range bc.Bindable() {
		ns := e.Fragment.Module
		for ns != "" && !seen[ns] {
			seen[ns] = true
			i := strings.LastIndex(ns, "::")
			if i < 0 {
				break
			}
			ns = ns[:i]
		}
	}
	result := make([]string, 0, len(seen))
	for ns := range seen {
		result = append(result, ns)
	}
	sort.Strings(result)
	return result
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func subtract(list, remove []string) []string {
	result := list[:0]
	for _, v := range list {
		if !contains(remove, v) {
			result = append(result, v)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
