// Package partition 把可绑定声明划分为若干可独立编译的单元。
//
// 全局顺序是基类与外层作用域边的拓扑序，按代价切成连续的块；
// 完整依赖边 (基类 / 值成员) 成环时无法用前向声明打破，返回 CycleError。
package partition

import (
	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
	"go.uber.org/zap"
)

// Node 一个待划分的声明
type Node struct {
	ID   string
	Name string // 报错时使用的 C++ 拼写
	Cost int
}

// Plan 划分结果
type Plan struct {
	Partitions [][]string     // 每个划分内的声明，按全局顺序
	Of         map[string]int // 声明身份 -> 划分序号
	Order      []string       // 全局顺序
}

// Costs 每个划分的代价之和
func (p *Plan) Costs(nodes []Node) []int {
	cost := make(map[string]int, len(nodes))
	for _, n := range nodes {
		cost[n.ID] = n.Cost
	}
	result := make([]int, len(p.Partitions))
	for i, part := range p.Partitions {
		for _, id := range part {
			result[i] += cost[id]
		}
	}
	return result
}

type Partitioner struct {
	logger *zap.SugaredLogger
}

func NewPartitioner(log *zap.SugaredLogger) *Partitioner {
	return &Partitioner{logger: logger.OrNop(log).With(logger.FieldComponent, "partitioner")}
}

// Partition 划分 BindingContext 中全部可绑定声明，必须在不动点分类完成之后调用
func (p *Partitioner) Partition(bc *core.BindingContext, count int) (*Plan, error) {
	bindable := bc.Bindable()
	nodes := make([]Node, 0, len(bindable))
	for _, e := range bindable {
		if e.Fragment == nil {
			return nil, errors.AssertionFailedf("%s has no fragment; classification is not finished", e.Decl.ID)
		}
		nodes = append(nodes, Node{ID: e.Decl.ID, Name: e.Decl.Spelling(), Cost: e.Fragment.Cost()})
	}
	return p.Split(nodes, bc.Edges(), count)
}

// Split 先检查完整依赖边是否成环，再按全局顺序切成 count 个代价均衡的连续块
func (p *Partitioner) Split(nodes []Node, edges []*model.DependencyEdge, count int) (*Plan, error) {
	if count < 1 {
		return nil, errors.Newf("partition count must be at least 1, got %d", count)
	}

	ids := make([]string, 0, len(nodes))
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
		byID[n.ID] = n
	}
	g := NewGraph(ids, edges)

	if comps := g.StronglyConnected(FullEdges); len(comps) > 0 {
		cycle := g.ShortestCycle(comps[0], FullEdges)
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			names = append(names, byID[id].Name)
		}
		p.logger.Errorw("cycle of full dependency edges", "components", len(comps), "cycle", names)
		return nil, errors.NewCycleError(names)
	}

	order := g.TopologicalOrder(PlacementEdges)
	plan := &Plan{
		Partitions: make([][]string, count),
		Of:         make(map[string]int, len(order)),
		Order:      order,
	}

	remaining := 0
	for _, n := range nodes {
		remaining += n.Cost
	}
	next := 0
	for k := 0; k < count; k++ {
		left := count - k
		target := (remaining + left - 1) / left
		chunk := 0
		for next < len(order) && (chunk < target || k == count-1) {
			id := order[next]
			plan.Partitions[k] = append(plan.Partitions[k], id)
			plan.Of[id] = k
			chunk += byID[id].Cost
			next++
		}
		remaining -= chunk
		p.logger.Debugw("partition planned",
			logger.FieldPartition, k,
			logger.FieldCount, len(plan.Partitions[k]),
			"cost", chunk)
	}
	return plan, nil
}
