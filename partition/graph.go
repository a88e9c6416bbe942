package partition

import (
	"container/heap"
	"sort"

	"github.com/CodMac/cppbind/model"
)

// Graph 可绑定声明之间的依赖图，节点按身份排序
type Graph struct {
	nodes []string
	index map[string]int
	out   map[string][]*model.DependencyEdge
}

func NewGraph(ids []string, edges []*model.DependencyEdge) *Graph {
	g := &Graph{
		nodes: append([]string(nil), ids...),
		index: make(map[string]int, len(ids)),
		out:   make(map[string][]*model.DependencyEdge),
	}
	sort.Strings(g.nodes)
	for i, id := range g.nodes {
		g.index[id] = i
	}
	for _, e := range edges {
		if _, ok := g.index[e.From]; !ok {
			continue
		}
		if _, ok := g.index[e.To]; !ok || e.From == e.To {
			continue
		}
		g.out[e.From] = append(g.out[e.From], e)
	}
	for _, list := range g.out {
		sort.Slice(list, func(i, j int) bool {
			if list[i].To != list[j].To {
				return list[i].To < list[j].To
			}
			return list[i].Kind < list[j].Kind
		})
	}
	return g
}

func (g *Graph) Nodes() []string {
	return g.nodes
}

// Successors 满足 keep 的出边目标，去重并按身份排序
func (g *Graph) Successors(id string, keep func(*model.DependencyEdge) bool) []string {
	var result []string
	for _, e := range g.out[id] {
		if !keep(e) {
			continue
		}
		if n := len(result); n > 0 && result[n-1] == e.To {
			continue
		}
		result = append(result, e.To)
	}
	return result
}

// FullEdges 只保留不能用前向声明满足的边
func FullEdges(e *model.DependencyEdge) bool {
	return e.Strength == model.Full
}

// PlacementEdges 只保留决定全局顺序的边
func PlacementEdges(e *model.DependencyEdge) bool {
	return e.Kind.Placement()
}

// AllEdges 保留全部边
func AllEdges(*model.DependencyEdge) bool {
	return true
}

// --- 强连通分量 ---

// StronglyConnected 迭代版 Tarjan，只返回含两个以上节点的分量，分量内与分量间均按身份排序
func (g *Graph) StronglyConnected(keep func(*model.DependencyEdge) bool) [][]string {
	const unvisited = -1
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	type frame struct {
		v    int
		succ []string
		next int
	}
	var stack []int
	var components [][]string
	counter := 0

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		call := []frame{{v: root, succ: g.Successors(g.nodes[root], keep)}}
		index[root], low[root] = counter, counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			top := &call[len(call)-1]
			if top.next < len(top.succ) {
				w := g.index[top.succ[top.next]]
				top.next++
				if index[w] == unvisited {
					index[w], low[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{v: w, succ: g.Successors(g.nodes[w], keep)})
				} else if onStack[w] && index[w] < low[top.v] {
					low[top.v] = index[w]
				}
				continue
			}

			v := top.v
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].v
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
			if low[v] != index[v] {
				continue
			}
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, g.nodes[w])
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				sort.Strings(comp)
				components = append(components, comp)
			}
		}
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

// ShortestCycle 分量内最短的环，长度相同时取起点身份最小者，环从最小身份开始
func (g *Graph) ShortestCycle(component []string, keep func(*model.DependencyEdge) bool) []string {
	member := make(map[string]bool, len(component))
	for _, id := range component {
		member[id] = true
	}

	var best []string
	for _, start := range component {
		prev := map[string]string{}
		queue := []string{start}
		found := false
		for len(queue) > 0 && !found {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range g.Successors(cur, keep) {
				if !member[next] {
					continue
				}
				if next == start {
					prev[start] = cur
					found = true
					break
				}
				if _, seen := prev[next]; seen {
					continue
				}
				prev[next] = cur
				queue = append(queue, next)
			}
		}
		if !found {
			continue
		}

		var cycle []string
		for cur := prev[start]; cur != start; cur = prev[cur] {
			cycle = append(cycle, cur)
		}
		cycle = append(cycle, start)
		for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
			cycle[i], cycle[j] = cycle[j], cycle[i]
		}
		if best == nil || len(cycle) < len(best) {
			best = cycle
		}
	}
	return best
}

// --- 拓扑序 ---

// TopologicalOrder 依赖在前的 Kahn 排序，就绪节点中身份最小者优先；
// 剩余节点成环时取身份最小者打破僵局
func (g *Graph) TopologicalOrder(keep func(*model.DependencyEdge) bool) []string {
	return g.Order(keep, keep)
}

// Order 同 TopologicalOrder，但打破僵局时优先选择 strong 依赖已全部就位的节点
func (g *Graph) Order(keep, strong func(*model.DependencyEdge) bool) []string {
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string)
	for _, id := range g.nodes {
		deps := g.Successors(id, keep)
		pending[id] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := &idHeap{}
	for _, id := range g.nodes {
		if pending[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]string, 0, len(g.nodes))
	placed := make(map[string]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		if ready.Len() == 0 {
			id := g.breakStall(placed, strong)
			pending[id] = 0
			heap.Push(ready, id)
		}
		id := heap.Pop(ready).(string)
		if placed[id] {
			continue
		}
		placed[id] = true
		order = append(order, id)
		for _, d := range dependents[id] {
			if placed[d] {
				continue
			}
			pending[d]--
			if pending[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	return order
}

// breakStall 未就位节点中身份最小、且 strong 依赖都已就位者；没有时取身份最小者
func (g *Graph) breakStall(placed map[string]bool, strong func(*model.DependencyEdge) bool) string {
	first := ""
	for _, id := range g.nodes {
		if placed[id] {
			continue
		}
		if first == "" {
			first = id
		}
		satisfied := true
		for _, dep := range g.Successors(id, strong) {
			if !placed[dep] {
				satisfied = false
				break
			}
		}
		if satisfied {
			return id
		}
	}
	return first
}

// idHeap 身份的最小堆
type idHeap []string

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) {
	*h = append(*h, x.(string))
}

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
