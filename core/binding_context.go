package core

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
	"go.uber.org/zap"
)

// reasonInvalidModel 前端数据不完整或 payload 与种类不符
const reasonInvalidModel = "invalid front-end data"

// Entry 一个候选声明在本次运行中的全部状态
type Entry struct {
	Decl        *model.Declaration
	Verdict     model.Verdict
	Name        string // 绑定名，仅 Bindable 有
	Fragment    *model.Fragment
	Edges       []*model.DependencyEdge
	MemberSkips []*model.Diagnostic
}

// BindingContext 结论、绑定名与依赖图的唯一来源，显式传递给每个组件
type BindingContext struct {
	entries  map[string]*Entry
	decls    map[string]*model.Declaration
	ids      []string          // 按身份排序
	names    map[string]string // 绑定名 -> 身份
	reserved map[string]bool
	hints    map[string]string // 实例化 record 身份 -> 别名身份
	snapshot atomic.Pointer[Snapshot]
	mutex    sync.Mutex // 提交结论与登记名称时持有
	logger   *zap.SugaredLogger
}

func NewBindingContext(log *zap.SugaredLogger) *BindingContext {
	bc := &BindingContext{
		entries:  make(map[string]*Entry),
		decls:    make(map[string]*model.Declaration),
		ids:      make([]string, 0),
		names:    make(map[string]string),
		reserved: make(map[string]bool),
		hints:    make(map[string]string),
		logger:   logger.OrNop(log).With(logger.FieldComponent, "binding-context"),
	}
	bc.snapshot.Store(&Snapshot{decls: bc.decls, verdicts: map[string]model.Verdict{}, hints: bc.hints})
	return bc
}

// AddDeclaration 入库一个候选声明，身份相同的重复声明被折叠，返回是否为新声明
func (bc *BindingContext) AddDeclaration(decl *model.Declaration) bool {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if decl.ID == "" && decl.Payload() {
		decl.ID = decl.Identity()
	}
	if decl.ID == "" {
		decl.ID = decl.QualifiedName
	}
	if _, ok := bc.entries[decl.ID]; ok {
		bc.logger.Debugw("duplicate declaration collapsed", logger.FieldDecl, decl.ID)
		return false
	}

	entry := &Entry{Decl: decl, Verdict: model.Verdict{State: model.Pending}}
	if !decl.Payload() || decl.QualifiedName == "" {
		entry.Verdict = model.NewSkipped(reasonInvalidModel)
	}
	bc.entries[decl.ID] = entry
	bc.decls[decl.ID] = decl

	i := sort.SearchStrings(bc.ids, decl.ID)
	bc.ids = append(bc.ids, "")
	copy(bc.ids[i+1:], bc.ids[i:])
	bc.ids[i] = decl.ID
	return true
}

// IDs 全部候选声明的身份，按身份排序
func (bc *BindingContext) IDs() []string {
	return append([]string(nil), bc.ids...)
}

// Len 候选声明个数
func (bc *BindingContext) Len() int {
	return len(bc.ids)
}

func (bc *BindingContext) Entry(id string) (*Entry, bool) {
	e, ok := bc.entries[id]
	return e, ok
}

// Verdict 当前结论
func (bc *BindingContext) Verdict(id string) (model.Verdict, bool) {
	e, ok := bc.entries[id]
	if !ok {
		return model.Verdict{}, false
	}
	return e.Verdict, true
}

// Snapshot 最近一次发布的快照
func (bc *BindingContext) Snapshot() *Snapshot {
	return bc.snapshot.Load()
}

// publish 复制当前结论，发布为新的不可变快照
func (bc *BindingContext) publish(round int, final bool) *Snapshot {
	verdicts := make(map[string]model.Verdict, len(bc.entries))
	for id, e := range bc.entries {
		verdicts[id] = e.Verdict
	}
	hints := make(map[string]string, len(bc.hints))
	for k, v := range bc.hints {
		hints[k] = v
	}
	snap := &Snapshot{round: round, final: final, decls: bc.decls, verdicts: verdicts, hints: hints}
	bc.snapshot.Store(snap)
	return snap
}

// Bindable 全部可绑定声明，按身份排序
func (bc *BindingContext) Bindable() []*Entry {
	result := make([]*Entry, 0, len(bc.ids))
	for _, id := range bc.ids {
		if e := bc.entries[id]; e.Verdict.State == model.Bindable {
			result = append(result, e)
		}
	}
	return result
}

// Edges 可绑定声明之间的全部依赖边，按 (From, To, Kind) 排序
func (bc *BindingContext) Edges() []*model.DependencyEdge {
	var edges []*model.DependencyEdge
	for _, e := range bc.Bindable() {
		edges = append(edges, e.Edges...)
	}
	sortEdges(edges)
	return edges
}

// Diagnostics 被跳过的声明与成员，按限定名、原因排序
func (bc *BindingContext) Diagnostics() []*model.Diagnostic {
	var diags []*model.Diagnostic
	for _, id := range bc.ids {
		e := bc.entries[id]
		if e.Verdict.State == model.Skipped {
			diags = append(diags, &model.Diagnostic{
				QualifiedName: id,
				Kind:          e.Decl.Kind,
				Reason:        e.Verdict.Reason,
				Location:      e.Decl.Location,
			})
		}
		diags = append(diags, e.MemberSkips...)
	}
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].QualifiedName != diags[j].QualifiedName {
			return diags[i].QualifiedName < diags[j].QualifiedName
		}
		if diags[i].Reason != diags[j].Reason {
			return diags[i].Reason < diags[j].Reason
		}
		return diags[i].Kind < diags[j].Kind
	})
	return diags
}

// Counts 各结论的个数
func (bc *BindingContext) Counts() map[model.VerdictState]int {
	counts := make(map[model.VerdictState]int)
	for _, e := range bc.entries {
		counts[e.Verdict.State]++
	}
	return counts
}

// Reserve 预留名称 (e.g., 划分单元入口)，任何声明都不会得到这些绑定名
func (bc *BindingContext) Reserve(names ...string) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	for _, n := range names {
		bc.reserved[n] = true
	}
}

// claimName 在锁内复查名称表后登记绑定名
func (bc *BindingContext) claimName(name, id string) bool {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	if bc.reserved[name] {
		return false
	}
	if owner, ok := bc.names[name]; ok && owner != id {
		return false
	}
	bc.names[name] = id
	bc.entries[id].Name = name
	return true
}

// NameOf 声明的绑定名，未命名时返回 ""
func (bc *BindingContext) NameOf(id string) string {
	if e, ok := bc.entries[id]; ok {
		return e.Name
	}
	return ""
}

// HintFor 实例化 record 的命名提示 (别名身份)
func (bc *BindingContext) HintFor(id string) string {
	return bc.hints[id]
}

func sortEdges(edges []*model.DependencyEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
}
