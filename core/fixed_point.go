package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
)

const (
	DefaultIterationCap = 64
	DefaultWorkers      = 4

	reasonUnresolvedCycle = "unresolved dependency cycle"
)

// ResolveOptions 不动点迭代的参数
type ResolveOptions struct {
	IterationCap int
	Workers      int
}

// Resolve 不动点分类。每一轮针对上一轮的不可变快照分类，结论在锁内提交；
// 只有阻塞依赖的结论发生变化的 Deferred 声明才会按身份顺序重新入队。
// 结束后剩余的 Deferred 被标记为 Skipped，随后对全部 Bindable 声明执行最终轮，生成片段与依赖边。
func (bc *BindingContext) Resolve(ctx context.Context, classifier Classifier, opts ResolveOptions) error {
	if opts.IterationCap <= 0 {
		opts.IterationCap = DefaultIterationCap
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	worklist := make([]string, 0, len(bc.ids))
	for _, id := range bc.ids {
		if bc.entries[id].Verdict.State == model.Pending {
			worklist = append(worklist, id)
		}
	}

	snap := bc.publish(0, false)
	for round := 1; len(worklist) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "classification aborted")
		}
		if round > opts.IterationCap {
			bc.logger.Warnw("iteration cap reached", logger.FieldRound, round-1, logger.FieldCount, len(worklist))
			break
		}

		start := time.Now()
		staged := make(map[string]model.Verdict, len(worklist))
		err := runParallel(worklist, opts.Workers, func(id string) error {
			res := bc.classifySafely(classifier, bc.decls[id], snap)
			bc.mutex.Lock()
			staged[id] = res.Verdict
			bc.mutex.Unlock()
			return nil
		})
		if err != nil {
			return err
		}

		changed := make([]string, 0)
		for _, id := range worklist {
			if v := staged[id]; v != snap.verdicts[id] {
				bc.entries[id].Verdict = v
				changed = append(changed, id)
			}
		}
		snap = bc.publish(round, false)
		bc.logger.Debugw("classification round",
			logger.FieldRound, round,
			logger.FieldCount, len(worklist),
			"changed", len(changed),
			logger.FieldDurationMS, time.Since(start).Milliseconds())

		worklist = bc.requeue(changed)
	}

	for _, id := range bc.ids {
		e := bc.entries[id]
		if !e.Verdict.Terminal() {
			e.Verdict = model.NewSkipped(reasonUnresolvedCycle)
		}
	}

	bc.computeHints()
	return bc.finalPass(ctx, classifier, opts.Workers)
}

// requeue 阻塞依赖在本轮发生变化的 Deferred 声明，按身份排序
func (bc *BindingContext) requeue(changed []string) []string {
	if len(changed) == 0 {
		return nil
	}
	changedSet := make(map[string]bool, len(changed))
	for _, id := range changed {
		changedSet[id] = true
	}
	var next []string
	for _, id := range bc.ids {
		v := bc.entries[id].Verdict
		if v.State == model.Deferred && changedSet[v.Blocker] {
			next = append(next, id)
		}
	}
	return next
}

// computeHints 为实例化 record 选择命名提示: 同一作用域内身份最小的可绑定别名
func (bc *BindingContext) computeHints() {
	for _, id := range bc.ids {
		e := bc.entries[id]
		if e.Decl.Kind != model.Alias || e.Verdict.State != model.Bindable {
			continue
		}
		target := e.Decl.Alias.Target
		if target == nil || target.Const || target.Volatile || target.DeclID == "" {
			continue
		}
		te, ok := bc.entries[target.DeclID]
		if !ok || te.Verdict.State != model.Bindable || te.Decl.Instantiation == nil {
			continue
		}
		if scopeKey(te.Decl) != scopeKey(e.Decl) {
			continue
		}
		if _, taken := bc.hints[target.DeclID]; !taken {
			bc.hints[target.DeclID] = id
		}
	}
}

func scopeKey(d *model.Declaration) string {
	if s := d.EnclosingScope(); s != nil {
		return s.QualifiedName
	}
	return ""
}

// finalPass 针对最终快照为全部 Bindable 声明生成片段与依赖边
func (bc *BindingContext) finalPass(ctx context.Context, classifier Classifier, workers int) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "classification aborted")
	}

	snap := bc.publish(-1, true)
	bindable := make([]string, 0, len(bc.ids))
	for _, id := range bc.ids {
		if bc.entries[id].Verdict.State == model.Bindable {
			bindable = append(bindable, id)
		}
	}

	results := make(map[string]*Classification, len(bindable))
	err := runParallel(bindable, workers, func(id string) error {
		res := bc.classifySafely(classifier, bc.decls[id], snap)
		bc.mutex.Lock()
		results[id] = res
		bc.mutex.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range bindable {
		res := results[id]
		e := bc.entries[id]
		if res.Verdict.State != model.Bindable || res.Fragment == nil {
			return errors.AssertionFailedf("final classification of %s changed its verdict to %s (%s)",
				id, res.Verdict.State, res.Verdict.Reason)
		}
		edges, err := bc.normalizeEdges(id, res.Edges, snap)
		if err != nil {
			return err
		}
		e.Fragment = res.Fragment
		e.Edges = edges
		e.MemberSkips = res.MemberSkips
	}

	bc.collapseFunctionOverloads()
	bc.logger.Infow("classification finished", logger.FieldCount, len(bindable))
	return nil
}

// normalizeEdges 去重、去自环，并确认所有目标都是可绑定声明
func (bc *BindingContext) normalizeEdges(from string, edges []*model.DependencyEdge, snap *Snapshot) ([]*model.DependencyEdge, error) {
	seen := make(map[string]bool)
	result := make([]*model.DependencyEdge, 0, len(edges))
	for _, edge := range edges {
		if edge.To == from {
			continue
		}
		if v, ok := snap.verdicts[edge.To]; !ok || v.State != model.Bindable {
			return nil, errors.AssertionFailedf("%s references %s which is not bindable", from, edge.To)
		}
		key := edge.To + "\x00" + string(edge.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		edge.From = from
		result = append(result, edge)
	}
	sortEdges(result)
	return result, nil
}

// classifySafely 分类器的 panic 不越过 BindingContext 边界，转为 Skipped
func (bc *BindingContext) classifySafely(classifier Classifier, decl *model.Declaration, view View) (res *Classification) {
	defer func() {
		if r := recover(); r != nil {
			bc.logger.Errorw("classifier panicked", logger.FieldDecl, decl.ID, logger.FieldError, r)
			res = Skip(fmt.Sprintf("internal classifier error: %v", r))
		}
	}()
	res = classifier.Classify(decl, view)
	if res == nil {
		res = Skip("classifier returned no result")
	}
	return res
}

// runParallel 有界 worker 池，按给定顺序派发任务，返回第一个错误
func runParallel(ids []string, workers int, task func(string) error) error {
	if len(ids) == 0 {
		return nil
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	idChan := make(chan string, len(ids))
	for _, id := range ids {
		idChan <- id
	}
	close(idChan)

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				if err := task(id); err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// sortedKeys 辅助: map 的有序键
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
