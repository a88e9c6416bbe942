package core

import (
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
)

// Classification 一次分类的结果
type Classification struct {
	Verdict     model.Verdict
	Fragment    *model.Fragment         // 仅在最终轮且 Bindable 时给出
	Edges       []*model.DependencyEdge // 仅在最终轮给出
	MemberSkips []*model.Diagnostic     // 被跳过的成员/重载
}

// Classifier 对单个声明给出结论。必须是声明与视图中已有结论的纯函数。
type Classifier interface {
	// Classify 在非最终轮只需给出 Verdict；最终轮 (view.Final()) 还需给出片段与依赖边
	Classify(decl *model.Declaration, view View) *Classification
}

// ClassifierFactory 按运行时选项构造 Classifier
type ClassifierFactory func(opts Options) Classifier

var classifierMap = make(map[Runtime]ClassifierFactory)

// RegisterClassifier 注册一个运行时与其对应的 Classifier 工厂
func RegisterClassifier(rt Runtime, factory ClassifierFactory) {
	classifierMap[rt] = factory
}

// GetClassifier 根据运行时获取 Classifier 实例
func GetClassifier(rt Runtime, opts Options) (Classifier, error) {
	factory, ok := classifierMap[rt]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownRuntime, "no classifier registered for runtime: %s", rt)
	}
	return factory(opts), nil
}

// Skip 构造 Skipped 结论
func Skip(reason string) *Classification {
	return &Classification{Verdict: model.NewSkipped(reason)}
}

// Defer 构造 Deferred 结论
func Defer(blocker string) *Classification {
	return &Classification{Verdict: model.NewDeferred(blocker)}
}
