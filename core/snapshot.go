package core

import (
	"github.com/CodMac/cppbind/model"
)

// View 分类期间的只读视图
type View interface {
	// Declaration 查找候选声明，被过滤或不存在时返回 false
	Declaration(id string) (*model.Declaration, bool)
	// Verdict 查找候选声明的结论，被过滤或不存在时返回 false
	Verdict(id string) (model.Verdict, bool)
	// NamingHint 实例化 record 的命名提示 (别名身份)，没有时返回 ""
	NamingHint(id string) string
	// Final 是否为结论已全部终结的最终轮
	Final() bool
}

// Snapshot 某一轮开始时的结论快照。发布后不再修改，读者无需加锁。
type Snapshot struct {
	round    int
	final    bool
	decls    map[string]*model.Declaration // 入库后冻结，各轮共享
	verdicts map[string]model.Verdict
	hints    map[string]string
}

func (s *Snapshot) Declaration(id string) (*model.Declaration, bool) {
	d, ok := s.decls[id]
	return d, ok
}

func (s *Snapshot) Verdict(id string) (model.Verdict, bool) {
	v, ok := s.verdicts[id]
	return v, ok
}

func (s *Snapshot) NamingHint(id string) string {
	return s.hints[id]
}

func (s *Snapshot) Final() bool {
	return s.final
}

// Round 快照对应的轮次，0 为初始状态
func (s *Snapshot) Round() int {
	return s.round
}
