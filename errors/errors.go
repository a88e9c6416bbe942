// Package errors 对 github.com/cockroachdb/errors 的再导出，并定义 cppbind 的哨兵错误。
//
// 用法:
//
//	if err := partition(); err != nil {
//	    return errors.Wrap(err, "partition bound declarations")
//	}
//	if errors.Is(err, errors.ErrDependencyCycle) { ... }
package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// 创建与包装
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// 面向用户的提示与细节
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// 检查
var (
	Is           = crdb.Is
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// 断言: 内部不变量被破坏
var (
	AssertionFailedf     = crdb.AssertionFailedf
	WithAssertionFailure = crdb.WithAssertionFailure
	IsAssertionFailure   = crdb.IsAssertionFailure
)

// 哨兵错误，配合 errors.Is 使用
var (
	// ErrDependencyCycle 完整依赖边 (基类 / 值成员) 构成环，无法用前向声明打破
	ErrDependencyCycle = New("dependency cycle of full edges")

	// ErrNameCollision 绑定名冲突无法消解
	ErrNameCollision = New("unresolved binding name collision")

	// ErrInvalidModel 前端给出的声明模型不合法
	ErrInvalidModel = New("invalid declaration model")

	// ErrUnknownRuntime 目标运行时未注册
	ErrUnknownRuntime = New("unknown target runtime")
)

// CycleError 完整依赖边构成的最小环
type CycleError struct {
	Participants []string // 环上的声明，按环的顺序，首尾相接
}

func (e *CycleError) Error() string {
	if len(e.Participants) == 0 {
		return ErrDependencyCycle.Error()
	}
	path := append(append([]string{}, e.Participants...), e.Participants[0])
	return fmt.Sprintf("%s: %s", ErrDependencyCycle.Error(), strings.Join(path, " -> "))
}

// Unwrap 使 errors.Is(err, ErrDependencyCycle) 成立
func (e *CycleError) Unwrap() error {
	return ErrDependencyCycle
}

// NewCycleError 构造带提示的环错误
func NewCycleError(participants []string) error {
	return WithHintf(WithStack(&CycleError{Participants: participants}),
		"exclude one of %s with a filter rule (e.g. \"-%s\")",
		strings.Join(participants, ", "), participants[0])
}
