package model

// VerdictState 分类结论
type VerdictState string

const (
	Pending  VerdictState = "PENDING"  // 尚未分类
	Bindable VerdictState = "BINDABLE" // 可绑定
	Skipped  VerdictState = "SKIPPED"  // 不可表示，带原因
	Deferred VerdictState = "DEFERRED" // 等待某个依赖的结论
)

// Verdict 声明的绑定结论
type Verdict struct {
	State   VerdictState `json:"State"`
	Reason  string       `json:"Reason,omitempty"`  // Skipped 的原因
	Blocker string       `json:"Blocker,omitempty"` // Deferred 时阻塞的声明身份
}

func NewBindable() Verdict {
	return Verdict{State: Bindable}
}

func NewSkipped(reason string) Verdict {
	return Verdict{State: Skipped, Reason: reason}
}

func NewDeferred(blocker string) Verdict {
	return Verdict{State: Deferred, Blocker: blocker}
}

// Terminal Bindable 与 Skipped 不再变化
func (v Verdict) Terminal() bool {
	return v.State == Bindable || v.State == Skipped
}

// Diagnostic 一条被跳过的声明或成员
type Diagnostic struct {
	QualifiedName string    `json:"QualifiedName"`
	Kind          DeclKind  `json:"Kind"`
	Reason        string    `json:"Reason"`
	Location      *Location `json:"Location,omitempty"`
}
