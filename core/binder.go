package core

import (
	"fmt"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Binder 为全部可绑定声明分配全局唯一的绑定名
type Binder struct {
	resolver NameResolver
	logger   *zap.SugaredLogger
}

func NewBinder(resolver NameResolver, log *zap.SugaredLogger) *Binder {
	return &Binder{resolver: resolver, logger: logger.OrNop(log).With(logger.FieldComponent, "binder")}
}

// nameStage 一级候选名生成规则，返回 "" 表示本级不适用
type nameStage func(bc *BindingContext, e *Entry) string

// BindNames 逐级消解冲突: 默认名 -> 函数签名 -> 别名提示 -> 身份哈希。
// 同一级内撞名的声明全部进入下一级，因此后缀只取决于声明自身，与入库顺序无关。
func (b *Binder) BindNames(bc *BindingContext) error {
	stages := []nameStage{
		func(_ *BindingContext, e *Entry) string { return b.resolver.BindingName(e.Decl) },
		func(_ *BindingContext, e *Entry) string {
			if e.Decl.Kind != model.Function {
				return ""
			}
			return b.resolver.SignatureName(e.Decl)
		},
		func(bc *BindingContext, e *Entry) string {
			hint, ok := bc.decls[bc.HintFor(e.Decl.ID)]
			if !ok {
				return ""
			}
			return b.resolver.HintName(e.Decl, hint)
		},
		func(_ *BindingContext, e *Entry) string {
			return fmt.Sprintf("%s_%s", b.resolver.BindingName(e.Decl), identityHash(e.Decl.ID)[:8])
		},
		func(_ *BindingContext, e *Entry) string {
			return fmt.Sprintf("%s_%s", b.resolver.BindingName(e.Decl), identityHash(e.Decl.ID))
		},
	}

	unresolved := bc.Bindable()
	for level, stage := range stages {
		if len(unresolved) == 0 {
			break
		}

		candidates := make(map[string][]*Entry)
		var skipped []*Entry
		for _, e := range unresolved {
			name := stage(bc, e)
			if name == "" {
				skipped = append(skipped, e)
				continue
			}
			candidates[name] = append(candidates[name], e)
		}

		next := skipped
		for _, name := range sortedKeys(candidates) {
			group := candidates[name]
			if len(group) == 1 && bc.claimName(name, group[0].Decl.ID) {
				continue
			}
			next = append(next, group...)
		}
		if len(next) > 0 {
			b.logger.Debugw("binding name collisions", "level", level, logger.FieldCount, len(next))
		}
		unresolved = sortEntries(next)
	}

	if len(unresolved) > 0 {
		ids := make([]string, 0, len(unresolved))
		for _, e := range unresolved {
			ids = append(ids, e.Decl.ID)
		}
		return errors.WithAssertionFailure(errors.Wrapf(errors.ErrNameCollision, "colliding declarations: %v", ids))
	}
	return nil
}

// identityHash 声明身份的 xxhash，16 位十六进制
func identityHash(id string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(id))
}

func sortEntries(entries []*Entry) []*Entry {
	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byID[e.Decl.ID] = e
	}
	result := make([]*Entry, 0, len(entries))
	for _, id := range sortedKeys(byID) {
		result = append(result, byID[id])
	}
	return result
}
