package main

import (
	"context"
	"time"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/emit"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
	"github.com/CodMac/cppbind/partition"
	"go.uber.org/zap"
)

// BindingProcessor 过滤 -> 入库 -> 不动点分类 -> 命名 -> 划分 -> 发射
type BindingProcessor struct {
	Runtime      core.Runtime
	Options      core.Options
	Partitions   int
	IterationCap int
	Workers      int
	Filter       *core.CandidateFilter
	logger       *zap.SugaredLogger
}

// ProcessResult 一次运行的全部结果
type ProcessResult struct {
	Context  *core.BindingContext
	Plan     *partition.Plan
	Output   *emit.Output
	Filtered int // 被过滤规则排除的声明个数
}

func NewBindingProcessor(rt core.Runtime, opts core.Options, partitions, iterationCap, workers int, filter *core.CandidateFilter, log *zap.SugaredLogger) *BindingProcessor {
	if partitions <= 0 {
		partitions = 1
	}
	return &BindingProcessor{
		Runtime:      rt,
		Options:      opts,
		Partitions:   partitions,
		IterationCap: iterationCap,
		Workers:      workers,
		Filter:       filter,
		logger:       logger.OrNop(log).With(logger.FieldComponent, "processor"),
	}
}

func (bp *BindingProcessor) Process(ctx context.Context, decls []*model.Declaration) (*ProcessResult, error) {
	classifier, err := core.GetClassifier(bp.Runtime, bp.Options)
	if err != nil {
		return nil, err
	}
	resolver, err := core.GetNameResolver(bp.Runtime)
	if err != nil {
		return nil, err
	}
	renderer, err := core.GetRenderer(bp.Runtime, bp.Options)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{Context: core.NewBindingContext(bp.logger)}
	bc := result.Context

	// --- 阶段 1: 候选过滤与入库 ---
	start := time.Now()
	for _, decl := range decls {
		if !bp.Filter.Admit(decl) {
			result.Filtered++
			continue
		}
		bc.AddDeclaration(decl)
	}
	bp.phaseDone("admit", start, bc.Len())

	// --- 阶段 2: 不动点分类 ---
	start = time.Now()
	err = bc.Resolve(ctx, classifier, core.ResolveOptions{IterationCap: bp.IterationCap, Workers: bp.Workers})
	if err != nil {
		return nil, errors.Wrap(err, "classify declarations")
	}
	bp.phaseDone("classify", start, len(bc.Bindable()))

	// --- 阶段 3: 绑定名 (划分入口名预留) ---
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "naming aborted")
	}
	start = time.Now()
	for k := 0; k < bp.Partitions; k++ {
		bc.Reserve(resolver.EntryPoint(bp.Options.Module, k))
	}
	if err := core.NewBinder(resolver, bp.logger).BindNames(bc); err != nil {
		return nil, errors.Wrap(err, "assign binding names")
	}
	bp.phaseDone("name", start, len(bc.Bindable()))

	// --- 阶段 4: 划分 ---
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "partitioning aborted")
	}
	start = time.Now()
	result.Plan, err = partition.NewPartitioner(bp.logger).Partition(bc, bp.Partitions)
	if err != nil {
		return nil, errors.Wrap(err, "partition bound declarations")
	}
	bp.phaseDone("partition", start, len(result.Plan.Partitions))

	// --- 阶段 5: 发射 ---
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "emission aborted")
	}
	start = time.Now()
	result.Output, err = emit.NewEmitter(bp.Options.Module, renderer, resolver, bp.logger).Emit(bc, result.Plan)
	if err != nil {
		return nil, errors.Wrap(err, "emit units")
	}
	bp.phaseDone("emit", start, len(result.Output.Units))
	return result, nil
}

func (bp *BindingProcessor) phaseDone(phase string, start time.Time, count int) {
	bp.logger.Infow("phase finished",
		logger.FieldPhase, phase,
		logger.FieldCount, count,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}
