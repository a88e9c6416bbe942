package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/CodMac/cppbind/config"
	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/frontend"
	"github.com/CodMac/cppbind/logger"
	"github.com/CodMac/cppbind/model"
	"github.com/CodMac/cppbind/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/CodMac/cppbind/x/pybind11"
)

// Version 由构建时 -ldflags 注入
var Version = "dev"

var (
	configPath string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "cppbind",
	Short: "cppbind - C++ binding decisions and pybind11 code emission",
	Long: `cppbind 读取前端给出的 C++ 声明模型，判定每个声明能否在目标运行时中表示，
并生成可分单元独立编译的 pybind11 注册代码。

Examples:
  cppbind generate --model decls.json --partitions 8
  cppbind includes --project-sources src --out all_includes.hpp`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(logJSON, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Classify declarations and emit binding units",
	RunE:  runGenerate,
}

var includesCmd = &cobra.Command{
	Use:   "includes",
	Short: "Collect sorted, de-duplicated #include lines from project sources",
	RunE:  runIncludes,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "cppbind", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "日志详细程度 (-v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "以 JSON 输出日志")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (默认向上查找 "+config.FileName+")")

	f := generateCmd.Flags()
	f.String("model", "", "声明模型文件 (.json / .yaml)")
	f.String("module", "", "扩展模块名")
	f.Int("partitions", 0, "划分单元个数")
	f.Int("workers", 0, "分类并发数")
	f.StringSlice("filter", nil, "过滤规则 (e.g., +ns::**,-ns::detail::**)")
	f.String("out-dir", "", "输出目录")
	f.String("graph", "", "依赖图 mermaid HTML 文件名")
	_ = generateCmd.MarkFlagRequired("model")

	inc := includesCmd.Flags()
	inc.StringSlice("project-sources", nil, "源码目录")
	inc.String("out", "all_includes.hpp", "输出文件")
	inc.StringSlice("ignore", nil, "包含任一词的 #include 行被忽略")
	_ = includesCmd.MarkFlagRequired("project-sources")

	rootCmd.AddCommand(generateCmd, includesCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exitWithError("执行失败", err)
	}
}

// loadConfig 配置文件 + 环境变量 + 命令行参数
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v, err := config.NewViper(configPath)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}
	return config.LoadWithViper(v)
}

// bindFlags 只有显式给出的参数才覆盖配置文件
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	cfg, err := loadConfig(cmd, map[string]string{
		"module.name":      "module",
		"partition.count":  "partitions",
		"classify.workers": "workers",
		"filter.rules":     "filter",
		"output.dir":       "out-dir",
		"output.graph":     "graph",
	})
	if err != nil {
		return err
	}
	modelPath, _ := cmd.Flags().GetString("model")

	// 1. 读取声明模型
	fmt.Fprintf(os.Stderr, "[1/4] 📖 正在读取声明模型: %s\n", modelPath)
	m, err := frontend.Load(modelPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "    读取 %d 个声明 (重复 %d, 数据不完整 %d)\n", len(m.Declarations), m.Duplicates, m.Invalid)

	// 2. 分类、命名、划分与发射
	fmt.Fprintf(os.Stderr, "[2/4] ⚙️  正在分类并生成 %d 个单元...\n", cfg.Partition.Count)
	filter, err := core.NewCandidateFilter(cfg.Filter.Rules)
	if err != nil {
		return err
	}
	proc := NewBindingProcessor(
		core.ParseRuntime(cfg.Module.Runtime),
		core.Options{Module: cfg.Module.Name, Holder: cfg.Module.Holder},
		cfg.Partition.Count,
		cfg.Classify.IterationCap,
		cfg.Classify.Workers,
		filter,
		logger.Named("cppbind"),
	)
	result, err := proc.Process(cmd.Context(), m.Declarations)
	if err != nil {
		return err
	}

	// 3. 写入生成单元
	fmt.Fprintf(os.Stderr, "[3/4] 💾 正在写入结果文件: %s\n", cfg.Output.Dir)
	exporter := output.NewExporter(cfg.Output.Dir, logger.Named("cppbind"))
	files, err := exporter.ExportUnits(cfg.Module.Name, result.Output)
	if err != nil {
		return err
	}
	if err := runExport(cfg, exporter, result); err != nil {
		return err
	}

	counts := result.Context.Counts()
	fmt.Fprintf(os.Stderr, "    ✅ 完成: 可绑定=%d, 跳过=%d, 过滤=%d, 文件=%d\n",
		counts[model.Bindable], counts[model.Skipped], result.Filtered, files)
	fmt.Fprintf(os.Stderr, "\n[4/4] ✨ 生成结束! 总耗时: %v\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// runExport 诊断、依赖边与依赖图
func runExport(cfg *config.Config, exporter *output.Exporter, result *ProcessResult) error {
	bc := result.Context
	if cfg.Output.Diagnostics != "" {
		n, err := output.ExportDiagnostics(exporter.Path(cfg.Output.Diagnostics), bc.Diagnostics())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    🩺 诊断 %d 条 -> %s\n", n, cfg.Output.Diagnostics)
	}
	if cfg.Output.Edges != "" {
		if _, err := output.ExportEdges(exporter.Path(cfg.Output.Edges), bc.Edges()); err != nil {
			return err
		}
	}
	if cfg.Output.Graph != "" {
		nodes, edges, err := output.ExportMermaidHTML(exporter.Path(cfg.Output.Graph), bc, result.Plan, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "    🗺️  依赖图: 节点=%d, 边=%d\n", nodes, edges)
	}
	return nil
}

func runIncludes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"includes.ignore_words": "ignore"})
	if err != nil {
		return err
	}
	dirs, _ := cmd.Flags().GetStringSlice("project-sources")
	out, _ := cmd.Flags().GetString("out")

	fmt.Fprintf(os.Stderr, "[1/2] 🔍 正在扫描目录: %v\n", dirs)
	lines, err := frontend.NewIncludeScanner(cfg.Includes.IgnoreWords).Scan(dirs)
	if err != nil {
		return err
	}
	if err := frontend.WriteAllIncludes(out, lines); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "[2/2] ✅ 写入 %d 条 #include -> %s\n", len(lines), out)
	return nil
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "   提示: %s\n", hint)
	}
	os.Exit(1)
}
