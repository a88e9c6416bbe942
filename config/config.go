// Package config 读取 cppbind.toml。
//
// 优先级 (低 -> 高): 默认值 < 配置文件 < CPPBIND_ 环境变量 < 命令行参数。
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/CodMac/cppbind/errors"
	"github.com/spf13/viper"
)

// FileName 项目配置文件名，从工作目录向上查找
const FileName = "cppbind.toml"

// EnvPrefix 环境变量前缀 (e.g., CPPBIND_PARTITION_COUNT)
const EnvPrefix = "CPPBIND"

type Config struct {
	Module    ModuleConfig    `mapstructure:"module"`
	Partition PartitionConfig `mapstructure:"partition"`
	Classify  ClassifyConfig  `mapstructure:"classify"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Output    OutputConfig    `mapstructure:"output"`
	Includes  IncludesConfig  `mapstructure:"includes"`
}

type ModuleConfig struct {
	Name    string `mapstructure:"name"`    // 生成的扩展模块名
	Runtime string `mapstructure:"runtime"` // 目标运行时 (pybind11)
	Holder  string `mapstructure:"holder"`  // 默认 holder 模板
}

type PartitionConfig struct {
	Count int `mapstructure:"count"`
}

type ClassifyConfig struct {
	IterationCap int `mapstructure:"iteration_cap"`
	Workers      int `mapstructure:"workers"`
}

type FilterConfig struct {
	Rules []string `mapstructure:"rules"` // 按顺序求值，最后匹配的规则生效
}

type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Diagnostics string `mapstructure:"diagnostics"` // 诊断 JSONL 文件名，空为不写
	Edges       string `mapstructure:"edges"`       // 依赖边 JSONL 文件名，空为不写
	Graph       string `mapstructure:"graph"`       // mermaid HTML 文件名，空为不写
}

type IncludesConfig struct {
	IgnoreWords []string `mapstructure:"ignore_words"`
}

// SetDefaults 全部配置项的默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("module.name", "example")
	v.SetDefault("module.runtime", "pybind11")
	v.SetDefault("module.holder", "std::shared_ptr")

	v.SetDefault("partition.count", 4)

	v.SetDefault("classify.iteration_cap", 64)
	v.SetDefault("classify.workers", 4)

	v.SetDefault("filter.rules", []string{})

	v.SetDefault("output.dir", "./generated")
	v.SetDefault("output.diagnostics", "diagnostics.jsonl")
	v.SetDefault("output.edges", "")
	v.SetDefault("output.graph", "")

	v.SetDefault("includes.ignore_words", []string{})
}

// NewViper 默认值 + 环境变量；path 非空时读取该文件，否则向上查找 cppbind.toml
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		path = FindProjectConfig()
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return v, nil
}

// LoadWithViper 反序列化并校验
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load 读取配置文件 (或查找到的项目配置) 并校验
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// FindProjectConfig 从工作目录向上查找 cppbind.toml，找不到返回 ""
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
