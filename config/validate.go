package config

import (
	"strings"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
)

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Module.Name) == "" {
		return errors.New("module.name cannot be empty")
	}
	if strings.ContainsAny(c.Module.Name, " ./\\:") {
		return errors.Newf("module.name %q must be a plain identifier", c.Module.Name)
	}
	if core.ParseRuntime(c.Module.Runtime) != core.RuntimePybind11 {
		return errors.WithHint(
			errors.Newf("module.runtime %q is not supported", c.Module.Runtime),
			"supported runtimes: pybind11")
	}

	// 划分个数至少为 1
	if c.Partition.Count < 1 {
		return errors.Newf("partition.count must be >= 1, got %d", c.Partition.Count)
	}

	// 0 表示使用默认值，负数非法
	if c.Classify.IterationCap < 0 {
		return errors.Newf("classify.iteration_cap must be >= 0, got %d", c.Classify.IterationCap)
	}
	if c.Classify.Workers < 0 {
		return errors.Newf("classify.workers must be >= 0, got %d", c.Classify.Workers)
	}

	if _, err := core.NewCandidateFilter(c.Filter.Rules); err != nil {
		return errors.Wrap(err, "filter.rules")
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir cannot be empty")
	}
	return nil
}
