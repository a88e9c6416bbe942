package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/CodMac/cppbind/emit"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/logger"
	"go.uber.org/zap"
)

const (
	SourcesSuffix = ".sources"
	ModulesSuffix = ".modules"
)

type Exporter struct {
	outputDir string
	logger    *zap.SugaredLogger
}

func NewExporter(outputDir string, log *zap.SugaredLogger) *Exporter {
	return &Exporter{outputDir: outputDir, logger: logger.OrNop(log).With(logger.FieldComponent, "exporter")}
}

// Path 输出目录下的文件路径
func (p *Exporter) Path(name string) string {
	return filepath.Join(p.outputDir, name)
}

// ExportUnits 写出全部生成单元、<module>.sources 与 <module>.modules，返回写出的单元个数
func (p *Exporter) ExportUnits(module string, out *emit.Output) (int, error) {
	if err := checkSources(out.Sources); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return 0, errors.Wrapf(err, "create output directory %s", p.outputDir)
	}

	files := append([]*emit.File{out.Driver}, out.Units...)
	for _, file := range files {
		if err := p.write(file.Name, file.Content); err != nil {
			return 0, err
		}
	}
	if err := p.write(module+SourcesSuffix, lines(out.Sources)); err != nil {
		return 0, err
	}
	if err := p.write(module+ModulesSuffix, lines(out.Modules)); err != nil {
		return 0, err
	}
	p.logger.Infow("units written", logger.FieldPath, p.outputDir, logger.FieldCount, len(files))
	return len(files), nil
}

func (p *Exporter) write(name, content string) error {
	path := p.Path(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	p.logger.Debugw("file written", logger.FieldPath, path)
	return nil
}

// checkSources 同名的生成文件会互相覆盖
func checkSources(sources []string) error {
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s] {
			return errors.WithHint(
				errors.Newf("generated source %q appears more than once", s),
				"do not name your module the same as one of your namespaces/classes")
		}
		seen[s] = true
	}
	return nil
}

func lines(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, "\n") + "\n"
}
