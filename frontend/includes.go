package frontend

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodMac/cppbind/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

const includeQuery = `(preproc_include path: (_) @path) @include`

// SourceExtensions 参与扫描的源文件扩展名
var SourceExtensions = []string{".hpp", ".cpp", ".h", ".hh", ".cc", ".c"}

// IncludeScanner 用 tree-sitter C++ 语法收集 #include 指令
type IncludeScanner struct {
	ignoreWords []string
}

func NewIncludeScanner(ignoreWords []string) *IncludeScanner {
	return &IncludeScanner{ignoreWords: ignoreWords}
}

// Scan 遍历全部目录，返回去重并排序的 #include 行，与文件系统的遍历顺序无关
func (s *IncludeScanner) Scan(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSource(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", dir)
		}
	}
	sort.Strings(files)

	parser := sitter.NewParser()
	defer parser.Close()
	lang := sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, errors.Wrap(err, "load C++ grammar")
	}
	q, qErr := sitter.NewQuery(lang, includeQuery)
	if qErr != nil {
		return nil, errors.Wrap(qErr, "compile include query")
	}
	defer q.Close()

	seen := make(map[string]bool)
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		for _, line := range s.scanSource(parser, q, src) {
			seen[line] = true
		}
	}

	lines := make([]string, 0, len(seen))
	for line := range seen {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines, nil
}

// ScanSource 单个源文件中未被忽略的 #include 行
func (s *IncludeScanner) ScanSource(src []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	lang := sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, errors.Wrap(err, "load C++ grammar")
	}
	q, qErr := sitter.NewQuery(lang, includeQuery)
	if qErr != nil {
		return nil, errors.Wrap(qErr, "compile include query")
	}
	defer q.Close()
	return s.scanSource(parser, q, src), nil
}

func (s *IncludeScanner) scanSource(parser *sitter.Parser, q *sitter.Query, src []byte) []string {
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	idx, ok := q.CaptureIndexForName("path")
	if !ok {
		return nil
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()

	var lines []string
	matches := qc.Matches(q, tree.RootNode(), src)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		nodes := match.NodesForCaptureIndex(idx)
		if len(nodes) == 0 {
			continue
		}
		path := strings.TrimSpace(getNodeContent(&nodes[0], src))
		line := "#include " + path
		if !s.ignored(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

func (s *IncludeScanner) ignored(line string) bool {
	for _, w := range s.ignoreWords {
		if w != "" && strings.Contains(line, w) {
			return true
		}
	}
	return false
}

func getNodeContent(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// WriteAllIncludes 写出合并的头文件
func WriteAllIncludes(path string, lines []string) error {
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
