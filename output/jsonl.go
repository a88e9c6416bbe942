package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
)

type JSONLWriter struct {
	encoder *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{encoder: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(v interface{}) error { return w.encoder.Encode(v) }

// ExportDiagnostics 每行一条被跳过的声明或成员，顺序与输入一致
func ExportDiagnostics(path string, diags []*model.Diagnostic) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	count := 0
	for _, d := range diags {
		if err := writer.Write(d); err != nil {
			return count, errors.Wrapf(err, "write %s", path)
		}
		count++
	}
	return count, nil
}

// ExportEdges 每行一条可绑定声明之间的依赖边
func ExportEdges(path string, edges []*model.DependencyEdge) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	count := 0
	for _, e := range edges {
		if err := writer.Write(e); err != nil {
			return count, errors.Wrapf(err, "write %s", path)
		}
		count++
	}
	return count, nil
}
