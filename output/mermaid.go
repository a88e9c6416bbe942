package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/CodMac/cppbind/core"
	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
	"github.com/CodMac/cppbind/partition"
)

func safeID(id string) string {
	r := strings.NewReplacer(":", "_", "<", "_", ">", "_", ",", "_", "(", "_", ")", "_", "*", "p", "&", "r", " ", "_", ".", "_")
	return "n_" + r.Replace(id)
}

func nodeShape(kind model.DeclKind, name string) string {
	label := strings.NewReplacer("<", "&lt;", ">", "&gt;", "\"", "'").Replace(name)
	switch kind {
	case model.Record:
		return fmt.Sprintf("[\"%s <small>(%s)</small>\"]", label, kind)
	case model.Enum:
		return fmt.Sprintf("([\"%s <small>(%s)</small>\"])", label, kind)
	case model.Function:
		return fmt.Sprintf("[/\"%s <small>(%s)</small>\"/]", label, kind)
	default:
		return fmt.Sprintf("[\"%s <small>(%s)</small>\"]", label, kind)
	}
}

// ExportMermaidHTML 按划分分组的依赖图；forwardEdges 为 false 时只画完整依赖与外层作用域边
func ExportMermaidHTML(outputPath string, bc *core.BindingContext, plan *partition.Plan, forwardEdges bool) (int, int, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "create %s", outputPath)
	}
	defer f.Close()

	fmt.Fprintln(f, `<!DOCTYPE html><html><head><meta charset="UTF-8"><script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script></head>
<body><div class="mermaid">graph LR`)

	nodeCount := 0
	for k, ids := range plan.Partitions {
		fmt.Fprintf(f, "  subgraph p%d [📦 partition %d]\n", k, k)
		for _, id := range ids {
			e, ok := bc.Entry(id)
			if !ok {
				continue
			}
			fmt.Fprintf(f, "    %s%s\n", safeID(id), nodeShape(e.Decl.Kind, e.Decl.Spelling()))
			nodeCount++
		}
		fmt.Fprintln(f, "  end")
	}

	edgeCount := 0
	for _, edge := range bc.Edges() {
		if !forwardEdges && edge.Strength != model.Full && !edge.Kind.Placement() {
			continue
		}
		arrow := "-.->"
		if edge.Strength == model.Full {
			arrow = "==>"
		}
		fmt.Fprintf(f, "  %s %s|%s| %s\n", safeID(edge.From), arrow, edge.Kind, safeID(edge.To))
		edgeCount++
	}

	fmt.Fprintln(f, `</div><script>mermaid.initialize({startOnLoad:true, maxTextSize:1000000});</script></body></html>`)
	return nodeCount, edgeCount, nil
}
