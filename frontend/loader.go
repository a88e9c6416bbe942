// Package frontend 读取前端给出的声明模型，并扫描源码中的 #include。
package frontend

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
	"gopkg.in/yaml.v3"
)

// Document 声明模型文件的顶层结构
type Document struct {
	Declarations []*model.Declaration `json:"Declarations" yaml:"Declarations"`
}

// Model 读取并去重后的声明
type Model struct {
	Declarations []*model.Declaration
	Duplicates   int // 身份相同而被折叠的声明个数
	Invalid      int // payload 与种类不符的声明个数，仍保留，由分类阶段跳过
}

// Load 按扩展名读取 JSON (.json) 或 YAML (.yaml / .yml) 声明模型
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read declaration model %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".json":
		return DecodeJSON(data)
	default:
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidModel, "unsupported model file extension %q", filepath.Ext(path)),
			"use .json, .yaml or .yml")
	}
}

func DecodeJSON(data []byte) (*Model, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "decode JSON: %v", err)
	}
	return normalize(&doc)
}

func DecodeYAML(data []byte) (*Model, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "decode YAML: %v", err)
	}
	return normalize(&doc)
}

// normalize 补全身份并按身份去重，保留首次出现的声明
func normalize(doc *Document) (*Model, error) {
	m := &Model{Declarations: make([]*model.Declaration, 0, len(doc.Declarations))}
	seen := make(map[string]bool, len(doc.Declarations))
	for i, decl := range doc.Declarations {
		if decl == nil {
			return nil, errors.Wrapf(errors.ErrInvalidModel, "declaration #%d is empty", i)
		}
		if decl.QualifiedName == "" && decl.ID == "" {
			return nil, errors.Wrapf(errors.ErrInvalidModel, "declaration #%d has neither ID nor QualifiedName", i)
		}
		if !decl.Payload() {
			m.Invalid++
		} else if decl.ID == "" {
			decl.ID = decl.Identity()
		}
		if decl.ID == "" {
			decl.ID = decl.QualifiedName
		}
		if seen[decl.ID] {
			m.Duplicates++
			continue
		}
		seen[decl.ID] = true
		m.Declarations = append(m.Declarations, decl)
	}
	return m, nil
}
