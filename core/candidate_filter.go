package core

import (
	"strings"

	"github.com/CodMac/cppbind/errors"
	"github.com/CodMac/cppbind/model"
	"github.com/bmatcuk/doublestar/v4"
)

const pathPrefix = "path:"

// FilterRule 一条 include/exclude 规则
type FilterRule struct {
	Include bool
	Path    bool   // 匹配源文件路径，否则匹配限定名
	Pattern string // doublestar 模式，限定名中的 "::" 已换成 "/"
}

// CandidateFilter 分类前的候选过滤。规则按顺序求值，最后一条匹配的规则生效，默认包含。
type CandidateFilter struct {
	rules []FilterRule
}

// ParseFilterRule 解析 "+ns::**"、"-ns::detail::*"、"-path:**/internal/*.hpp"
func ParseFilterRule(raw string) (FilterRule, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 || (raw[0] != '+' && raw[0] != '-') {
		return FilterRule{}, errors.Newf("filter rule %q must start with '+' or '-'", raw)
	}
	rule := FilterRule{Include: raw[0] == '+'}
	body := raw[1:]
	if strings.HasPrefix(body, pathPrefix) {
		rule.Path = true
		rule.Pattern = strings.TrimPrefix(body, pathPrefix)
	} else {
		rule.Pattern = scopePath(body)
	}
	if rule.Pattern == "" || !doublestar.ValidatePattern(rule.Pattern) {
		return FilterRule{}, errors.Newf("filter rule %q has an invalid pattern", raw)
	}
	return rule, nil
}

func NewCandidateFilter(rules []string) (*CandidateFilter, error) {
	f := &CandidateFilter{rules: make([]FilterRule, 0, len(rules))}
	for _, raw := range rules {
		rule, err := ParseFilterRule(raw)
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, rule)
	}
	return f, nil
}

// Admit 声明是否作为候选交给分类器
func (f *CandidateFilter) Admit(decl *model.Declaration) bool {
	if f == nil {
		return true
	}
	admitted := true
	for _, rule := range f.rules {
		if rule.matches(decl) {
			admitted = rule.Include
		}
	}
	return admitted
}

func (r FilterRule) matches(decl *model.Declaration) bool {
	if r.Path {
		for _, p := range []string{locationPath(decl), decl.Header} {
			if p == "" {
				continue
			}
			if ok, _ := doublestar.Match(r.Pattern, p); ok {
				return true
			}
		}
		return false
	}
	for _, name := range []string{decl.QualifiedName, decl.Spelling()} {
		if ok, _ := doublestar.Match(r.Pattern, scopePath(name)); ok {
			return true
		}
	}
	return false
}

func locationPath(decl *model.Declaration) string {
	if decl.Location == nil {
		return ""
	}
	return decl.Location.FilePath
}

// scopePath 把模板实参之外的 "::" 换成 "/"，使 "*" 只匹配一层作用域
func scopePath(qn string) string {
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(qn); i++ {
		c := qn[i]
		switch {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case c == ':' && depth == 0 && i+1 < len(qn) && qn[i+1] == ':':
			sb.WriteByte('/')
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
