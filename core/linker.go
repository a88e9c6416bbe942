package core

import (
	"github.com/CodMac/cppbind/model"
)

// BaseLink 注册时列出的一个基类
type BaseLink struct {
	DeclID   string
	Spelling string
}

// Linker 沿显式的基类图迭代遍历，推导注册时可列出的基类
type Linker struct{}

func NewLinker() *Linker {
	return &Linker{}
}

// AccessibleBases 只沿 public 且无歧义的基类遍历；直接基类不可绑定时改用它自己的可访问基类；
// 菱形继承按规范身份去重，已被其它列出基类隐含的祖先不再列出。
func (l *Linker) AccessibleBases(decl *model.Declaration, view View) ([]BaseLink, []*model.Diagnostic) {
	if decl.Record == nil {
		return nil, nil
	}
	subobjects := l.countSubobjects(decl, view)

	stack := make([]*model.BaseSpec, 0)
	pushBases := func(r *model.RecordDecl) {
		for i := len(r.Bases) - 1; i >= 0; i-- {
			stack = append(stack, r.Bases[i])
		}
	}
	pushBases(decl.Record)

	var links []BaseLink
	var diags []*model.Diagnostic
	seen := make(map[string]bool)
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.Type == nil || b.Type.DeclID == "" || !b.Access.IsPublic() {
			continue
		}
		id := b.Type.DeclID
		if seen[id] {
			continue
		}
		seen[id] = true

		if subobjects[id] > 1 {
			diags = append(diags, &model.Diagnostic{
				QualifiedName: decl.ID,
				Kind:          model.Base,
				Reason:        "ambiguous base " + b.Type.Unqualified().Spell(),
				Location:      decl.Location,
			})
			continue
		}

		bd, ok := view.Declaration(id)
		if !ok || bd.Record == nil {
			continue
		}
		if v, _ := view.Verdict(id); v.State == model.Bindable {
			links = append(links, BaseLink{DeclID: id, Spelling: b.Type.Unqualified().Spell()})
			continue
		}
		pushBases(bd.Record)
	}

	return l.dropImplied(links, view), diags
}

// countSubobjects 按 C++ 规则统计每个祖先在 decl 中的子对象个数:
// 各非虚路径分别计数，所有虚继承路径合计一个
func (l *Linker) countSubobjects(decl *model.Declaration, view View) map[string]int {
	order := l.ancestorsTopological(decl, view)

	nonVirtual := map[string]int{decl.ID: 1}
	virtual := make(map[string]bool)
	counts := make(map[string]int)
	for _, id := range order {
		n := nonVirtual[id]
		if virtual[id] {
			n++
		}
		if id == decl.ID {
			n = 1
		}
		counts[id] = n

		d := decl
		if id != decl.ID {
			found, ok := view.Declaration(id)
			if !ok || found.Record == nil {
				continue
			}
			d = found
		}
		for _, b := range d.Record.Bases {
			if b.Type == nil || b.Type.DeclID == "" {
				continue
			}
			if b.Virtual {
				virtual[b.Type.DeclID] = true
			} else {
				nonVirtual[b.Type.DeclID] += n
			}
		}
	}
	return counts
}

// ancestorsTopological 祖先的拓扑序 (派生类在前)，迭代 DFS 后序取反
func (l *Linker) ancestorsTopological(decl *model.Declaration, view View) []string {
	type frame struct {
		id   string
		next int
	}
	visited := map[string]bool{decl.ID: true}
	stack := []frame{{id: decl.ID}}
	var post []string

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		var bases []*model.BaseSpec
		if top.id == decl.ID {
			bases = decl.Record.Bases
		} else if d, ok := view.Declaration(top.id); ok && d.Record != nil {
			bases = d.Record.Bases
		}

		if top.next >= len(bases) {
			post = append(post, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		b := bases[top.next]
		top.next++
		if b.Type == nil || b.Type.DeclID == "" || visited[b.Type.DeclID] {
			continue
		}
		visited[b.Type.DeclID] = true
		stack = append(stack, frame{id: b.Type.DeclID})
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// dropImplied 去掉已是另一个列出基类的祖先的基类
func (l *Linker) dropImplied(links []BaseLink, view View) []BaseLink {
	if len(links) < 2 {
		return links
	}
	implied := make(map[string]bool)
	for _, link := range links {
		d, ok := view.Declaration(link.DeclID)
		if !ok || d.Record == nil {
			continue
		}
		for _, id := range l.ancestorsTopological(d, view)[1:] {
			implied[id] = true
		}
	}
	result := make([]BaseLink, 0, len(links))
	for _, link := range links {
		if !implied[link.DeclID] {
			result = append(result, link)
		}
	}
	return result
}
