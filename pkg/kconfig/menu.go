package kconfig

import "github.com/openfroyo/kconfig/pkg/kconfig/expr"

// MenuNodeKind tags the variant of a MenuNode, per spec.md section 3's
// "Represent entries as a tagged variant" design note (section 9).
type MenuNodeKind int

const (
	MenuNodeMenu MenuNodeKind = iota
	MenuNodeConfig
	MenuNodeMenuConfig
	MenuNodeChoice
	MenuNodeComment
	MenuNodeIf
)

// MenuNode is a position in the menu tree (spec.md section 3).
type MenuNode struct {
	Kind MenuNodeKind

	Title     string
	VisibleIf *expr.Expr
	DependsOn *expr.Expr

	Sym    *Symbol
	Choice *Choice

	CommentText string

	Loc SourceLoc

	Parent      *MenuNode
	FirstChild  *MenuNode
	NextSibling *MenuNode

	// id is a stable identifier of the form
	// "<parent-id>-<title>-<file>-<line>", used by the JSON server's
	// menu-scoped reset (SPEC_FULL.md section 12 item 5).
	id string
}

// ID returns the menu node's stable identifier.
func (m *MenuNode) ID() string { return m.id }

// AppendChild links child as the last child of m.
func (m *MenuNode) AppendChild(child *MenuNode) {
	child.Parent = m
	if m.FirstChild == nil {
		m.FirstChild = child
		return
	}
	last := m.FirstChild
	for last.NextSibling != nil {
		last = last.NextSibling
	}
	last.NextSibling = child
}

// Children returns the node's direct children in declaration order.
func (m *MenuNode) Children() []*MenuNode {
	var out []*MenuNode
	for c := m.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Walk visits m and every descendant in menu traversal (declaration)
// order, the order the writer (pkg/kconfig/loadwrite) and the report
// builder rely on.
func (m *MenuNode) Walk(visit func(*MenuNode)) {
	if m == nil {
		return
	}
	visit(m)
	for c := m.FirstChild; c != nil; c = c.NextSibling {
		c.Walk(visit)
	}
}
