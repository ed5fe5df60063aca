// Package container holds a format-agnostic, in-memory tree of groups
// and variables, the self-describing data model shared by NetCDF, HDF5
// and friends. Format adapters populate it; consumers traverse it
// without caring where the data came from.
//
// A node is either a group (named children) or a variable (an Array),
// never both. Every node carries a metadata map. Paths are
// slash-delimited, "imf/bx" style, with the empty path naming the root.
package container

import (
	"fmt"
	"iter"
	"strings"
)

// Kind discriminates groups from variables.
type Kind int

const (
	KindGroup Kind = iota
	KindVariable
)

func (k Kind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "variable"
}

// Node is one entry in the tree. Zero value is not usable; nodes are
// created only through Container operations.
type Node struct {
	name     string
	kind     Kind
	parent   *Node
	children map[string]*Node
	order    []string
	data     Array
	meta     map[string]any
}

// Name returns the node's name, unique among its siblings.
func (n *Node) Name() string { return n.name }

// Kind reports whether the node is a group or a variable.
func (n *Node) Kind() Kind { return n.kind }

// IsGroup reports whether the node may hold children.
func (n *Node) IsGroup() bool { return n.kind == KindGroup }

// Path returns the slash-delimited path from the root, "" for the root
// itself.
func (n *Node) Path() string {
	if n.parent == nil {
		return ""
	}
	parent := n.parent.Path()
	if parent == "" {
		return n.name
	}
	return parent + "/" + n.name
}

// Children returns the child nodes in insertion order. Nil for
// variables.
func (n *Node) Children() []*Node {
	if n.kind != KindGroup {
		return nil
	}
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// Data returns the variable's array. The second result is false for
// groups.
func (n *Node) Data() (Array, bool) {
	if n.kind != KindVariable {
		return Array{}, false
	}
	return n.data, true
}

// Meta returns one metadata value.
func (n *Node) Meta(key string) (any, bool) {
	v, ok := n.meta[key]
	return v, ok
}

// Metadata returns a copy of the node's metadata map.
func (n *Node) Metadata() map[string]any {
	out := make(map[string]any, len(n.meta))
	for k, v := range n.meta {
		out[k] = v
	}
	return out
}

// MetaLen returns the number of metadata entries.
func (n *Node) MetaLen() int { return len(n.meta) }

// Container is the root of a tree. The root is always a group; its
// metadata is the dataset's global metadata.
type Container struct {
	root *Node
}

// New returns an empty container.
func New() *Container {
	return &Container{
		root: &Node{
			kind:     KindGroup,
			children: map[string]*Node{},
			meta:     map[string]any{},
		},
	}
}

// Root returns the root group node.
func (c *Container) Root() *Node { return c.root }

// CreateGroup creates the group at path, making intermediate groups as
// needed. Returns ErrConflict when any segment already exists as a
// variable. Creating an existing group is a no-op returning that group.
func (c *Container) CreateGroup(path string) (*Node, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	cur := c.root
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			next = cur.addChild(seg, KindGroup)
		} else if next.kind != KindGroup {
			return nil, fmt.Errorf("%w: %q is a variable", ErrConflict, next.Path())
		}
		cur = next
	}
	return cur, nil
}

// SetVariable attaches data at path, creating parent groups as needed.
// An existing variable at path is replaced wholesale, data and metadata
// both. Returns ErrConflict when path or any prefix of it denotes a
// group where a variable is needed, or vice versa.
func (c *Container) SetVariable(path string, data Array, meta map[string]any) (*Node, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: root cannot be a variable", ErrConflict)
	}
	if data.values == nil {
		return nil, fmt.Errorf("variable %q: nil data", path)
	}

	parent := c.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := parent.children[seg]
		if !ok {
			next = parent.addChild(seg, KindGroup)
		} else if next.kind != KindGroup {
			return nil, fmt.Errorf("%w: %q is a variable", ErrConflict, next.Path())
		}
		parent = next
	}

	name := segs[len(segs)-1]
	node, ok := parent.children[name]
	if !ok {
		node = parent.addChild(name, KindVariable)
	} else if node.kind != KindVariable {
		return nil, fmt.Errorf("%w: %q is a group", ErrConflict, node.Path())
	}

	node.data = data
	node.meta = map[string]any{}
	for k, v := range meta {
		node.meta[k] = v
	}
	return node, nil
}

// Get returns the node at path. The empty path returns the root.
// Returns ErrNotFound when any segment is missing.
func (c *Container) Get(path string) (*Node, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	cur := c.root
	for _, seg := range segs {
		if cur.kind != KindGroup {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		next, ok := cur.children[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

// Remove deletes the node at path and its subtree. Removing the root is
// an error.
func (c *Container) Remove(path string) error {
	node, err := c.Get(path)
	if err != nil {
		return err
	}
	if node.parent == nil {
		return fmt.Errorf("%w: cannot remove root", ErrConflict)
	}

	parent := node.parent
	delete(parent.children, node.name)
	for i, name := range parent.order {
		if name == node.name {
			parent.order = append(parent.order[:i], parent.order[i+1:]...)
			break
		}
	}
	node.parent = nil
	return nil
}

// SetMetadata adds or replaces one metadata entry on the node at path.
// The empty path targets global metadata. Returns ErrNotFound when the
// path is absent.
func (c *Container) SetMetadata(path, key string, value any) error {
	node, err := c.Get(path)
	if err != nil {
		return err
	}
	node.meta[key] = value
	return nil
}

// Walk yields (path, node) pairs depth-first, pre-order, siblings in
// insertion order. The root is not yielded. Each call starts a fresh
// traversal.
func (c *Container) Walk() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		walk(c.root, yield)
	}
}

func walk(n *Node, yield func(string, *Node) bool) bool {
	for _, name := range n.order {
		child := n.children[name]
		if !yield(child.Path(), child) {
			return false
		}
		if child.kind == KindGroup {
			if !walk(child, yield) {
				return false
			}
		}
	}
	return true
}

func (n *Node) addChild(name string, kind Kind) *Node {
	child := &Node{
		name:   name,
		kind:   kind,
		parent: n,
		meta:   map[string]any{},
	}
	if kind == KindGroup {
		child.children = map[string]*Node{}
	}
	n.children[name] = child
	n.order = append(n.order, name)
	return child
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("empty segment in path %q", path)
		}
	}
	return segs, nil
}
