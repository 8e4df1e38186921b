package scene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/core"
	emath "github.com/spaghettifunk/tessera/engine/math"
)

const indent = "  "

// Node is one element of the scene tree. It owns its children and its
// components; deleting a node deletes both.
type Node struct {
	ID        uuid.UUID
	Transform *emath.Transform

	name       string
	parent     *Node
	children   []*Node
	components []Component
	active     bool
	destroyed  bool
}

func NewNode(name string) *Node {
	return &Node{
		ID:        uuid.New(),
		Transform: emath.TransformCreate(),
		name:      name,
		active:    true,
	}
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) Components() []Component {
	return n.components
}

func (n *Node) Active() bool {
	return n.active
}

// SetActive toggles the node. An inactive node still runs its own components
// but its descendants are skipped by every phase.
func (n *Node) SetActive(active bool) {
	n.active = active
}

func (n *Node) Destroyed() bool {
	return n.destroyed
}

// World is the node's transform composed with its ancestors'.
func (n *Node) World() mgl32.Mat4 {
	return n.Transform.GetWorld()
}

// AddComponent attaches c to the node. Nil components are ignored.
func (n *Node) AddComponent(c Component) *Node {
	if c == nil {
		return n
	}
	c.attach(n)
	n.components = append(n.components, c)
	return n
}

// AddChild attaches child under n, detaching it from any previous parent.
// Attaching a node under itself or one of its descendants fails with ErrCycle.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return core.NewConfigurationError("add child", core.ErrNilArgument, "node %s", n.name)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return core.NewConfigurationError("add child", core.ErrCycle, "%s is an ancestor of %s", child.name, n.name)
		}
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	child.Transform.Parent = n.Transform
	n.children = append(n.children, child)
	return nil
}

// RemoveChild detaches child without deleting it.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c != child {
			continue
		}
		n.children = append(n.children[:i], n.children[i+1:]...)
		child.parent = nil
		child.Transform.Parent = nil
		return true
	}
	return false
}

// Child returns the first direct child called name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Delete deletes the children, then the components.
func (n *Node) Delete() {
	if n.destroyed {
		return
	}
	for _, c := range n.children {
		c.Delete()
	}
	n.children = nil
	for _, c := range n.components {
		c.Destroy()
	}
	n.components = nil
	n.destroyed = true
}

func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, "")
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, prefix string) {
	if len(n.children) > 0 {
		fmt.Fprintf(sb, "%s%s:\n", prefix, n.name)
	} else {
		fmt.Fprintf(sb, "%s%s\n", prefix, n.name)
	}
	for _, c := range n.children {
		c.write(sb, prefix+indent)
	}
}
