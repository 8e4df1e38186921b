package scene

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/tessera/engine/core"
)

const ROOT_NAME = "root"

// Scene is a tree of nodes under a permanent root.
type Scene struct {
	name string
	root *Node
}

func New(name string) *Scene {
	return &Scene{
		name: name,
		root: NewNode(ROOT_NAME),
	}
}

func (s *Scene) Name() string {
	return s.name
}

func (s *Scene) Root() *Node {
	return s.root
}

// Node resolves a slash separated path of names from the root's children
// downwards. The empty path is the root. It returns nil when a segment is
// missing.
func (s *Scene) Node(path string) *Node {
	n := s.root
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if n = n.Child(segment); n == nil {
			return nil
		}
	}
	return n
}

// AddNode attaches node under the node at path. A path that does not resolve
// is logged and leaves the scene untouched.
func (s *Scene) AddNode(path string, node *Node) error {
	parent := s.Node(path)
	if parent == nil {
		err := core.NewConfigurationError("add node", core.ErrNotFound, "no node at [%s]", path)
		core.LogError("%s", err)
		return err
	}
	if err := parent.AddChild(node); err != nil {
		core.LogError("%s", err)
		return err
	}
	return nil
}

func (s *Scene) Update(delta float64) {
	phase(s.root, func(c Component) { updateComponent(c, delta) })
}

// Render runs the world render phase with rc.Program as the active program.
func (s *Scene) Render(rc RenderContext) {
	phase(s.root, func(c Component) { renderComponent(c, rc) })
}

func (s *Scene) RenderUI() {
	phase(s.root, renderUIComponent)
}

// Delete deletes every node under the root. The root itself stays usable.
func (s *Scene) Delete() {
	for _, c := range s.root.children {
		c.Delete()
	}
	s.root.children = nil
	for _, c := range s.root.components {
		c.Destroy()
	}
	s.root.components = nil
}

func (s *Scene) String() string {
	return fmt.Sprintf("Scene [%s]:\n%s", s.name, s.root)
}
