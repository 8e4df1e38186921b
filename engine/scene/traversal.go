package scene

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/containers"
)

// Visitor is called once for every node reached by Walk. Returning false
// keeps Walk out of the node's children.
type Visitor func(n *Node) bool

// Walk visits the tree under root breadth first. A node reachable twice is
// visited once.
func Walk(root *Node, visit Visitor) {
	if root == nil || visit == nil {
		return
	}
	frontier := containers.NewGrowableRingQueue[*Node](16)
	visited := map[uuid.UUID]struct{}{root.ID: {}}
	_ = frontier.Enqueue(root)

	for !frontier.IsEmpty() {
		n, _ := frontier.Dequeue()
		if !visit(n) {
			continue
		}
		for _, c := range n.children {
			if _, seen := visited[c.ID]; seen {
				continue
			}
			visited[c.ID] = struct{}{}
			_ = frontier.Enqueue(c)
		}
	}
}

// phase runs fn over every component of each reached node. Inactive nodes run
// their own components but prune their subtree.
func phase(root *Node, fn func(c Component)) {
	Walk(root, func(n *Node) bool {
		for _, c := range n.components {
			fn(c)
		}
		return n.active
	})
}
