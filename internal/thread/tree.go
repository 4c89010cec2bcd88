// Package thread assembles the flat reply rows of a post into a forest.
package thread

import (
	"sort"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

// MaxDisplayDepth is the deepest level at which clients offer a further
// reply affordance. Storage accepts deeper replies; this only drives the
// CanReply flag.
const MaxDisplayDepth = 5

type Node struct {
	Reply    model.Reply
	Depth    int
	Children []*Node
}

func (n *Node) CanReply() bool {
	return n.Depth < MaxDisplayDepth
}

// Build groups replies by parent id and attaches children recursively.
// Siblings are ordered by creation time ascending. Writes are validated
// against cross-post grafting, so parents are trusted here; a reply whose
// parent is absent from the set (e.g. removed by moderation) is promoted
// to a root rather than dropped.
func Build(replies []model.Reply) []*Node {
	byID := make(map[string]bool, len(replies))
	for _, reply := range replies {
		byID[reply.ID] = true
	}

	children := make(map[string][]model.Reply)
	var roots []model.Reply
	for _, reply := range replies {
		if reply.ParentReplyID == nil || !byID[*reply.ParentReplyID] {
			roots = append(roots, reply)
			continue
		}
		children[*reply.ParentReplyID] = append(children[*reply.ParentReplyID], reply)
	}

	var attach func(reply model.Reply, depth int) *Node
	attach = func(reply model.Reply, depth int) *Node {
		node := &Node{Reply: reply, Depth: depth}
		group := children[reply.ID]
		sortByCreatedAt(group)
		for _, child := range group {
			node.Children = append(node.Children, attach(child, depth+1))
		}
		return node
	}

	sortByCreatedAt(roots)
	forest := make([]*Node, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, attach(root, 0))
	}
	return forest
}

func sortByCreatedAt(replies []model.Reply) {
	sort.SliceStable(replies, func(i, j int) bool {
		if replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].ID < replies[j].ID
		}
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
}
