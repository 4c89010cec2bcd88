package thread

import (
	"testing"
	"time"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

func reply(id string, parent *string, createdAt time.Time) model.Reply {
	return model.Reply{ID: id, PostID: "post-1", ParentReplyID: parent, CreatedAt: createdAt}
}

func ptr(s string) *string { return &s }

func TestBuildChain(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	forest := Build([]model.Reply{
		reply("r3", ptr("r2"), base.Add(2*time.Minute)),
		reply("r1", nil, base),
		reply("r2", ptr("r1"), base.Add(time.Minute)),
	})

	if len(forest) != 1 {
		t.Fatalf("expected one root, got %d", len(forest))
	}
	root := forest[0]
	if root.Reply.ID != "r1" || root.Depth != 0 {
		t.Fatalf("unexpected root %s depth %d", root.Reply.ID, root.Depth)
	}
	if len(root.Children) != 1 || root.Children[0].Reply.ID != "r2" || root.Children[0].Depth != 1 {
		t.Fatalf("unexpected first child")
	}
	grandchild := root.Children[0].Children
	if len(grandchild) != 1 || grandchild[0].Reply.ID != "r3" || grandchild[0].Depth != 2 {
		t.Fatalf("unexpected grandchild")
	}
}

func TestBuildSiblingOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	forest := Build([]model.Reply{
		reply("b", nil, base.Add(time.Minute)),
		reply("a", nil, base),
		reply("later", ptr("a"), base.Add(3*time.Minute)),
		reply("earlier", ptr("a"), base.Add(2*time.Minute)),
	})

	if len(forest) != 2 || forest[0].Reply.ID != "a" || forest[1].Reply.ID != "b" {
		t.Fatalf("roots not ordered by creation time")
	}
	children := forest[0].Children
	if len(children) != 2 || children[0].Reply.ID != "earlier" || children[1].Reply.ID != "later" {
		t.Fatalf("siblings not ordered by creation time")
	}
}

func TestBuildMissingParentBecomesRoot(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	forest := Build([]model.Reply{
		reply("orphan", ptr("gone"), base),
	})
	if len(forest) != 1 || forest[0].Reply.ID != "orphan" || forest[0].Depth != 0 {
		t.Fatalf("orphan should be promoted to root")
	}
}

func TestCanReplyAtDepthLimit(t *testing.T) {
	node := &Node{Depth: MaxDisplayDepth - 1}
	if !node.CanReply() {
		t.Fatalf("depth %d should allow replies", node.Depth)
	}
	node.Depth = MaxDisplayDepth
	if node.CanReply() {
		t.Fatalf("depth %d should not offer a reply affordance", node.Depth)
	}
}
