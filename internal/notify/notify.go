// Package notify creates notification rows as a best-effort side channel.
// A failure here is logged and swallowed; it never fails the action that
// triggered the fan-out.
package notify

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

type Store interface {
	CreateNotification(ctx context.Context, notification model.Notification) error
	ListFollowerIDs(ctx context.Context, followedID string) ([]string, error)
	FindAccountsByFirstName(ctx context.Context, name string) ([]model.Account, error)
}

type Notifier struct {
	store Store
}

func New(store Store) *Notifier {
	return &Notifier{store: store}
}

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// PostCreated notifies every follower of a moderator author. Posts by
// students fan out to nobody.
func (n *Notifier) PostCreated(ctx context.Context, author model.Account, post model.Post) {
	if author.Role != model.RoleModerator && author.Role != model.RoleAdmin {
		return
	}
	followerIDs, err := n.store.ListFollowerIDs(ctx, author.ID)
	if err != nil {
		log.Printf("notify: list followers of %s: %v", author.ID, err)
		return
	}
	message := fmt.Sprintf("%s posted: %s", author.FirstName, post.Title)
	for _, followerID := range followerIDs {
		n.create(ctx, followerID, model.NotificationNewPost, message, post.ID)
	}
}

// MentionScan resolves @name tokens against account first names,
// case-insensitively, excluding the sender, and notifies each match once.
func (n *Notifier) MentionScan(ctx context.Context, sender model.Account, messageID, content string) {
	seenNames := make(map[string]bool)
	seenRecipients := make(map[string]bool)
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		name := strings.ToLower(match[1])
		if seenNames[name] {
			continue
		}
		seenNames[name] = true
		accounts, err := n.store.FindAccountsByFirstName(ctx, name)
		if err != nil {
			log.Printf("notify: resolve mention %q: %v", name, err)
			continue
		}
		for _, account := range accounts {
			if account.ID == sender.ID || seenRecipients[account.ID] {
				continue
			}
			seenRecipients[account.ID] = true
			message := fmt.Sprintf("%s mentioned you in chat", sender.FirstName)
			n.create(ctx, account.ID, model.NotificationMention, message, messageID)
		}
	}
}

// Followed notifies the followed account, referencing the follower.
func (n *Notifier) Followed(ctx context.Context, follower model.Account, followedID string) {
	message := fmt.Sprintf("%s %s started following you", follower.FirstName, follower.LastName)
	n.create(ctx, followedID, model.NotificationFollow, message, follower.ID)
}

func (n *Notifier) create(ctx context.Context, userID string, kind model.NotificationType, message, relatedID string) {
	notification := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Message:   message,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("notify: create %s notification for %s: %v", kind, userID, err)
	}
}
