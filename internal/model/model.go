package model

import (
	"fmt"
	"time"
)

type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusBanned    AccountStatus = "banned"
)

func ParseAccountStatus(value string) (AccountStatus, error) {
	switch AccountStatus(value) {
	case StatusPending, StatusActive, StatusSuspended, StatusBanned:
		return AccountStatus(value), nil
	}
	return "", fmt.Errorf("unknown account status %q", value)
}

type Role string

const (
	RoleStudent   Role = "student"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleStudent, RoleModerator, RoleAdmin:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type Cohort string

const (
	CohortG11 Cohort = "G11"
	CohortG12 Cohort = "G12"
)

func ParseCohort(value string) (Cohort, error) {
	switch Cohort(value) {
	case CohortG11, CohortG12:
		return Cohort(value), nil
	}
	return "", fmt.Errorf("unknown cohort %q", value)
}

type ForumType string

const (
	ForumGeneral ForumType = "general"
	ForumG11     ForumType = "g11"
	ForumG12     ForumType = "g12"
)

func ParseForumType(value string) (ForumType, error) {
	switch ForumType(value) {
	case ForumGeneral, ForumG11, ForumG12:
		return ForumType(value), nil
	}
	return "", fmt.Errorf("unknown forum type %q", value)
}

// Cohort returns the grade level a cohort-gated forum belongs to.
// The second result is false for the general forum.
func (f ForumType) Cohort() (Cohort, bool) {
	switch f {
	case ForumG11:
		return CohortG11, true
	case ForumG12:
		return CohortG12, true
	}
	return "", false
}

func ForumTypes() []ForumType {
	return []ForumType{ForumGeneral, ForumG11, ForumG12}
}

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

func ParseReactionType(value string) (ReactionType, error) {
	switch ReactionType(value) {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return ReactionType(value), nil
	}
	return "", fmt.Errorf("unknown reaction type %q", value)
}

func ReactionTypes() []ReactionType {
	return []ReactionType{ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry}
}

type NotificationType string

const (
	NotificationMention NotificationType = "mention"
	NotificationNewPost NotificationType = "new_post"
	NotificationFollow  NotificationType = "follow"
)

type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Status        AccountStatus
	Role          Role
	Cohort        Cohort
	EmailVerified bool
	VerifyToken   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Post struct {
	ID               string
	ForumType        ForumType
	AuthorID         string
	Prefix           string
	Title            string
	Content          string
	HasHiddenContent bool
	IsPinned         bool
	IsLocked         bool
	ViewCount        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Reply struct {
	ID               string
	PostID           string
	ParentReplyID    *string
	AuthorID         string
	Content          string
	HasHiddenContent bool
	CreatedAt        time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Message   string
	RelatedID string
	IsRead    bool
	CreatedAt time.Time
}

type ChatMessage struct {
	ID        string
	SenderID  string
	Content   string
	CreatedAt time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
