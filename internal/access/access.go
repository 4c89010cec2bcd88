// Package access holds the pure authorization predicates consulted by every
// forum endpoint. The denial reason accompanying a false result is surfaced
// to the client verbatim, so each clause reports its own reason.
package access

import "github.com/mj7635827-code/School-forum-sub000/internal/model"

const (
	ReasonSuspended         = "Account suspended"
	ReasonBanned            = "Account banned"
	ReasonApprovalRequired  = "Account approval required"
	ReasonGradeLevelDenied  = "Grade level access denied"
	ReasonEmailUnverified   = "Email verification required"
	ReasonModeratorRequired = "Moderator access required"
)

// CanAccessForum reports whether the account may read the given forum.
// Pending and active accounts see the general forum; grade forums require an
// active account whose cohort matches, unless the account moderates.
func CanAccessForum(account model.Account, forum model.ForumType) (bool, string) {
	switch account.Status {
	case model.StatusSuspended:
		return false, ReasonSuspended
	case model.StatusBanned:
		return false, ReasonBanned
	}
	if forum == model.ForumGeneral {
		return true, ""
	}
	if account.Status != model.StatusActive {
		return false, ReasonApprovalRequired
	}
	if CanModerate(account) {
		return true, ""
	}
	if cohort, ok := forum.Cohort(); ok && account.Cohort == cohort {
		return true, ""
	}
	return false, ReasonGradeLevelDenied
}

// CanPostInForum reports whether the account may create content in the given
// forum. Grade forums additionally require a verified email address.
func CanPostInForum(account model.Account, forum model.ForumType) (bool, string) {
	if forum == model.ForumGeneral {
		switch account.Status {
		case model.StatusSuspended:
			return false, ReasonSuspended
		case model.StatusBanned:
			return false, ReasonBanned
		}
		return true, ""
	}
	if ok, reason := CanAccessForum(account, forum); !ok {
		return false, reason
	}
	if !account.EmailVerified {
		return false, ReasonEmailUnverified
	}
	return true, ""
}

func CanModerate(account model.Account) bool {
	return account.Role == model.RoleAdmin || account.Role == model.RoleModerator
}
