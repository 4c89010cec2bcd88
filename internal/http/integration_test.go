package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// These tests drive a running server end to end. Start one with DEV_MODE=1
// (registration echoes the verification token) and seed an admin account,
// then run with:
//
//	INTEGRATION_TESTS=1 ADMIN_EMAIL=... ADMIN_PASSWORD=... go test ./internal/http/
func requireIntegrationEnv(t *testing.T) (baseURL, adminEmail, adminPassword string) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	baseURL = os.Getenv("FORUM_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	adminEmail = os.Getenv("ADMIN_EMAIL")
	adminPassword = os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		t.Skip("set ADMIN_EMAIL and ADMIN_PASSWORD to run")
	}
	return baseURL, adminEmail, adminPassword
}

func doJSON(t *testing.T, method, url, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// Array responses land under "items" so callers have one shape.
			var list []any
			if json.Unmarshal(raw, &list) == nil {
				decoded["items"] = list
			}
		}
	}
	return resp.StatusCode, decoded
}

func loginToken(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d body %v", email, status, body)
	}
	token, _ := body["accessToken"].(string)
	if token == "" {
		t.Fatalf("login %s: missing access token", email)
	}
	return token
}

func registerStudent(t *testing.T, baseURL, cohort string) (email, password, verifyToken, userID string) {
	t.Helper()
	email = fmt.Sprintf("student-%d@school.test", time.Now().UnixNano())
	password = "correct horse battery staple"
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]string{
		"email":     email,
		"password":  password,
		"firstName": "Test",
		"lastName":  "Student",
		"cohort":    cohort,
	})
	if status != http.StatusCreated {
		t.Fatalf("register: status %d body %v", status, body)
	}
	verifyToken, _ = body["verificationToken"].(string)
	if verifyToken == "" {
		t.Fatalf("register: server not running in dev mode, no verification token echoed")
	}
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	return email, password, verifyToken, userID
}

func approveAccount(t *testing.T, baseURL, adminToken, accountID, cohort string) {
	t.Helper()
	status, body := doJSON(t, http.MethodPatch, baseURL+"/admin/accounts/"+accountID+"/status", adminToken, map[string]string{
		"status": "active",
		"cohort": cohort,
	})
	if status != http.StatusOK {
		t.Fatalf("approve: status %d body %v", status, body)
	}
}

func TestRegistrationApprovalFlow(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)

	email, password, verifyToken, userID := registerStudent(t, baseURL, "G11")
	studentToken := loginToken(t, baseURL, email, password)

	// Pending accounts see the waiting room only.
	status, body := doJSON(t, http.MethodGet, baseURL+"/forum/access", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("forum access: status %d", status)
	}
	forums, _ := body["forums"].([]any)
	if len(forums) != 1 || forums[0] != "general" {
		t.Fatalf("expected pending account limited to general, got %v", forums)
	}

	// Grade forum posting requires approval first.
	status, body = doJSON(t, http.MethodGet, baseURL+"/forum/g11/posts", studentToken, nil)
	if status != http.StatusForbidden || body["error"] != "Account approval required" {
		t.Fatalf("expected approval denial, got %d %v", status, body)
	}

	approveAccount(t, baseURL, adminToken, userID, "G11")

	// Status reload happens per request, no relogin needed.
	status, _ = doJSON(t, http.MethodGet, baseURL+"/forum/g11/posts", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected g11 access after approval, got %d", status)
	}
	status, body = doJSON(t, http.MethodGet, baseURL+"/forum/g12/posts", studentToken, nil)
	if status != http.StatusForbidden || body["error"] != "Grade level access denied" {
		t.Fatalf("expected cross-grade denial, got %d %v", status, body)
	}

	// Posting in the grade forum still needs email verification.
	status, body = doJSON(t, http.MethodPost, baseURL+"/forum/posts", studentToken, map[string]string{
		"forumType": "g11",
		"title":     "hello",
		"content":   "first post",
	})
	if status != http.StatusForbidden || body["error"] != "Email verification required" {
		t.Fatalf("expected verification denial, got %d %v", status, body)
	}
	status, _ = doJSON(t, http.MethodPost, baseURL+"/auth/verify", "", map[string]string{
		"email": email,
		"token": verifyToken,
	})
	if status != http.StatusOK {
		t.Fatalf("verify: status %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, baseURL+"/forum/posts", studentToken, map[string]string{
		"forumType": "g11",
		"title":     "hello",
		"content":   "first post",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected post creation after verification, got %d", status)
	}
}

func TestHiddenContentUnlockFlow(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)

	status, body := doJSON(t, http.MethodPost, baseURL+"/forum/posts", adminToken, map[string]string{
		"forumType": "general",
		"title":     "study guide",
		"content":   "intro text [HIDDEN]the answer key[/HIDDEN] outro",
	})
	if status != http.StatusCreated {
		t.Fatalf("create post: status %d body %v", status, body)
	}
	postID, _ := body["id"].(string)

	email, password, _, userID := registerStudent(t, baseURL, "G12")
	approveAccount(t, baseURL, adminToken, userID, "G12")
	studentToken := loginToken(t, baseURL, email, password)

	postURL := baseURL + "/forum/posts/" + postID
	status, body = doJSON(t, http.MethodGet, postURL, studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get post: status %d", status)
	}
	if body["hasHiddenContent"] != true || body["hiddenContent"] != nil {
		t.Fatalf("expected hidden content withheld, got %v", body)
	}

	status, body = doJSON(t, http.MethodPost, postURL+"/unlock", studentToken, nil)
	if status != http.StatusForbidden || body["error"] != "must react to unlock" {
		t.Fatalf("expected reaction requirement, got %d %v", status, body)
	}

	status, _ = doJSON(t, http.MethodPost, postURL+"/react", studentToken, map[string]string{"type": "like"})
	if status != http.StatusOK {
		t.Fatalf("react: status %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, postURL+"/unlock", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unlock: status %d", status)
	}

	status, body = doJSON(t, http.MethodGet, postURL, studentToken, nil)
	if status != http.StatusOK || body["hiddenContent"] != "the answer key" {
		t.Fatalf("expected hidden content revealed, got %d %v", status, body)
	}

	// The grant outlives the reaction that earned it.
	status, _ = doJSON(t, http.MethodDelete, postURL+"/react", studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("clear reaction: status %d", status)
	}
	status, body = doJSON(t, http.MethodGet, postURL, studentToken, nil)
	if status != http.StatusOK || body["hiddenContent"] != "the answer key" {
		t.Fatalf("expected grant to persist after clearing reaction, got %d %v", status, body)
	}
}

func TestReactionLastWriteWins(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)

	status, body := doJSON(t, http.MethodPost, baseURL+"/forum/posts", adminToken, map[string]string{
		"forumType": "general",
		"title":     "poll",
		"content":   "react below",
	})
	if status != http.StatusCreated {
		t.Fatalf("create post: status %d", status)
	}
	postID, _ := body["id"].(string)
	reactURL := baseURL + "/forum/posts/" + postID + "/react"

	status, _ = doJSON(t, http.MethodPost, reactURL, adminToken, map[string]string{"type": "like"})
	if status != http.StatusOK {
		t.Fatalf("first reaction: status %d", status)
	}
	status, body = doJSON(t, http.MethodPost, reactURL, adminToken, map[string]string{"type": "love"})
	if status != http.StatusOK {
		t.Fatalf("second reaction: status %d", status)
	}
	counts, _ := body["reactions"].(map[string]any)
	if counts["love"] != float64(1) || counts["like"] != float64(0) {
		t.Fatalf("expected reaction replaced, got %v", counts)
	}
	if body["myReaction"] != "love" {
		t.Fatalf("expected myReaction love, got %v", body["myReaction"])
	}

	status, body = doJSON(t, http.MethodPost, reactURL, adminToken, map[string]string{"type": "shrug"})
	if status != http.StatusBadRequest || body["error"] != "invalid_reaction" {
		t.Fatalf("expected invalid reaction rejection, got %d %v", status, body)
	}
}

func createGeneralPost(t *testing.T, baseURL, token, title string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/forum/posts", token, map[string]string{
		"forumType": "general",
		"title":     title,
		"content":   "content of " + title,
	})
	if status != http.StatusCreated {
		t.Fatalf("create post: status %d body %v", status, body)
	}
	postID, _ := body["id"].(string)
	return postID
}

func TestViewCountStableOnRepeatView(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)
	postID := createGeneralPost(t, baseURL, adminToken, "view counting")

	email, password, _, userID := registerStudent(t, baseURL, "G11")
	approveAccount(t, baseURL, adminToken, userID, "G11")
	studentToken := loginToken(t, baseURL, email, password)

	postURL := baseURL + "/forum/posts/" + postID
	status, body := doJSON(t, http.MethodGet, postURL, studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("first view: status %d", status)
	}
	first, _ := body["viewCount"].(float64)
	if first < 1 {
		t.Fatalf("expected view recorded, got %v", body["viewCount"])
	}
	status, body = doJSON(t, http.MethodGet, postURL, studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("second view: status %d", status)
	}
	if second, _ := body["viewCount"].(float64); second != first {
		t.Fatalf("expected repeat view by the same user to leave the count at %v, got %v", first, second)
	}
}

func TestBookmarkIdempotent(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)
	postID := createGeneralPost(t, baseURL, adminToken, "bookmark twice")

	bookmarkURL := baseURL + "/forum/bookmarks/" + postID
	for i := 0; i < 2; i++ {
		status, body := doJSON(t, http.MethodPost, bookmarkURL, adminToken, nil)
		if status != http.StatusOK || body["bookmarked"] != true {
			t.Fatalf("bookmark attempt %d: status %d body %v", i+1, status, body)
		}
	}

	status, body := doJSON(t, http.MethodGet, baseURL+"/forum/bookmarks", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list bookmarks: status %d", status)
	}
	items, _ := body["items"].([]any)
	seen := 0
	for _, item := range items {
		post, _ := item.(map[string]any)
		if post["id"] == postID {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected the post bookmarked exactly once, found %d entries", seen)
	}

	status, body = doJSON(t, http.MethodDelete, bookmarkURL, adminToken, nil)
	if status != http.StatusOK || body["bookmarked"] != false {
		t.Fatalf("remove bookmark: status %d body %v", status, body)
	}
}

func TestAdminStatusGuards(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)

	status, body := doJSON(t, http.MethodGet, baseURL+"/auth/me", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("me: status %d", status)
	}
	adminID, _ := body["id"].(string)

	// Admins cannot touch their own standing.
	status, body = doJSON(t, http.MethodPatch, baseURL+"/admin/accounts/"+adminID+"/status", adminToken, map[string]string{
		"status": "suspended",
	})
	if status != http.StatusBadRequest || body["error"] != "cannot change your own account status" {
		t.Fatalf("expected self-change rejection, got %d %v", status, body)
	}

	// Promote a fresh account to admin, then confirm peers are untouchable.
	_, _, _, peerID := registerStudent(t, baseURL, "G12")
	status, body = doJSON(t, http.MethodPatch, baseURL+"/admin/accounts/"+peerID+"/status", adminToken, map[string]string{
		"status": "active",
		"role":   "admin",
	})
	if status != http.StatusOK {
		t.Fatalf("promote: status %d body %v", status, body)
	}
	for _, target := range []string{"suspended", "banned"} {
		status, body = doJSON(t, http.MethodPatch, baseURL+"/admin/accounts/"+peerID+"/status", adminToken, map[string]string{
			"status": target,
		})
		if status != http.StatusForbidden || body["error"] != "cannot suspend or ban other administrators" {
			t.Fatalf("expected admin-peer rejection for %s, got %d %v", target, status, body)
		}
	}
	status, body = doJSON(t, http.MethodPatch, baseURL+"/admin/accounts/"+peerID+"/status", adminToken, map[string]string{
		"status": "active",
		"role":   "student",
	})
	if status != http.StatusForbidden || body["error"] != "cannot demote other administrators" {
		t.Fatalf("expected demotion rejection, got %d %v", status, body)
	}
}

func TestReplyParentValidationAndDepth(t *testing.T) {
	baseURL, adminEmail, adminPassword := requireIntegrationEnv(t)
	adminToken := loginToken(t, baseURL, adminEmail, adminPassword)
	postA := createGeneralPost(t, baseURL, adminToken, "thread a")
	postB := createGeneralPost(t, baseURL, adminToken, "thread b")

	status, body := doJSON(t, http.MethodPost, baseURL+"/forum/posts/"+postA+"/replies", adminToken, map[string]any{
		"content": "root reply",
	})
	if status != http.StatusCreated {
		t.Fatalf("root reply: status %d body %v", status, body)
	}
	parentID, _ := body["id"].(string)

	// A parent from another thread is a validation error, not a 404.
	status, body = doJSON(t, http.MethodPost, baseURL+"/forum/posts/"+postB+"/replies", adminToken, map[string]any{
		"content":       "grafted",
		"parentReplyId": parentID,
	})
	if status != http.StatusBadRequest || body["error"] != "parent reply belongs to a different post" {
		t.Fatalf("expected cross-post parent rejection, got %d %v", status, body)
	}

	// Nest until the display limit: depth 4 still offers a reply affordance,
	// depth 5 does not, and the write itself is still accepted.
	for depth := 1; depth <= 5; depth++ {
		status, body = doJSON(t, http.MethodPost, baseURL+"/forum/posts/"+postA+"/replies", adminToken, map[string]any{
			"content":       fmt.Sprintf("nested %d", depth),
			"parentReplyId": parentID,
		})
		if status != http.StatusCreated {
			t.Fatalf("nested reply at depth %d: status %d body %v", depth, status, body)
		}
		if got, _ := body["depth"].(float64); int(got) != depth {
			t.Fatalf("expected depth %d, got %v", depth, body["depth"])
		}
		wantCanReply := depth < 5
		if body["canReply"] != wantCanReply {
			t.Fatalf("expected canReply=%v at depth %d, got %v", wantCanReply, depth, body["canReply"])
		}
		parentID, _ = body["id"].(string)
	}
}
