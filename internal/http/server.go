package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mj7635827-code/School-forum-sub000/internal/access"
	"github.com/mj7635827-code/School-forum-sub000/internal/auth"
	"github.com/mj7635827-code/School-forum-sub000/internal/config"
	"github.com/mj7635827-code/School-forum-sub000/internal/model"
	"github.com/mj7635827-code/School-forum-sub000/internal/notify"
	"github.com/mj7635827-code/School-forum-sub000/internal/repository"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	notifier *notify.Notifier
	redis    *redis.Client
}

func NewServer(cfg config.Config, store *repository.Store, notifier *notify.Notifier, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		redis:    redisClient,
	}
}

var requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "forum_http_requests_total",
	Help: "HTTP requests by method and status.",
}, []string{"method", "status"})

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/verify", s.handleVerifyEmail)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.Route("/forum", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/access", s.handleForumAccess)
		r.Get("/{forumType}/posts", s.handleListPosts)
		r.Post("/posts", s.handleCreatePost)
		r.Get("/posts/{postId}", s.handleGetPost)
		r.Patch("/posts/{postId}", s.handlePatchPost)
		r.Delete("/posts/{postId}", s.handleDeletePost)
		r.Get("/posts/{postId}/replies", s.handleListReplies)
		r.Post("/posts/{postId}/replies", s.handleCreateReply)
		r.Post("/posts/{postId}/react", s.handleReactToPost)
		r.Delete("/posts/{postId}/react", s.handleClearPostReaction)
		r.Post("/posts/{postId}/unlock", s.handleUnlockHiddenContent)
		r.Post("/replies/{replyId}/react", s.handleReactToReply)
		r.Delete("/replies/{replyId}/react", s.handleClearReplyReaction)
		r.Get("/bookmarks", s.handleListBookmarks)
		r.Post("/bookmarks/{postId}", s.handleAddBookmark)
		r.Delete("/bookmarks/{postId}", s.handleRemoveBookmark)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListNotifications)
		r.Post("/read-all", s.handleMarkAllNotificationsRead)
		r.Post("/{notificationId}/read", s.handleMarkNotificationRead)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/me/following", s.handleListFollowing)
		r.Post("/{userId}/follow", s.handleFollow)
		r.Delete("/{userId}/follow", s.handleUnfollow)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/messages", s.handleListChatMessages)
		r.Post("/messages", s.handleCreateChatMessage)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireAdmin)
		r.Get("/accounts", s.handleListAccounts)
		r.Patch("/accounts/{accountId}/status", s.handleUpdateAccountStatus)
	})

	return r
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		requestCount.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Auth

type accountKey struct{}

// authMiddleware validates the bearer token, then reloads the account row so
// status changes (suspension, ban) take effect on the very next request.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		account, err := s.store.GetAccountByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountFromContext(r.Context())
		if !ok || account.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFromContext(ctx context.Context) (model.Account, bool) {
	account, ok := ctx.Value(accountKey{}).(model.Account)
	return account, ok
}

func (s *Server) handleForumAccess(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	var forums []model.ForumType
	for _, forum := range model.ForumTypes() {
		if granted, _ := access.CanAccessForum(account, forum); granted {
			forums = append(forums, forum)
		}
	}
	if forums == nil {
		forums = []model.ForumType{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"forums": forums})
}
