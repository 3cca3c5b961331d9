package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"PoopMatesServer/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing      func(context.Context) error
	CORSOrigins []string

	Auth    *service.AuthService
	Users   *service.UsersService
	Friends *service.FriendsService
	Chats   *service.ChatService
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &api{
		logger:       logger,
		dbPing:       opts.DBPing,
		authSvc:      opts.Auth,
		usersSvc:     opts.Users,
		friendsSvc:   opts.Friends,
		chatSvc:      opts.Chats,
		loginLimiter: newLoginLimiter(),
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/", a.handleHome).Methods(http.MethodGet).Name("home")
	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet).Name("healthz")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(TraceOperation(logger))
	a.routes(apiRouter)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-Id"}),
		handlers.ExposedHeaders([]string{"X-Request-Id"}),
	)

	var h http.Handler = r
	h = cors(h)
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func (a *api) routes(r *mux.Router) {
	if a.authSvc != nil {
		r.HandleFunc("/register", a.handleRegister).Methods(http.MethodPost).Name("register")
		r.HandleFunc("/login", a.handleLogin).Methods(http.MethodPost).Name("login")
		if a.authSvc.GoogleEnabled() {
			r.HandleFunc("/login/google", a.handleLoginGoogle).Methods(http.MethodPost).Name("loginGoogle")
		}
		if a.authSvc.AppleEnabled() {
			r.HandleFunc("/login/apple", a.handleLoginApple).Methods(http.MethodPost).Name("loginApple")
		}
	}

	if a.usersSvc != nil {
		r.HandleFunc("/users/{userId}", a.handleGetUser).Methods(http.MethodGet).Name("getUser")
		r.HandleFunc("/users/{userId}/update-status", a.handleUpdateStatus).Methods(http.MethodPatch).Name("updateStatus")
		r.HandleFunc("/search", a.handleSearchUsers).Methods(http.MethodGet).Name("searchUsers")
	}

	if a.friendsSvc != nil {
		r.HandleFunc("/send-friend-request/{userId}/{friendId}", a.handleSendFriendRequest).Methods(http.MethodPost).Name("sendFriendRequest")
		r.HandleFunc("/accept-friend-request/{userId}/{friendId}", a.handleAcceptFriendRequest).Methods(http.MethodPost).Name("acceptFriendRequest")
		r.HandleFunc("/reject-friend-request/{userId}/{friendId}", a.handleRejectFriendRequest).Methods(http.MethodPost).Name("rejectFriendRequest")
	}

	if a.chatSvc != nil {
		r.HandleFunc("/create-chat-room/{userId}/{friendId}", a.handleCreateChatRoom).Methods(http.MethodPost).Name("createChatRoom")
		r.HandleFunc("/send-message/{userId}/{chatId}", a.handleSendMessage).Methods(http.MethodPost).Name("sendMessage")
		r.HandleFunc("/get-chat-history/{userId}/{chatId}", a.handleChatHistory).Methods(http.MethodGet).Name("getChatHistory")
	}
}

type api struct {
	logger *slog.Logger

	dbPing func(context.Context) error

	authSvc    *service.AuthService
	usersSvc   *service.UsersService
	friendsSvc *service.FriendsService
	chatSvc    *service.ChatService

	loginLimiter *loginLimiter
}

func (a *api) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome to PoopMates server!"))
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
