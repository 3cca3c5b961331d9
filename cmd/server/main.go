package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PoopMatesServer/internal/auth"
	"PoopMatesServer/internal/config"
	"PoopMatesServer/internal/httpapi"
	"PoopMatesServer/internal/service"
	"PoopMatesServer/internal/store/memory"
	"PoopMatesServer/internal/store/mongodb"
	"PoopMatesServer/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := openStores(openCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer st.close()

	authSvc := &service.AuthService{
		Users:          st.users,
		Tokens:         auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
		Logger:         logger,
		GoogleClientID: cfg.GoogleClientID,
		AppleServiceID: cfg.AppleServiceID,
	}
	logger.Info("external sign-in", "google", authSvc.GoogleEnabled(), "apple", authSvc.AppleEnabled())

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:      logger,
		IsProd:      cfg.IsProd(),
		DBPing:      st.ping,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        authSvc,
		Users:       &service.UsersService{Store: st.users},
		Friends:     &service.FriendsService{Users: st.users, Friendships: st.friendships},
		Chats:       &service.ChatService{Users: st.users, Chats: st.chats},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

type usersStore interface {
	service.UsersStore
	service.DirectoryStore
	service.ChatUsersStore
}

type stores struct {
	users       usersStore
	friendships service.FriendshipsStore
	chats       service.ChatsStore
	ping        func(context.Context) error
	close       func()
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return stores{}, err
	}

	switch kind {
	case config.StoreMongo:
		client, err := mongodb.Open(ctx, cfg.DBDSN)
		if err != nil {
			return stores{}, err
		}
		dbName := mongodb.DatabaseName(cfg.DBDSN, cfg.DBName)
		db := client.Database(dbName)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		logger.Info("storage ready", "backend", kind, "database", dbName)
		return stores{
			users:       mongodb.NewUsersStore(db),
			friendships: mongodb.NewFriendshipsStore(db),
			chats:       mongodb.NewChatsStore(db),
			ping:        func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:       func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StorePostgres:
		pool, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return stores{}, err
		}
		logger.Info("storage ready", "backend", kind)
		return stores{
			users:       postgres.NewUsersStore(pool),
			friendships: postgres.NewFriendshipsStore(pool),
			chats:       postgres.NewChatsStore(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.StoreMemory:
		store := memory.New()
		logger.Warn("storage ready", "backend", kind, "note", "data is lost on restart")
		return stores{
			users:       store,
			friendships: store,
			chats:       store,
			ping:        store.Ping,
			close:       func() {},
		}, nil
	}
	return stores{}, fmt.Errorf("unsupported store %q", kind)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
