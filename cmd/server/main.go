package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/velebit-dev/boardsync/internal/config"
	"github.com/velebit-dev/boardsync/internal/database"
	postgresrepo "github.com/velebit-dev/boardsync/internal/repository/postgres"
	"github.com/velebit-dev/boardsync/internal/service"
	"github.com/velebit-dev/boardsync/internal/transport/http/handlers"
	"github.com/velebit-dev/boardsync/internal/transport/http/middleware"
	"github.com/velebit-dev/boardsync/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	workspaceRepo := postgresrepo.NewWorkspaceRepo(pool)
	boardRepo := postgresrepo.NewBoardRepo(pool)
	listRepo := postgresrepo.NewListRepo(pool)
	cardRepo := postgresrepo.NewCardRepo(pool)
	commentRepo := postgresrepo.NewCommentRepo(pool)
	changeLogRepo := postgresrepo.NewChangeLogRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	workspaceService := service.NewWorkspaceService(workspaceRepo, boardRepo, listRepo, cardRepo, userRepo, changeLogRepo)
	boardService := service.NewBoardService(boardRepo, listRepo, cardRepo, workspaceRepo, changeLogRepo)
	listService := service.NewListService(listRepo, boardRepo, workspaceRepo, changeLogRepo)
	cardService := service.NewCardService(cardRepo, boardRepo, workspaceRepo, changeLogRepo)
	commentService := service.NewCommentService(commentRepo, cardRepo, boardRepo, workspaceRepo, changeLogRepo)

	// Real-time hub
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)
	workspaceService.SetNotifier(notifier)
	boardService.SetNotifier(notifier)
	listService.SetNotifier(notifier)
	cardService.SetNotifier(notifier)
	commentService.SetNotifier(notifier)
	backend := ws.NewServiceBackend(workspaceRepo, boardService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	boardHandler := handlers.NewBoardHandler(boardService)
	listHandler := handlers.NewListHandler(listService)
	cardHandler := handlers.NewCardHandler(cardService)
	commentHandler := handlers.NewCommentHandler(commentService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// WebSocket (authenticates in-band via the authenticate event)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, backend, cfg.JWTSecret))

	// Protected - Workspaces
	mux.Handle("POST /api/v1/workspaces", auth(http.HandlerFunc(workspaceHandler.Create)))
	mux.Handle("GET /api/v1/workspaces", auth(http.HandlerFunc(workspaceHandler.List)))
	mux.Handle("DELETE /api/v1/workspaces/{id}", auth(http.HandlerFunc(workspaceHandler.Delete)))
	mux.Handle("POST /api/v1/workspaces/{id}/invite", auth(http.HandlerFunc(workspaceHandler.Invite)))
	mux.Handle("GET /api/v1/workspaces/{id}/members", auth(http.HandlerFunc(workspaceHandler.ListMembers)))
	mux.Handle("GET /api/v1/workspaces/{id}/history", auth(http.HandlerFunc(workspaceHandler.History)))

	// Protected - Boards
	mux.Handle("POST /api/v1/boards", auth(http.HandlerFunc(boardHandler.Create)))
	mux.Handle("GET /api/v1/boards", auth(http.HandlerFunc(boardHandler.List)))
	mux.Handle("DELETE /api/v1/boards/{id}", auth(http.HandlerFunc(boardHandler.Delete)))
	mux.Handle("GET /api/v1/boards/{id}/activity", auth(http.HandlerFunc(boardHandler.Activity)))
	mux.Handle("GET /api/v1/boards/{id}/search", auth(http.HandlerFunc(cardHandler.Search)))

	// Protected - Lists
	mux.Handle("POST /api/v1/lists", auth(http.HandlerFunc(listHandler.Create)))
	mux.Handle("GET /api/v1/lists", auth(http.HandlerFunc(listHandler.ListByBoard)))
	mux.Handle("PUT /api/v1/lists/{id}/move", auth(http.HandlerFunc(listHandler.Move)))

	// Protected - Cards
	mux.Handle("POST /api/v1/cards", auth(http.HandlerFunc(cardHandler.Create)))
	mux.Handle("GET /api/v1/cards", auth(http.HandlerFunc(cardHandler.List)))
	mux.Handle("PUT /api/v1/cards/{id}/move", auth(http.HandlerFunc(cardHandler.Move)))
	mux.Handle("DELETE /api/v1/cards/{id}", auth(http.HandlerFunc(cardHandler.Delete)))

	// Protected - Comments
	mux.Handle("POST /api/v1/comments", auth(http.HandlerFunc(commentHandler.Create)))
	mux.Handle("GET /api/v1/comments", auth(http.HandlerFunc(commentHandler.ListByCard)))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: middleware.CORS(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
