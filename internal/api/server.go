// Package api exposes the HTTP and WebSocket surface of the service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bezero/internal/chat"
	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/service"
)

// Services bundles the application services the server routes to.
type Services struct {
	Users   domain.UserService
	Tickets domain.TicketService
	Stays   domain.StayService
	Chats   domain.ChatService
	DMs     domain.DMService
	Points  domain.PointService
	Diaries domain.DiaryService
}

type Server struct {
	cfg      config.APIConfig
	svc      Services
	hub      *chat.Hub
	auth     *jwtAuth
	limiter  *rateLimiter
	upgrader websocket.Upgrader
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(cfg config.APIConfig, svc Services, hub *chat.Hub, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		hub:     hub,
		auth:    newJWTAuth(cfg.JWT),
		limiter: newRateLimiter(cfg.RateLimit),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Браузерные клиенты ходят с разных origin, токен уже проверен.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}

	if svc.Users != nil {
		s.auth.blocked = svc.Users.IsBlacklisted
		// Отметка активности идёт в фоне, запрос её не ждёт.
		s.auth.touch = func(userID int64) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				svc.Users.TouchActivity(ctx, userID)
			}()
		}
	}

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger), metricsMiddleware)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	public := router.PathPrefix("/api/v1/auth").Subrouter()
	public.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	public.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	authed := router.PathPrefix("/api/v1").Subrouter()
	authed.Use(s.auth.Middleware, s.rateLimitMiddleware)

	authed.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/profile", s.handleUpdateProfile).Methods(http.MethodPut)

	authed.HandleFunc("/cities", s.handleListCities).Methods(http.MethodGet)
	authed.HandleFunc("/guesthouses", s.handleListGuestHouses).Methods(http.MethodGet)
	authed.HandleFunc("/rooms/{roomID}/availability", s.handleRoomAvailability).Methods(http.MethodGet)

	authed.HandleFunc("/tickets", s.handlePurchaseTicket).Methods(http.MethodPost)
	authed.HandleFunc("/tickets", s.handleListTickets).Methods(http.MethodGet)
	authed.HandleFunc("/tickets/{id}", s.handleGetTicket).Methods(http.MethodGet)
	authed.HandleFunc("/tickets/{id}/cancel", s.handleCancelTicket).Methods(http.MethodPost)
	authed.HandleFunc("/tickets/{id}/advance", s.handleAdvanceTicket).Methods(http.MethodPost)

	authed.HandleFunc("/stays", s.handleReserveStay).Methods(http.MethodPost)
	authed.HandleFunc("/stays", s.handleListStays).Methods(http.MethodGet)
	authed.HandleFunc("/stays/export", s.handleExportStays).Methods(http.MethodGet)
	authed.HandleFunc("/stays/{id}/checkin", s.handleCheckIn).Methods(http.MethodPost)
	authed.HandleFunc("/stays/{id}/checkout", s.handleCheckOut).Methods(http.MethodPost)
	authed.HandleFunc("/stays/{id}/cancel", s.handleCancelStay).Methods(http.MethodPost)
	authed.HandleFunc("/guesthouses/{id}/roommates", s.handleRoommates).Methods(http.MethodGet)

	authed.HandleFunc("/guesthouses/{id}/chat", s.handleChatHistory).Methods(http.MethodGet)
	authed.HandleFunc("/guesthouses/{id}/chat", s.handlePostChatMessage).Methods(http.MethodPost)
	authed.HandleFunc("/chat/messages/{id}", s.handleDeleteChatMessage).Methods(http.MethodDelete)
	authed.HandleFunc("/cards", s.handleListCards).Methods(http.MethodGet)
	authed.HandleFunc("/cards/draw", s.handleDrawCard).Methods(http.MethodGet)

	authed.HandleFunc("/dm/requests", s.handleDMRequest).Methods(http.MethodPost)
	authed.HandleFunc("/dm/rooms", s.handleListDMRooms).Methods(http.MethodGet)
	authed.HandleFunc("/dm/rooms/{id}", s.handleGetDMRoom).Methods(http.MethodGet)
	authed.HandleFunc("/dm/rooms/{id}/respond", s.handleDMRespond).Methods(http.MethodPost)
	authed.HandleFunc("/dm/rooms/{id}/messages", s.handleSendDM).Methods(http.MethodPost)
	authed.HandleFunc("/dm/rooms/{id}/messages", s.handleDMHistory).Methods(http.MethodGet)
	authed.HandleFunc("/dm/rooms/{id}/unread", s.handleDMUnread).Methods(http.MethodGet)
	authed.HandleFunc("/dm/rooms/{id}/end", s.handleEndDM).Methods(http.MethodPost)
	authed.HandleFunc("/dm/messages/{id}", s.handleDeleteDM).Methods(http.MethodDelete)

	authed.HandleFunc("/points/balance", s.handleBalance).Methods(http.MethodGet)
	authed.HandleFunc("/points/history", s.handlePointHistory).Methods(http.MethodGet)
	authed.HandleFunc("/points/export", s.handleExportLedger).Methods(http.MethodGet)

	authed.HandleFunc("/diary", s.handleCreateDiary).Methods(http.MethodPost)
	authed.HandleFunc("/diary", s.handleListDiary).Methods(http.MethodGet)
	authed.HandleFunc("/diary/{id}", s.handleGetDiary).Methods(http.MethodGet)
	authed.HandleFunc("/diary/{id}", s.handleUpdateDiary).Methods(http.MethodPut)
	authed.HandleFunc("/diary/{id}", s.handleDeleteDiary).Methods(http.MethodDelete)
	authed.HandleFunc("/questions", s.handleListQuestions).Methods(http.MethodGet)
	authed.HandleFunc("/questions/{id}/answer", s.handleAnswerQuestion).Methods(http.MethodPost)
	authed.HandleFunc("/answers", s.handleListAnswers).Methods(http.MethodGet)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(s.auth.Middleware)
	ws.HandleFunc("/chat/{id}", s.handleChatSocket).Methods(http.MethodGet)
	ws.HandleFunc("/dm/{id}", s.handleDMSocket).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler returns the configured router, used by tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps service and storage sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrBlacklisted),
		errors.Is(err, service.ErrNotCheckedIn),
		errors.Is(err, service.ErrNotCoLocated):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, database.ErrVersionConflict),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrCapacityExceeded),
		errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrAlreadyAnswered),
		errors.Is(err, database.ErrDuplicateRequest),
		errors.Is(err, database.ErrDuplicateReference):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInsufficientPoints),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
