// Package httpapi exposes the REST surface of the relay: accounts, rooms and history.
package httpapi

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

type API struct {
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService
}

// NewRouter mounts every route. ws and metrics are optional.
func NewRouter(log *slog.Logger, authService services.IAuthService, chatService services.IChatService,
	gate auth.Authenticator, ws http.Handler, metrics http.Handler) http.Handler {
	api := &API{log: log, auth: authService, chat: chatService}
	protected := auth.Middleware(gate)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", api.register)
	mux.HandleFunc("POST /api/auth/login", api.login)

	mux.Handle("GET /api/chat/users", protected(http.HandlerFunc(api.listUsers)))
	mux.Handle("GET /api/chat/rooms", protected(http.HandlerFunc(api.listRooms)))
	mux.Handle("POST /api/chat/rooms", protected(http.HandlerFunc(api.createRoom)))
	mux.Handle("DELETE /api/chat/rooms/{roomID}", protected(http.HandlerFunc(api.deleteRoom)))
	mux.Handle("GET /api/chat/history/{id}", protected(http.HandlerFunc(api.history)))
	mux.Handle("DELETE /api/chat/messages/{messageID}", protected(http.HandlerFunc(api.deleteMessage)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if ws != nil {
		mux.Handle("GET /ws", ws)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !a.decode(w, r, &body) {
		return
	}
	session, err := a.auth.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !a.decode(w, r, &body) {
		return
	}
	session, err := a.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	users, err := a.chat.ListUsers(r.Context(), caller)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	rooms, err := a.chat.ListRooms(r.Context(), caller)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rooms))
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	var body services.CreateRoomRequest
	if !a.decode(w, r, &body) {
		return
	}
	room, err := a.chat.CreateRoom(r.Context(), caller, body)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (a *API) deleteRoom(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	if err := a.chat.DeleteRoom(r.Context(), caller, domain.RoomID(r.PathValue("roomID"))); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Room deleted"})
}

// history treats any type other than room as a private conversation with the given user.
func (a *API) history(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	query := domain.HistoryQuery{
		Caller: caller,
		Kind:   domain.DeliveryPrivate,
		Target: r.PathValue("id"),
	}
	params := r.URL.Query()
	if params.Get("type") == string(domain.DeliveryRoom) {
		query.Kind = domain.DeliveryRoom
	}
	if cursor := params.Get("cursor"); cursor != "" {
		query.Cursor = &cursor
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			a.fail(w, errors.ErrValidation)
			return
		}
		query.Limit = limit
	}

	page, err := a.chat.FetchHistory(r.Context(), query)
	if err != nil {
		a.fail(w, err)
		return
	}
	if page.NextCursor != nil {
		w.Header().Set("X-Next-Cursor", *page.NextCursor)
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserIDFromContext(r.Context())
	if err := a.chat.DeleteMessage(r.Context(), caller, domain.MessageID(r.PathValue("messageID"))); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Message deleted"})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.fail(w, errors.ErrInvalidPayload)
		return false
	}
	return true
}

// fail hides internal details behind a generic message for server errors.
func (a *API) fail(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		a.log.Error("Request failed", "error", err)
		message = "Server Error"
	}
	writeJSON(w, status, messageBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
