package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/calio/food-agent/internal/app/conversation"
	"github.com/calio/food-agent/internal/app/orders"
	"github.com/calio/food-agent/internal/domain"
)

type Server struct {
	svc         *conversation.Service
	ordersSvc   *orders.Service
	memoryStore domain.MemoryStore
	directory   domain.RestaurantDirectory
}

func NewServer(svc *conversation.Service, ordersSvc *orders.Service, memoryStore domain.MemoryStore, directory domain.RestaurantDirectory) http.Handler {
	s := &Server{
		svc:         svc,
		ordersSvc:   ordersSvc,
		memoryStore: memoryStore,
		directory:   directory,
	}
	mux := http.NewServeMux()

	// /sessions → create session (POST)
	mux.HandleFunc("/sessions", s.handleSessions)

	// /sessions/{id}          →  GET: session + transcript
	// /sessions/{id}/messages → POST: run one dialogue turn
	// /sessions/{id}/nearby   → POST: distance-ranked browse
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// /users/{id}/memory → GET / POST preference record
	// /users/{id}/orders → GET order history
	mux.HandleFunc("/users/", s.handleUserWithID)

	// Directory passthrough, mostly for the front-end's browse tab.
	mux.HandleFunc("/restaurants", s.handleSearchRestaurants)
	mux.HandleFunc("/restaurants/nearby", s.handleNearbyRestaurants)

	mux.HandleFunc("/healthz", s.handleHealth)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
}

type createSessionResponse struct {
	Session     sessionResponse   `json:"session"`
	Greeting    []messageResponse `json:"greeting"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      string          `json:"role"`
	Text      string          `json:"text"`
	Buttons   []domain.Button `json:"buttons,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type sendMessageRequest struct {
	UserID   string           `json:"user_id"`
	Text     string           `json:"text"`
	Location *locationRequest `json:"location,omitempty"`
}

type sendMessageResponse struct {
	UserMessage *messageResponse   `json:"user_message,omitempty"`
	Replies     []messageResponse  `json:"replies"`
	Cards       []domain.Candidate `json:"cards,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

type nearbyRequest struct {
	Location *locationRequest `json:"location"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type memoryResponse struct {
	LastOrder          string `json:"last_order,omitempty"`
	Cuisine            string `json:"cuisine,omitempty"`
	Mood               string `json:"mood,omitempty"`
	Occasion           string `json:"occasion,omitempty"`
	ServiceType        string `json:"service_type,omitempty"`
	SelectedRestaurant string `json:"selected_restaurant,omitempty"`
}

type orderResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Restaurant  string    `json:"restaurant"`
	Cuisine     string    `json:"cuisine,omitempty"`
	ServiceType string    `json:"service_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}, /sessions/{id}/messages or /sessions/{id}/nearby
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, domain.SessionID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "messages":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSendMessage(w, r, domain.SessionID(id))
			return
		case "nearby":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleNearby(w, r, domain.SessionID(id))
			return
		}
	}

	http.NotFound(w, r)
}

// /users/{id}/memory or /users/{id}/orders
func (s *Server) handleUserWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	userID := domain.UserID(parts[0])
	switch parts[1] {
	case "memory":
		switch r.Method {
		case http.MethodGet:
			s.handleGetMemory(w, r, userID)
		case http.MethodPost:
			s.handleUpdateMemory(w, r, userID)
		default:
			methodNotAllowed(w)
		}
	case "orders":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleListOrders(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.svc.StartSession(
		r.Context(),
		conversation.StartSessionInput{
			UserID:   domain.UserID(req.UserID),
			UserName: req.UserName,
		},
	)
	if err != nil {
		if errors.Is(err, conversation.ErrTooManySessions) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "too many active sessions",
			})
			return
		}
		internalError(w, err)
		return
	}

	resp := createSessionResponse{
		Session:     toSessionResponse(out.Session),
		Greeting:    toMessagesResponse(out.Greeting),
		Suggestions: out.Suggestions,
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	session, msgs, err := s.svc.GetSessionTimeline(r.Context(), id, 0)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	resp := getSessionResponse{
		Session:  toSessionResponse(session),
		Messages: toMessagesResponse(msgs),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.svc.SendMessage(
		r.Context(),
		conversation.SendMessageInput{
			SessionID: sessionID,
			UserID:    domain.UserID(req.UserID),
			Text:      req.Text,
			Location:  toLocation(req.Location),
		},
	)
	if err != nil {
		writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSendMessageResponse(out))
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req nearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.svc.ShowNearby(r.Context(), conversation.ShowNearbyInput{
		SessionID: sessionID,
		Location:  toLocation(req.Location),
	})
	if err != nil {
		writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSendMessageResponse(out))
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	mem, err := s.memoryStore.Load(r.Context(), userID)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, memoryResponse{
		LastOrder:          mem.LastOrder,
		Cuisine:            mem.Cuisine,
		Mood:               mem.Mood,
		Occasion:           mem.Occasion,
		ServiceType:        string(mem.ServiceType),
		SelectedRestaurant: mem.SelectedRestaurant,
	})
}

// handleUpdateMemory accepts a partial record. An absent key leaves the
// field alone; an explicit null clears it. Decoding into raw messages
// is what keeps those two cases apart.
func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	var update domain.MemoryUpdate
	strField := func(key string, dst **string) bool {
		v, ok := raw[key]
		if !ok {
			return true
		}
		if string(v) == "null" {
			*dst = domain.Set("")
			return true
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		*dst = domain.Set(s)
		return true
	}

	ok := strField("last_order", &update.LastOrder) &&
		strField("cuisine", &update.Cuisine) &&
		strField("mood", &update.Mood) &&
		strField("occasion", &update.Occasion) &&
		strField("selected_restaurant", &update.SelectedRestaurant)
	if !ok {
		badRequest(w, "memory fields must be strings or null")
		return
	}

	if v, present := raw["service_type"]; present {
		if string(v) == "null" {
			update.ServiceType = domain.Set(domain.ServiceType(""))
		} else {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				badRequest(w, "service_type must be a string or null")
				return
			}
			st := domain.ParseServiceType(s)
			if st == "" {
				badRequest(w, "service_type must be delivery, pickup or dine-in")
				return
			}
			update.ServiceType = domain.Set(st)
		}
	}

	if err := s.memoryStore.Save(r.Context(), userID, update); err != nil {
		internalError(w, err)
		return
	}

	s.handleGetMemory(w, r, userID)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	records, err := s.ordersSvc.ListUserOrders(r.Context(), userID, 0)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, orderResponse{
			ID:          string(rec.ID),
			SessionID:   string(rec.SessionID),
			Restaurant:  rec.Restaurant,
			Cuisine:     rec.Cuisine,
			ServiceType: string(rec.ServiceType),
			CreatedAt:   rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (s *Server) handleSearchRestaurants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	loc, ok := parseLatLon(r)
	if !ok {
		badRequest(w, "lat and lon are required")
		return
	}
	cuisine := strings.TrimSpace(r.URL.Query().Get("cuisine"))
	if cuisine == "" {
		badRequest(w, "cuisine is required")
		return
	}

	list, err := s.directory.SearchByCuisine(r.Context(), loc, cuisine)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurants": list})
}

func (s *Server) handleNearbyRestaurants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	loc, ok := parseLatLon(r)
	if !ok {
		badRequest(w, "lat and lon are required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.directory.SearchNearby(r.Context(), loc, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restaurants": list})
}

func parseLatLon(r *http.Request) (domain.Location, bool) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return domain.Location{}, false
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return domain.Location{}, false
	}
	return domain.Location{Lat: lat, Lon: lon}, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Role:      string(m.Role),
		Text:      m.Text,
		Buttons:   m.Buttons,
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toSendMessageResponse(out *conversation.SendMessageOutput) sendMessageResponse {
	resp := sendMessageResponse{
		Replies:     toMessagesResponse(out.Replies),
		Cards:       out.Cards,
		Suggestions: out.Suggestions,
	}
	if out.UserMessage != nil {
		m := toMessageResponse(out.UserMessage)
		resp.UserMessage = &m
	}
	return resp
}

func toLocation(l *locationRequest) *domain.Location {
	if l == nil {
		return nil
	}
	return &domain.Location{Lat: l.Lat, Lon: l.Lon}
}

// writeTurnError maps the turn-level sentinel errors onto statuses: a
// busy session is 409, never queued behind the running turn.
func writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, conversation.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "a turn is already in progress for this session",
		})
	case errors.Is(err, conversation.ErrEmptyMessage):
		badRequest(w, "text is required")
	case errors.Is(err, domain.ErrSessionNotFound):
		http.NotFound(w, r)
	default:
		internalError(w, err)
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
