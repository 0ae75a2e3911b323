package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calio/food-agent/internal/app/dialog"
	"github.com/calio/food-agent/internal/app/tools"
	"github.com/calio/food-agent/internal/domain"
	"github.com/calio/food-agent/internal/observability"
)

var (
	// ErrBusy means a turn is already in flight for the session; the
	// new one is dropped, never queued.
	ErrBusy = errors.New("a turn is already in progress")

	ErrEmptyMessage    = errors.New("message text is empty")
	ErrTooManySessions = errors.New("maximum live sessions reached")
)

const historyLimit = 20

// persistTimeout bounds the fire-and-forget memory write.
const persistTimeout = 5 * time.Second

type Service struct {
	llm          domain.LLMClient
	sessionStore domain.SessionStore
	messageStore domain.MessageStore
	memoryStore  domain.MemoryStore
	now          func() time.Time

	orchestrator *dialog.Orchestrator

	mu          sync.RWMutex
	live        map[domain.SessionID]*dialog.SessionState
	maxSessions int
	sessionTTL  time.Duration
}

func NewService(
	llm domain.LLMClient,
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	memoryStore domain.MemoryStore,
	directory domain.RestaurantDirectory,
	orderTool *tools.OrderTool,
	maxSessions int,
	sessionTTL time.Duration,
) *Service {
	var toolForOrchestrator tools.Tool
	if orderTool != nil {
		toolForOrchestrator = orderTool
	}

	return &Service{
		llm:          llm,
		sessionStore: sessionStore,
		messageStore: messageStore,
		memoryStore:  memoryStore,
		now:          time.Now,
		orchestrator: dialog.NewOrchestrator(llm, directory, nil, toolForOrchestrator),
		live:         make(map[domain.SessionID]*dialog.SessionState),
		maxSessions:  maxSessions,
		sessionTTL:   sessionTTL,
	}
}

type StartSessionInput struct {
	UserID   domain.UserID
	UserName string
}

type StartSessionOutput struct {
	Session     *domain.Session
	Greeting    []*domain.Message
	Suggestions []string
}

// StartSession creates a session, loads the user's persisted Memory
// (an empty record on any failure - never blocks startup) and emits
// the personalized greeting.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	now := s.now()

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)
	log.Info("starting new session")

	s.mu.RLock()
	liveCount := len(s.live)
	s.mu.RUnlock()
	if s.maxSessions > 0 && liveCount >= s.maxSessions {
		return nil, ErrTooManySessions
	}

	session := &domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessionStore.CreateSession(session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	mem, err := s.memoryStore.Load(ctx, in.UserID)
	if err != nil {
		log.Warn("memory load failed, starting fresh", "error", err)
		mem = domain.Memory{}
	}

	state := &dialog.SessionState{
		SessionID:    session.ID,
		UserID:       in.UserID,
		Memory:       mem,
		LastActivity: now,
	}

	s.mu.Lock()
	s.live[session.ID] = state
	s.mu.Unlock()

	res := s.orchestrator.Greet(ctx, state, in.UserName)
	for _, msg := range res.Replies {
		if err := s.messageStore.AppendMessage(msg); err != nil {
			log.Error("failed to append greeting", "error", err)
			return nil, err
		}
	}

	log.Info("session started", "session_id", session.ID)

	return &StartSessionOutput{
		Session:     session,
		Greeting:    res.Replies,
		Suggestions: res.Suggestions,
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
	Location  *domain.Location
}

type SendMessageOutput struct {
	UserMessage *domain.Message
	Replies     []*domain.Message
	Cards       []domain.Candidate
	Suggestions []string
}

// SendMessage runs one dialogue turn. Exactly one user message and one
// assistant message are appended per accepted turn; a concurrent turn
// yields ErrBusy before anything reaches the transcript.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	session, err := s.sessionStore.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.liveState(ctx, session)
	if err != nil {
		return nil, err
	}

	// Single-flight gate: drop, don't queue.
	if !state.TryAcquire() {
		return nil, ErrBusy
	}
	defer state.Release()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)
	log.Info("sending message", "text", text)

	// History snapshot before this turn; the orchestrator classifies
	// against the last assistant line in it.
	history, err := s.messageStore.GetMessagesBySession(session.ID, historyLimit)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.messageStore.AppendMessage(userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	res := s.orchestrator.HandleTurn(ctx, state, dialog.TurnInput{
		Utterance: text,
		Location:  in.Location,
	}, history)

	for _, msg := range res.Replies {
		if err := s.messageStore.AppendMessage(msg); err != nil {
			log.Error("failed to append assistant message", "error", err)
			return nil, err
		}
	}

	state.LastActivity = s.now()
	s.persistMemory(ctx, session.UserID, res.Update)

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(session); err != nil {
		log.Error("failed to update session", "error", err)
	}

	log.Info("send message completed")

	return &SendMessageOutput{
		UserMessage: userMsg,
		Replies:     res.Replies,
		Cards:       res.Cards,
		Suggestions: res.Suggestions,
	}, nil
}

type ShowNearbyInput struct {
	SessionID domain.SessionID
	Location  *domain.Location
}

// ShowNearby runs the distance-ranked browsing branch: no utterance,
// no slot extraction, straight to a candidate page.
func (s *Service) ShowNearby(ctx context.Context, in ShowNearbyInput) (*SendMessageOutput, error) {
	session, err := s.sessionStore.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.liveState(ctx, session)
	if err != nil {
		return nil, err
	}

	if !state.TryAcquire() {
		return nil, ErrBusy
	}
	defer state.Release()

	res := s.orchestrator.ShowNearby(ctx, state, in.Location)
	for _, msg := range res.Replies {
		if err := s.messageStore.AppendMessage(msg); err != nil {
			return nil, err
		}
	}
	state.LastActivity = s.now()

	return &SendMessageOutput{
		Replies: res.Replies,
		Cards:   res.Cards,
	}, nil
}

// GetSessionTimeline returns the session and its transcript.
func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.GetMessagesBySession(sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	return session, msgs, nil
}

// StartCleanupRoutine drops live session state that has gone idle.
// Blocks until ctx is done; run it on its own goroutine.
func (s *Service) StartCleanupRoutine(ctx context.Context) {
	if s.sessionTTL <= 0 {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupIdle()
		}
	}
}

func (s *Service) cleanupIdle() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.live {
		if now.Sub(st.LastActivity) > s.sessionTTL {
			delete(s.live, id)
		}
	}
}

// liveState returns the in-process dialogue state for a session,
// rebuilding it from persisted Memory after a restart.
func (s *Service) liveState(ctx context.Context, session *domain.Session) (*dialog.SessionState, error) {
	s.mu.RLock()
	state, ok := s.live[session.ID]
	s.mu.RUnlock()
	if ok {
		return state, nil
	}

	mem, err := s.memoryStore.Load(ctx, session.UserID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("memory load failed, starting fresh", "error", err)
		mem = domain.Memory{}
	}

	state = &dialog.SessionState{
		SessionID:    session.ID,
		UserID:       session.UserID,
		Memory:       mem,
		LastActivity: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.live[session.ID]; ok {
		return existing, nil
	}
	s.live[session.ID] = state
	return state, nil
}

// persistMemory writes the turn's update fire-and-forget. A failed
// persist costs future-session personalization, nothing else.
func (s *Service) persistMemory(ctx context.Context, userID domain.UserID, update domain.MemoryUpdate) {
	if update.IsZero() {
		return
	}

	log := observability.LoggerFromContext(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.memoryStore.Save(pctx, userID, update); err != nil {
			log.Warn("memory persist failed", "user_id", userID, "error", err)
		}
	}()
}
