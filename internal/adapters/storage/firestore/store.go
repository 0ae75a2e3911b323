package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/calio/food-agent/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (CALIO_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("messages")
}

func (s *Store) messageDoc(sessionID domain.SessionID, msgID domain.MessageID) *firestore.DocumentRef {
	return s.messagesCol(sessionID).Doc(string(msgID))
}

func (s *Store) userDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(userID))
}

func (s *Store) ordersCol() *firestore.CollectionRef {
	return s.client.Collection("orders")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UserID    string    `firestore:"user_id"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type buttonDoc struct {
	Label string `firestore:"label"`
	Value string `firestore:"value"`
	Style string `firestore:"style"`
	URL   string `firestore:"url"`
}

type messageDoc struct {
	SessionID string      `firestore:"session_id"`
	Role      string      `firestore:"role"`
	Text      string      `firestore:"text"`
	Buttons   []buttonDoc `firestore:"buttons"`
	CreatedAt time.Time   `firestore:"created_at"`
}

type userDocModel struct {
	LastOrder          string `firestore:"last_order"`
	Cuisine            string `firestore:"cuisine"`
	Mood               string `firestore:"mood"`
	Occasion           string `firestore:"occasion"`
	ServiceType        string `firestore:"service_type"`
	SelectedRestaurant string `firestore:"selected_restaurant"`
}

type orderDoc struct {
	SessionID   string    `firestore:"session_id"`
	UserID      string    `firestore:"user_id"`
	Restaurant  string    `firestore:"restaurant"`
	Cuisine     string    `firestore:"cuisine"`
	ServiceType string    `firestore:"service_type"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := sessionDoc{
		UserID:    string(session.UserID),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	_, err := s.sessionDoc(session.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := map[string]interface{}{
		"user_id":    string(session.UserID),
		"created_at": session.CreatedAt,
		"updated_at": session.UpdatedAt,
	}

	_, err := s.sessionDoc(session.ID).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id domain.SessionID) (*domain.Session, error) {
	ctx := context.Background()

	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return &domain.Session{
		ID:        id,
		UserID:    domain.UserID(doc.UserID),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	ctx := context.Background()

	buttons := make([]buttonDoc, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		buttons = append(buttons, buttonDoc{
			Label: b.Label,
			Value: b.Value,
			Style: b.Style,
			URL:   b.URL,
		})
	}

	doc := messageDoc{
		SessionID: string(msg.SessionID),
		Role:      string(msg.Role),
		Text:      msg.Text,
		Buttons:   buttons,
		CreatedAt: msg.CreatedAt,
	}

	_, err := s.messageDoc(msg.SessionID, msg.ID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesBySession(sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	ctx := context.Background()

	q := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetMessagesBySession: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		buttons := make([]domain.Button, 0, len(doc.Buttons))
		for _, b := range doc.Buttons {
			buttons = append(buttons, domain.Button{
				Label: b.Label,
				Value: b.Value,
				Style: b.Style,
				URL:   b.URL,
			})
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(snap.Ref.ID),
			SessionID: sessionID,
			Role:      domain.Role(doc.Role),
			Text:      doc.Text,
			Buttons:   buttons,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// MemoryStore implementation
// ─────────────────────────────────────────

func (s *Store) Load(ctx context.Context, userID domain.UserID) (domain.Memory, error) {
	snap, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// Fresh user: empty record, not an error.
			return domain.Memory{}, nil
		}
		return domain.Memory{}, fmt.Errorf("firestore Load memory: %w", err)
	}

	var doc userDocModel
	if err := snap.DataTo(&doc); err != nil {
		return domain.Memory{}, fmt.Errorf("firestore Load memory decode: %w", err)
	}

	return domain.Memory{
		LastOrder:          doc.LastOrder,
		Cuisine:            doc.Cuisine,
		Mood:               doc.Mood,
		Occasion:           doc.Occasion,
		ServiceType:        domain.ServiceType(doc.ServiceType),
		SelectedRestaurant: doc.SelectedRestaurant,
	}, nil
}

// Save writes only the fields the update carries. Cleared fields map to
// firestore.Delete so the merge never resurrects them as empty strings.
func (s *Store) Save(ctx context.Context, userID domain.UserID, update domain.MemoryUpdate) error {
	fields := map[string]interface{}{}

	put := func(name string, p *string) {
		if p == nil {
			return
		}
		if *p == "" {
			fields[name] = firestore.Delete
			return
		}
		fields[name] = *p
	}

	put("last_order", update.LastOrder)
	put("cuisine", update.Cuisine)
	put("mood", update.Mood)
	put("occasion", update.Occasion)
	put("selected_restaurant", update.SelectedRestaurant)
	if update.ServiceType != nil {
		if *update.ServiceType == "" {
			fields["service_type"] = firestore.Delete
		} else {
			fields["service_type"] = string(*update.ServiceType)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()

	_, err := s.userDoc(userID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore Save memory: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// OrderStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendOrder(record *domain.OrderRecord) error {
	ctx := context.Background()

	doc := orderDoc{
		SessionID:   string(record.SessionID),
		UserID:      string(record.UserID),
		Restaurant:  record.Restaurant,
		Cuisine:     record.Cuisine,
		ServiceType: string(record.ServiceType),
		CreatedAt:   record.CreatedAt,
	}

	_, err := s.ordersCol().Doc(string(record.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendOrder: %w", err)
	}
	return nil
}

func (s *Store) ListOrdersByUser(userID domain.UserID, limit int) ([]*domain.OrderRecord, error) {
	ctx := context.Background()

	q := s.ordersCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.OrderRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListOrdersByUser: %w", err)
		}

		var doc orderDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode orderDoc: %w", err)
		}

		out = append(out, &domain.OrderRecord{
			ID:          domain.OrderID(snap.Ref.ID),
			SessionID:   domain.SessionID(doc.SessionID),
			UserID:      domain.UserID(doc.UserID),
			Restaurant:  doc.Restaurant,
			Cuisine:     doc.Cuisine,
			ServiceType: domain.ServiceType(doc.ServiceType),
			CreatedAt:   doc.CreatedAt,
		})
	}
	return out, nil
}
