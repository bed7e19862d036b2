package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleet-coordinator/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store keeps conversations in Redis: one list of message documents per
// conversation, a meta hash mirroring the last message, a per-user index of
// conversation ids and a per-user hash of unread counters.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// ConversationID derives the order-independent key for a participant pair:
// both sides compute the same id regardless of argument order.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

func messagesKey(conversationID string) string {
	return "chat:" + conversationID + ":messages"
}

func metaKey(conversationID string) string {
	return "chat:" + conversationID + ":meta"
}

func indexKey(userID string) string {
	return "chat:index:" + userID
}

func unreadKey(userID string) string {
	return "unread:" + userID
}

// SendMessage appends the message, then updates the conversation meta and
// the recipient's unread counter. The writes are independent: a failure
// after the append leaves stale meta but never corrupts the message list.
func (s *Store) SendMessage(senderID, recipientID, text string) (*models.ChatMessage, error) {
	if senderID == "" || recipientID == "" {
		return nil, errors.New("sender and recipient are required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("message text is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	message := &models.ChatMessage{
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}

	conversationID := ConversationID(senderID, recipientID)

	if err := s.client.RPush(ctx, messagesKey(conversationID), payload).Err(); err != nil {
		return nil, err
	}

	// Second write; see the method comment for the failure semantics.
	meta := map[string]interface{}{
		"conversation_id": conversationID,
		"participants":    senderID + "," + recipientID,
		"last_message":    text,
		"last_sender_id":  senderID,
		"updated_at":      message.CreatedAt,
	}
	if err := s.client.HSet(ctx, metaKey(conversationID), meta).Err(); err != nil {
		return message, fmt.Errorf("message stored but meta update failed: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, indexKey(senderID), conversationID)
	pipe.SAdd(ctx, indexKey(recipientID), conversationID)
	pipe.HIncrBy(ctx, unreadKey(recipientID), conversationID, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return message, fmt.Errorf("message stored but index update failed: %w", err)
	}

	return message, nil
}

// History returns the full conversation between two users in insertion
// order. An unknown conversation yields an empty slice, not an error.
func (s *Store) History(userID, peerID string) ([]models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conversationID := ConversationID(userID, peerID)

	entries, err := s.client.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var message models.ChatMessage
		if err := json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// Conversations lists the metadata of every conversation the user takes
// part in, most recently updated first.
func (s *Store) Conversations(userID string) ([]models.ConversationMeta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := s.client.SMembers(ctx, indexKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	var metas []models.ConversationMeta
	for _, conversationID := range ids {
		fields, err := s.client.HGetAll(ctx, metaKey(conversationID)).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}

		updatedAt, _ := strconv.ParseInt(fields["updated_at"], 10, 64)
		metas = append(metas, models.ConversationMeta{
			ConversationID: conversationID,
			Participants:   strings.Split(fields["participants"], ","),
			LastMessage:    fields["last_message"],
			LastSenderID:   fields["last_sender_id"],
			UpdatedAt:      updatedAt,
		})
	}

	// Newest first
	for i := 0; i < len(metas); i++ {
		for j := i + 1; j < len(metas); j++ {
			if metas[j].UpdatedAt > metas[i].UpdatedAt {
				metas[i], metas[j] = metas[j], metas[i]
			}
		}
	}

	return metas, nil
}

// MarkConversationRead clears the user's unread counter for one peer.
func (s *Store) MarkConversationRead(userID, peerID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conversationID := ConversationID(userID, peerID)
	return s.client.HDel(ctx, unreadKey(userID), conversationID).Err()
}

// UnreadCounts returns the user's unread counters keyed by conversation id.
// Users with no counters get an empty map.
func (s *Store) UnreadCounts(userID string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, unreadKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(fields))
	for conversationID, raw := range fields {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counts[conversationID] = count
	}

	return counts, nil
}

// UnreadTotal sums the user's unread counters across conversations.
func (s *Store) UnreadTotal(userID string) (int64, error) {
	counts, err := s.UnreadCounts(userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	return total, nil
}
