package services

import (
	"encoding/json"
	"time"

	"articles/internal/models"

	"go.uber.org/zap"
)

// Article lifecycle event types, carried as the AMQP message type.
const (
	EventArticleCreated = "article.created"
	EventArticleUpdated = "article.updated"
	EventArticleDeleted = "article.deleted"
)

// EventPublisher delivers a serialized event. pkg/rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(eventType string, body []byte) error
}

// ArticleEvent is the payload published after an article changes.
type ArticleEvent struct {
	Type       string    `json:"type"`
	ArticleID  string    `json:"article_id"`
	UserID     string    `json:"user_id"`
	Published  bool      `json:"published"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishArticleEvent is best effort: failures are logged and swallowed so a
// broker outage never fails the write that already happened.
func publishArticleEvent(publisher EventPublisher, logger *zap.SugaredLogger, eventType string, article *models.Article) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(ArticleEvent{
		Type:       eventType,
		ArticleID:  article.ID,
		UserID:     article.UserID,
		Published:  article.Published,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Errorw("failed to marshal article event", "type", eventType, "article_id", article.ID, "error", err)
		return
	}
	if err := publisher.Publish(eventType, body); err != nil {
		logger.Warnw("failed to publish article event", "type", eventType, "article_id", article.ID, "error", err)
	}
}
