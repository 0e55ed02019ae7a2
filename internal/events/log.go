package events

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

// LogListener writes every event to the application log
type LogListener struct {
	logger *logrus.Logger
}

// NewLogListener creates a listener logging at debug level
func NewLogListener(log *logrus.Logger) *LogListener {
	return &LogListener{logger: log}
}

func (l *LogListener) Name() string { return "log" }

func (l *LogListener) Handle(_ context.Context, event models.Event) error {
	entry := logger.WithFields(l.logger, logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"group_id":   event.GroupID,
	})
	if data, ok := event.Document.(models.ShoppingListItemBulkEventData); ok {
		entry = entry.WithFields(logrus.Fields{
			"operation":        data.Operation,
			"shopping_list_id": data.ShoppingListID,
			"items":            len(data.ShoppingListItemIDs),
		})
	}
	entry.Debug("Event published")
	return nil
}
