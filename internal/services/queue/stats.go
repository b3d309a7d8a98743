package queue

import (
	"fmt"

	"go.uber.org/zap"
)

func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	stats := map[string]interface{}{
		"messages":  queueInfo.Messages,
		"consumers": queueInfo.Consumers,
		"name":      queueInfo.Name,
	}

	return stats, nil
}

// HealthCheck checks if RabbitMQ is available and the event queue still exists
func (q *QueueService) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	stats, err := q.GetQueueStats()
	if err != nil {
		return "unhealthy: " + err.Error()
	}

	q.logger.Debug("Event queue inspected",
		zap.Any("messages", stats["messages"]),
		zap.Any("consumers", stats["consumers"]))

	return "healthy"
}
