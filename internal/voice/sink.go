package voice

import (
	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/models"
)

// Sink 语音播报出口
// 引擎只负责产出事件，具体播报（TTS、客户端推送）由实现决定
type Sink interface {
	Speak(ev models.AlertEvent)
}

// LogSink 把播报写进结构化日志，调试和无音频环境用
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink 创建日志播报出口
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Speak 输出一条播报
func (s *LogSink) Speak(ev models.AlertEvent) {
	s.logger.Info("voice alert",
		zap.String("category", string(ev.Category)),
		zap.String("priority", ev.Priority.String()),
		zap.String("template", ev.TemplateID),
		zap.String("message", ev.Message()),
		zap.Int64("timestamp_ms", ev.TimestampMs))
}
