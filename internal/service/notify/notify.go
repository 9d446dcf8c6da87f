package notify

import (
	"fmt"

	"go.uber.org/zap"
)

// Notifier announces completed translations on the server console when
// the client asked for a notification.
type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) TranslationComplete(model string) {
	fmt.Println("🔔 번역이 성공적으로 완료되었습니다.")
	n.logger.Info("Translation complete notification", zap.String("model", model))
}
