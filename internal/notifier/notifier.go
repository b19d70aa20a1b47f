package notifier

import (
	"context"
	"fmt"

	"pokerhand/internal/classifier"
	"pokerhand/internal/config"
	"pokerhand/internal/domain"
)

type Notification struct {
	Record domain.HandRecord
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Threshold only forwards hands at least as strong as Min.
type Threshold struct {
	Next Notifier
	Min  classifier.HandType
}

func (t Threshold) Notify(ctx context.Context, n Notification) error {
	if t.Next == nil {
		return nil
	}
	if classifier.HandType(n.Record.HandType).Strength() < t.Min.Strength() {
		return nil
	}
	return t.Next.Notify(ctx, n)
}

// FromConfig returns nil when no Telegram credentials are configured.
func FromConfig(cfg config.NotifierConfig) (Notifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var floor classifier.HandType
	if cfg.MinHandType != "" {
		ht, err := classifier.ParseHandType(cfg.MinHandType)
		if err != nil {
			return nil, fmt.Errorf("notifier.min_hand_type: %w", err)
		}
		floor = ht
	}

	return Threshold{Next: NewTelegram(cfg.TelegramToken, cfg.TelegramChatIDs), Min: floor}, nil
}
