package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"pokerhand/internal/classifier"
	"pokerhand/internal/domain"
	"pokerhand/internal/notifier"
	"pokerhand/internal/storage"
)

type Broadcaster interface {
	Broadcast(msg string)
}

type StatsRecorder interface {
	IncrHandType(ctx context.Context, handType string) error
}

// Processor is the single classification pipeline shared by the HTTP handlers and the
// queue consumer: classify, persist, then the best-effort side effects.
type Processor struct {
	classifier  classifier.Classifier
	repo        storage.HandRepository
	stats       StatsRecorder
	notifier    notifier.Notifier
	broadcaster Broadcaster
	log         *slog.Logger
	feedTmpl    *template.Template
}

type Option func(*Processor)

func WithStats(s StatsRecorder) Option {
	return func(p *Processor) { p.stats = s }
}

func WithNotifier(n notifier.Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(p *Processor) { p.broadcaster = b }
}

func NewProcessor(cl classifier.Classifier, repo storage.HandRepository, log *slog.Logger, opts ...Option) *Processor {
	tmpl := template.Must(template.New("feed-item").Parse(`
<tr class="hand {{.Class}}">
    {{range .Cards}}<td>{{.}}</td>{{end}}
    <td class="hand-type">{{.HandType}}</td>
</tr>`))

	p := &Processor{
		classifier: cl,
		repo:       repo,
		log:        log,
		feedTmpl:   tmpl,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetBroadcaster attaches a broadcaster after construction; the HTTP server that owns
// the event stream is usually built after the processor it calls.
func (p *Processor) SetBroadcaster(b Broadcaster) {
	p.broadcaster = b
}

func (p *Processor) Process(ctx context.Context, sub domain.Submission) (domain.HandRecord, error) {
	result, err := p.classifier.Classify(ctx, sub.Hand)
	if err != nil {
		return domain.HandRecord{}, err
	}

	createdAt := sub.SubmittedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	rec, err := p.repo.Save(ctx, domain.HandRecord{
		ID:          sub.ID,
		Hand:        sub.Hand,
		HandType:    string(result.HandType),
		Description: result.Description,
		CreatedAt:   createdAt,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		// redelivered submission; side effects already ran
		p.log.Info("hand.duplicate", "id", rec.ID)
		return rec, nil
	}
	if err != nil {
		return domain.HandRecord{}, fmt.Errorf("save hand: %w", err)
	}

	p.log.Info("hand.classified", "id", rec.ID, "hand_type", rec.HandType)

	if p.stats != nil {
		if err := p.stats.IncrHandType(ctx, rec.HandType); err != nil {
			p.log.Error("stats.incr_failed", "hand_type", rec.HandType, "err", err)
		}
	}

	if p.broadcaster != nil {
		if item, err := p.renderFeedItem(rec); err == nil {
			p.broadcaster.Broadcast(item)
		} else {
			p.log.Error("feed.render_failed", "err", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, notifier.Notification{Record: rec}); err != nil {
			p.log.Error("notify.failed", "id", rec.ID, "err", err)
		}
	}

	return rec, nil
}

func (p *Processor) renderFeedItem(rec domain.HandRecord) (string, error) {
	cards := make([]string, len(rec.Hand))
	for i, c := range rec.Hand {
		cards[i] = c.String()
	}

	view := map[string]any{
		"Cards":    cards,
		"HandType": rec.HandType,
		"Class":    cssClass(rec.HandType),
	}

	var buf bytes.Buffer
	if err := p.feedTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cssClass turns "Four of a Kind" into "four-of-a-kind".
func cssClass(handType string) string {
	return strings.ReplaceAll(strings.ToLower(handType), " ", "-")
}
