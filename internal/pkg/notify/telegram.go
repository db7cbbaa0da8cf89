package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

const queueSize = 100

var (
	ErrQueueFull = errors.New("message queue is full")
	ErrStopped   = errors.New("notifier stopped")
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends queued messages to one chat, spaced by a minimum interval.
type TelegramNotifier struct {
	bot      botAPI
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time

	queue     chan string
	queueDone chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// NewTelegramNotifier connects to the bot API and starts the sender.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("get bot info: %w", err)
	}

	n := newTelegramNotifier(bot, chatID, telegramSendInterval)
	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return n, nil
}

func newTelegramNotifier(bot botAPI, chatID int64, interval time.Duration) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		interval:  interval,
		queue:     make(chan string, queueSize),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	go n.messageSender()
	return n
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

// Notify queues a Markdown message without blocking.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	if n.ctx.Err() != nil {
		return ErrStopped
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- text:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "message_preview", truncateString(text, 50))
		return ErrQueueFull
	}
}

// Stop stops accepting messages and waits until the queue is flushed.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.stopOnce.Do(n.cancel)
	<-n.queueDone
}

func (n *TelegramNotifier) messageSender() {
	defer close(n.queueDone)
	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case text := <-n.queue:
					n.send(text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(text)
		}
	}
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if elapsed := time.Since(n.lastSend); elapsed < n.interval {
		time.Sleep(n.interval - elapsed)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	start := time.Now()
	n.lastSend = start
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err, "message_preview", truncateString(text, 50))
		return
	}
	slog.Info("Telegram send: success", "send_duration", time.Since(start), "queue_length", len(n.queue))
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
