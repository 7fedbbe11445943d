package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"survey-bot/internal/domain/dto"
	"survey-bot/internal/domain/entities"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/infra/metrics"
)

// ChannelService sits between the webhook handlers and the state machine. It
// decides whether a message waits on the debounce queue, runs one turn at a
// time per contact and sends the resulting messages with human-like pacing.
type ChannelService struct {
	Logger           *logger.Logger
	Conversation     Iservices.IConversationService
	WhatsAppProvider Iservices.IWhatsAppProvider
	Metrics          *metrics.Recorder
	Queue            *DebounceQueue
	TypingMinDelay   time.Duration
	TypingMaxDelay   time.Duration

	locks contactLocks
	// mu guards stopped and every wg.Add, so no turn starts once Shutdown
	// began waiting.
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewChannelService(logger *logger.Logger, conversation Iservices.IConversationService, whatsAppProvider Iservices.IWhatsAppProvider, recorder *metrics.Recorder, debounceDelay, typingMinDelay, typingMaxDelay time.Duration) *ChannelService {
	ctx, cancel := context.WithCancel(context.Background())
	cs := &ChannelService{
		Logger:           logger,
		Conversation:     conversation,
		WhatsAppProvider: whatsAppProvider,
		Metrics:          recorder,
		TypingMinDelay:   typingMinDelay,
		TypingMaxDelay:   typingMaxDelay,
		ctx:              ctx,
		cancel:           cancel,
	}
	cs.Queue = NewDebounceQueue(debounceDelay, cs.runQueued, recorder)
	return cs
}

// HandleInbound routes one normalized message. Inactive contacts are processed
// at once since they can only trigger activation; everyone else goes through
// the debounce queue so a burst of lines counts as one answer. Messages that
// arrive after Shutdown are dropped.
func (cs *ChannelService) HandleInbound(ctx context.Context, msg dto.InboundMessage) {
	cs.Metrics.IncInbound(msg.Provider)

	if !cs.begin() {
		cs.Logger.Warn(fmt.Sprintf("Dropping message from %s, the channel is shutting down", msg.ContactID))
		return
	}
	defer cs.wg.Done()

	if !cs.isInactive(ctx, msg.ContactID) {
		cs.enqueue(msg)
		return
	}

	unlock := cs.locks.Lock(msg.ContactID)
	defer unlock()

	// A turn that held the lock may have activated the contact meanwhile.
	if !cs.isInactive(ctx, msg.ContactID) {
		cs.enqueue(msg)
		return
	}
	cs.runTurn(msg)
}

// runQueued is the debounce queue handler.
func (cs *ChannelService) runQueued(msg dto.InboundMessage) {
	if !cs.begin() {
		return
	}
	defer cs.wg.Done()

	unlock := cs.locks.Lock(msg.ContactID)
	defer unlock()
	cs.runTurn(msg)
}

// begin registers a turn with the shutdown wait group. It returns false once
// Shutdown was called.
func (cs *ChannelService) begin() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.stopped {
		return false
	}
	cs.wg.Add(1)
	return true
}

func (cs *ChannelService) isInactive(ctx context.Context, contactID string) bool {
	state, err := cs.Conversation.CurrentState(ctx, contactID)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to read state of %s, debouncing: %v", contactID, err))
		return false
	}
	return state == entities.StateInactive
}

func (cs *ChannelService) enqueue(msg dto.InboundMessage) {
	if !cs.Queue.Enqueue(msg) {
		cs.Logger.Warn(fmt.Sprintf("Dropping message from %s, the channel is shutting down", msg.ContactID))
	}
}

// runTurn processes one coalesced message while the caller holds the contact
// lock. Errors and panics end here: they are logged and the contact gets the
// retry notice.
func (cs *ChannelService) runTurn(msg dto.InboundMessage) {
	ctx := cs.ctx
	if ctx.Err() != nil {
		cs.Logger.Warn(fmt.Sprintf("Dropping turn for %s, the channel was cancelled", msg.ContactID))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			cs.Logger.Error(fmt.Sprintf("Recovered from panic while handling %s: %v", msg.ContactID, r))
			cs.sendRetry(ctx, msg)
		}
	}()

	outbound, err := cs.Conversation.Process(ctx, msg)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to process message from %s: %v", msg.ContactID, err))
		cs.sendRetry(ctx, msg)
		return
	}

	for _, out := range outbound {
		if err := cs.send(ctx, msg, out); err != nil {
			cs.Logger.Error(fmt.Sprintf("Failed to send WhatsApp message to %s: %v", msg.ContactID, err))
			cs.sendRetry(ctx, msg)
			return
		}
	}
}

func (cs *ChannelService) send(ctx context.Context, msg dto.InboundMessage, out dto.Outbound) error {
	if err := sleep(ctx, out.Pause); err != nil {
		return err
	}

	if err := cs.WhatsAppProvider.SimulateTyping(ctx, msg.ContactID, msg.MessageID); err != nil {
		cs.Logger.Warn(fmt.Sprintf("Typing indicator failed for %s: %v", msg.ContactID, err))
	}
	if err := sleep(ctx, cs.typingDelay()); err != nil {
		return err
	}

	err := cs.WhatsAppProvider.SendTextMessage(ctx, msg.ContactID, out.Text)
	cs.Metrics.ObserveOutbound(err)
	return err
}

func (cs *ChannelService) sendRetry(ctx context.Context, msg dto.InboundMessage) {
	notice := cs.Conversation.RetryNotice()
	if notice == "" {
		return
	}
	err := cs.WhatsAppProvider.SendTextMessage(ctx, msg.ContactID, notice)
	cs.Metrics.ObserveOutbound(err)
	if err != nil {
		cs.Logger.Error(fmt.Sprintf("Failed to send retry notice to %s: %v", msg.ContactID, err))
	}
}

// typingDelay is a random duration in [TypingMinDelay, TypingMaxDelay].
func (cs *ChannelService) typingDelay() time.Duration {
	if cs.TypingMaxDelay <= cs.TypingMinDelay {
		return cs.TypingMinDelay
	}
	return cs.TypingMinDelay + time.Duration(rand.Int63n(int64(cs.TypingMaxDelay-cs.TypingMinDelay+1)))
}

// Shutdown rejects new messages, drops pending debounced turns and waits for
// running ones. When ctx expires first, running turns are cancelled.
func (cs *ChannelService) Shutdown(ctx context.Context) error {
	cs.mu.Lock()
	cs.stopped = true
	cs.mu.Unlock()

	if dropped := cs.Queue.Stop(); dropped > 0 {
		cs.Logger.Warn(fmt.Sprintf("Dropped %d pending turns on shutdown", dropped))
	}

	done := make(chan struct{})
	go func() {
		cs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cs.cancel()
		return nil
	case <-ctx.Done():
		cs.cancel()
		<-done
		return ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// contactLocks is a mutex per contact id. Entries are dropped once no turn
// holds or waits for them.
type contactLocks struct {
	mu    sync.Mutex
	locks map[string]*contactLock
}

type contactLock struct {
	mu   sync.Mutex
	refs int
}

func (l *contactLocks) Lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*contactLock)
	}
	lock, ok := l.locks[id]
	if !ok {
		lock = &contactLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
