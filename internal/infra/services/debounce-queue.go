package services

import (
	"sync"
	"time"

	"survey-bot/internal/domain/dto"
	"survey-bot/internal/infra/metrics"
)

type pendingTurn struct {
	timer *time.Timer
	msg   dto.InboundMessage
}

// DebounceQueue coalesces bursts of messages from one contact into a single
// turn. Each contact has at most one pending entry; a newer message replaces
// the payload and restarts the timer. When the timer fires the handler gets
// the latest message only.
type DebounceQueue struct {
	delay   time.Duration
	handler func(dto.InboundMessage)
	metrics *metrics.Recorder

	mu      sync.Mutex
	pending map[string]*pendingTurn
	stopped bool
}

func NewDebounceQueue(delay time.Duration, handler func(dto.InboundMessage), recorder *metrics.Recorder) *DebounceQueue {
	return &DebounceQueue{
		delay:   delay,
		handler: handler,
		metrics: recorder,
		pending: make(map[string]*pendingTurn),
	}
}

// Enqueue stores msg as the contact's pending turn and (re)starts its timer.
// It returns false once the queue is stopped.
func (q *DebounceQueue) Enqueue(msg dto.InboundMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return false
	}

	if previous, ok := q.pending[msg.ContactID]; ok {
		previous.timer.Stop()
		q.metrics.IncSuperseded()
	}

	turn := &pendingTurn{msg: msg}
	turn.timer = time.AfterFunc(q.delay, func() { q.fire(msg.ContactID, turn) })
	q.pending[msg.ContactID] = turn
	q.metrics.SetPending(len(q.pending))
	return true
}

// fire hands the turn to the handler unless a newer message replaced it after
// the timer had already started running.
func (q *DebounceQueue) fire(contactID string, turn *pendingTurn) {
	q.mu.Lock()
	if q.pending[contactID] != turn {
		q.mu.Unlock()
		return
	}
	delete(q.pending, contactID)
	q.metrics.SetPending(len(q.pending))
	q.mu.Unlock()

	q.handler(turn.msg)
}

// Pending returns the number of contacts waiting on their timer.
func (q *DebounceQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop cancels every pending timer and rejects further messages. It returns
// the number of turns that were dropped.
func (q *DebounceQueue) Stop() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true
	dropped := 0
	for id, turn := range q.pending {
		if turn.timer.Stop() {
			dropped++
		}
		delete(q.pending, id)
	}
	q.metrics.SetPending(0)
	return dropped
}
