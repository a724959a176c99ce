package question

import (
	"sync"
	"time"

	"github.com/hupe1980/negomesh/core"
)

// PendingQuestion is a clarification request raised by a paused run. It
// exists only while the run is paused and is removed exactly once when
// answered.
type PendingQuestion struct {
	QuestionID   string    `json:"question_id"`
	RunID        string    `json:"run_id"`
	SessionID    string    `json:"session_id"`
	CaseID       string    `json:"case_id"`
	QuestionText string    `json:"question"`
	AskedBy      core.Role `json:"asked_by"`
	TurnIndex    int       `json:"turn_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// budget tracks the shared clarification allowance of one session.
//
// Remaining (max - answered) only decreases when a question is answered, but
// Enqueue additionally reserves capacity for outstanding questions so that
// the total of answered plus in-flight questions can never exceed max.
type budget struct {
	max      int
	answered int
	reserved int
}

func (b *budget) remaining() int { return b.max - b.answered }
func (b *budget) available() int { return b.max - b.answered - b.reserved }

type sessionState struct {
	budget budget
	queue  []*PendingQuestion // FIFO across all runs of the session
}

// Controller owns the per-session question queues and budgets. All methods
// are safe for concurrent use by runs executing in parallel.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	byID     map[string]*PendingQuestion
}

// NewController constructs an empty controller.
func NewController() *Controller {
	return &Controller{
		sessions: make(map[string]*sessionState),
		byID:     make(map[string]*PendingQuestion),
	}
}

// OpenSession registers a session with its question budget. Opening an
// already known session is a no-op so resumed runs keep their budget state.
func (c *Controller) OpenSession(sessionID string, maxQuestions int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[sessionID]; ok {
		return
	}
	if maxQuestions < 0 {
		maxQuestions = 0
	}
	c.sessions[sessionID] = &sessionState{budget: budget{max: maxQuestions}}
}

// Enqueue appends a question to its session queue, reserving one unit of
// budget. Fails with ErrBudgetExhausted when no capacity is available and
// with ErrQuestionPending when the run already has an outstanding question.
func (c *Controller) Enqueue(q PendingQuestion) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[q.SessionID]
	if !ok {
		return "", ErrSessionUnknown
	}
	if sess.budget.available() <= 0 {
		return "", ErrBudgetExhausted
	}
	for _, pending := range sess.queue {
		if pending.RunID == q.RunID {
			return "", ErrQuestionPending
		}
	}

	if q.QuestionID == "" {
		q.QuestionID = core.NewID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	sess.budget.reserved++
	stored := q
	sess.queue = append(sess.queue, &stored)
	c.byID[stored.QuestionID] = &stored

	return stored.QuestionID, nil
}

// Next returns a copy of the oldest unanswered question for the session
// (FIFO across runs), the current queue length, and the remaining budget.
// The question stays queued until answered. Returns a nil question when the
// queue is empty.
func (c *Controller) Next(sessionID string) (*PendingQuestion, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[sessionID]
	if !ok {
		return nil, 0, 0
	}
	if len(sess.queue) == 0 {
		return nil, 0, sess.budget.remaining()
	}
	head := *sess.queue[0]
	return &head, len(sess.queue), sess.budget.remaining()
}

// Answer removes the question and consumes one unit of budget. The second
// answer for the same id fails with ErrNotFound.
func (c *Controller) Answer(questionID string) (*PendingQuestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.byID[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(c.byID, questionID)

	sess := c.sessions[q.SessionID]
	if sess != nil {
		for i, pending := range sess.queue {
			if pending.QuestionID == questionID {
				sess.queue = append(sess.queue[:i], sess.queue[i+1:]...)
				break
			}
		}
		sess.budget.reserved--
		sess.budget.answered++
	}

	answered := *q
	return &answered, nil
}

// Expire removes an unanswered question and releases its reservation without
// consuming budget. Used when a paused run is forcibly resolved. Expiring an
// unknown or already answered id fails with ErrNotFound.
func (c *Controller) Expire(questionID string) (*PendingQuestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.byID[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(c.byID, questionID)

	sess := c.sessions[q.SessionID]
	if sess != nil {
		for i, pending := range sess.queue {
			if pending.QuestionID == questionID {
				sess.queue = append(sess.queue[:i], sess.queue[i+1:]...)
				break
			}
		}
		sess.budget.reserved--
	}

	expired := *q
	return &expired, nil
}

// Remaining returns the session's remaining budget (max minus answered).
func (c *Controller) Remaining(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[sessionID]
	if !ok {
		return 0
	}
	return sess.budget.remaining()
}

// Available returns the budget that Enqueue could still reserve right now,
// i.e. remaining minus capacity held by outstanding questions.
func (c *Controller) Available(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[sessionID]
	if !ok {
		return 0
	}
	return sess.budget.available()
}

// MaxQuestions returns the budget the session was opened with.
func (c *Controller) MaxQuestions(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[sessionID]
	if !ok {
		return 0
	}
	return sess.budget.max
}

// PendingForRun returns a copy of the run's outstanding question, or nil.
func (c *Controller) PendingForRun(runID string) *PendingQuestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sess := range c.sessions {
		for _, pending := range sess.queue {
			if pending.RunID == runID {
				q := *pending
				return &q
			}
		}
	}
	return nil
}
