package app

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task_reminder_engine/internal/domain/notify"
	"task_reminder_engine/internal/domain/policy"
	"task_reminder_engine/internal/domain/reminder"
)

// resolveRetryDelay is how long a tick is pushed back when the policy
// store is temporarily unreadable.
const resolveRetryDelay = time.Minute

const defaultWorkerCount = 8

// ReminderScheduler owns one reminder state per outstanding task
// assignment. States are kept in a due-time min-heap and processed by
// a bounded worker pool on each sweep; ticks for different assignments
// run concurrently and share no mutable state beyond the queue itself.
type ReminderScheduler struct {
	resolver *policy.Resolver
	notifier notify.Notifier
	logger   *logrus.Logger

	loc     *time.Location
	workers int
	now     func() time.Time

	mu     sync.Mutex
	states map[uuid.UUID]*trackedReminder
	queue  dueQueue
	seq    int64
}

// trackedReminder pairs a state with its own lock so a tick and a
// lifecycle signal for the same assignment serialize, while ticks for
// different assignments proceed in parallel.
type trackedReminder struct {
	mu        sync.Mutex
	state     *reminder.State
	escalated bool // The one terminal escalation dispatch has been emitted
}

// SchedulerOption configures a ReminderScheduler.
type SchedulerOption func(*ReminderScheduler)

// WithClock replaces the scheduler's time source. Used by tests to
// drive deterministic sweeps.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *ReminderScheduler) { s.now = now }
}

// WithLocation sets the timezone quiet hours are evaluated in.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *ReminderScheduler) { s.loc = loc }
}

// WithWorkerCount bounds how many ticks a single sweep runs concurrently.
func WithWorkerCount(n int) SchedulerOption {
	return func(s *ReminderScheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewReminderScheduler(resolver *policy.Resolver, notifier notify.Notifier, logger *logrus.Logger, opts ...SchedulerOption) *ReminderScheduler {
	s := &ReminderScheduler{
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		loc:      time.UTC,
		workers:  defaultWorkerCount,
		now:      time.Now,
		states:   make(map[uuid.UUID]*trackedReminder),
		queue:    make(dueQueue, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	heap.Init(&s.queue)
	return s
}

// OnAssigned registers a newly pending task assignment. The first
// reminder is due immediately. Registering an assignment that is
// already tracked is a no-op.
func (s *ReminderScheduler) OnAssigned(ctx context.Context, taskAssignmentID, childID uuid.UUID) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[taskAssignmentID]; exists {
		s.logger.WithField("task_assignment_id", taskAssignmentID).Info("Assignment already tracked, skipping registration")
		return nil
	}
	st := reminder.NewState(taskAssignmentID, childID, now)
	s.states[taskAssignmentID] = &trackedReminder{state: st}
	s.pushLocked(taskAssignmentID, st.NextDueAt)
	s.logger.WithFields(logrus.Fields{
		"task_assignment_id": taskAssignmentID,
		"child_id":           childID,
	}).Info("Reminder state created for pending assignment")
	return nil
}

// OnCompletedOrCancelled terminates the reminder state for an
// assignment. status must be Completed or Cancelled. The transition
// preempts any scheduled tick: a tick that observes a terminal status
// never dispatches.
func (s *ReminderScheduler) OnCompletedOrCancelled(ctx context.Context, taskAssignmentID uuid.UUID, status reminder.Status) error {
	if status != reminder.StatusCompleted && status != reminder.StatusCancelled {
		return fmt.Errorf("invalid terminal status %q for assignment %s", status, taskAssignmentID)
	}

	s.mu.Lock()
	tr, ok := s.states[taskAssignmentID]
	s.mu.Unlock()
	if !ok {
		s.logger.WithField("task_assignment_id", taskAssignmentID).Warn("Completion signal for unknown assignment, ignoring")
		return nil
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.state.Status.Terminal() {
		return nil
	}
	now := s.now()
	tr.state.Status = status
	tr.state.ClosedAt = &now
	s.logger.WithFields(logrus.Fields{
		"task_assignment_id": taskAssignmentID,
		"status":             status,
	}).Info("Reminder state closed by task lifecycle signal")
	return nil
}

// ProcessDueReminders runs one sweep: every state whose due time has
// arrived gets a tick. Invoked periodically by the cron driver and
// directly by tests.
func (s *ReminderScheduler) ProcessDueReminders(ctx context.Context) {
	now := s.now()
	due := s.collectDue(now)
	if len(due) == 0 {
		return
	}

	workers := s.workers
	if workers > len(due) {
		workers = len(due)
	}
	jobs := make(chan *trackedReminder)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tr := range jobs {
				s.tick(ctx, tr, now)
			}
		}()
	}
	for _, tr := range due {
		jobs <- tr
	}
	close(jobs)
	wg.Wait()
}

// collectDue pops every queue entry due at or before now and maps it
// back to its tracked state. Entries for states that have since been
// archived are dropped.
func (s *ReminderScheduler) collectDue(now time.Time) []*trackedReminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*trackedReminder
	for s.queue.Len() > 0 && !s.queue[0].dueAt.After(now) {
		entry := heap.Pop(&s.queue).(*queueEntry)
		if tr, ok := s.states[entry.assignmentID]; ok {
			due = append(due, tr)
		}
	}
	return due
}

// tick performs one reminder cycle for a single state. The terminal
// status check happens under the state lock, in the same critical
// section as any dispatch, so a completion signal observed here
// guarantees no further intent is ever emitted.
func (s *ReminderScheduler) tick(ctx context.Context, tr *trackedReminder, now time.Time) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	st := tr.state
	if st.Status.Terminal() {
		return
	}
	if now.Before(st.NextDueAt) {
		s.enqueue(st.TaskAssignmentID, st.NextDueAt)
		return
	}

	// Policy is re-resolved on every tick, never cached on the state,
	// so administrator edits apply from the next cycle onward.
	eff, err := s.resolver.Resolve(ctx, st.ChildID)
	if err != nil {
		s.logger.WithError(err).WithField("task_assignment_id", st.TaskAssignmentID).Error("Policy resolution failed, retrying next sweep")
		st.NextDueAt = now.Add(resolveRetryDelay)
		s.enqueue(st.TaskAssignmentID, st.NextDueAt)
		return
	}

	local := now.In(s.loc)
	if policy.IsQuiet(eff, policy.TimeOfDayFrom(local)) {
		// A suppressed tick is not a consumed retry.
		st.NextDueAt = policy.NextQuietEnd(eff, local)
		s.enqueue(st.TaskAssignmentID, st.NextDueAt)
		s.logger.WithFields(logrus.Fields{
			"task_assignment_id": st.TaskAssignmentID,
			"next_due_at":        st.NextDueAt,
		}).Debug("Tick suppressed by quiet hours")
		return
	}

	decision := reminder.Decide(eff, st.AttemptsSoFar)
	if decision.Terminal {
		// Reachable when an administrator lowered maxRetries below the
		// attempts this state already consumed.
		s.exhaust(st, tr, decision, now)
		return
	}

	if len(decision.Channels) == 0 {
		// Every channel disabled: the attempt is still consumed so the
		// schedule stays bounded in time.
		s.logger.WithFields(logrus.Fields{
			"task_assignment_id": st.TaskAssignmentID,
			"attempt":            st.AttemptsSoFar,
		}).Warn("No delivery channels enabled, attempt consumed without dispatch")
	} else {
		s.emit(st.ChildID, st.TaskAssignmentID, decision.Channels)
		sent := now
		st.LastSentAt = &sent
	}

	st.AttemptsSoFar++
	st.NextDueAt = now.Add(eff.RepeatInterval())

	if st.AttemptsSoFar > eff.MaxRetries {
		s.exhaust(st, tr, reminder.Decide(eff, st.AttemptsSoFar), now)
		return
	}
	s.enqueue(st.TaskAssignmentID, st.NextDueAt)
}

// exhaust transitions a state to Exhausted, emitting the single parent
// escalation dispatch when the policy calls for one. No tick is ever
// scheduled for the state again.
func (s *ReminderScheduler) exhaust(st *reminder.State, tr *trackedReminder, decision reminder.Decision, now time.Time) {
	if decision.Escalation && !tr.escalated {
		s.emit(st.ChildID, st.TaskAssignmentID, decision.Channels)
		tr.escalated = true
		sent := now
		st.LastSentAt = &sent
		s.logger.WithFields(logrus.Fields{
			"task_assignment_id": st.TaskAssignmentID,
			"child_id":           st.ChildID,
		}).Info("Parent escalation dispatched at exhaustion boundary")
	}
	st.Status = reminder.StatusExhausted
	st.ClosedAt = &now
	s.logger.WithFields(logrus.Fields{
		"task_assignment_id": st.TaskAssignmentID,
		"attempts":           st.AttemptsSoFar,
	}).Info("Reminder state exhausted")
}

// emit hands one dispatch intent per channel to the notifier. The
// Notifier contract requires it to return without blocking on network
// I/O (transports queue internally), so emitting under the state lock
// keeps intent and state advance atomic without stalling the tick.
// Failures are logged and never roll back scheduler state: a failed
// dispatch still counts as a consumed attempt.
func (s *ReminderScheduler) emit(childID, taskAssignmentID uuid.UUID, channels []policy.Channel) {
	for _, ch := range channels {
		if err := s.notifier.Dispatch(context.Background(), childID, ch, taskAssignmentID); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"task_assignment_id": taskAssignmentID,
				"channel":            ch,
			}).Warn("Notifier dispatch failed")
		}
	}
}

// enqueue schedules the next tick for an assignment.
func (s *ReminderScheduler) enqueue(assignmentID uuid.UUID, dueAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushLocked(assignmentID, dueAt)
}

func (s *ReminderScheduler) pushLocked(assignmentID uuid.UUID, dueAt time.Time) {
	s.seq++
	heap.Push(&s.queue, &queueEntry{dueAt: dueAt, assignmentID: assignmentID, seq: s.seq})
}

// StateOf returns a copy of the tracked state for an assignment.
func (s *ReminderScheduler) StateOf(taskAssignmentID uuid.UUID) (reminder.State, bool) {
	s.mu.Lock()
	tr, ok := s.states[taskAssignmentID]
	s.mu.Unlock()
	if !ok {
		return reminder.State{}, false
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return *tr.state, true
}

// ArchiveTerminalStates drops Completed and Cancelled states whose
// terminal transition is older than retention, and reports how many
// Exhausted states remain for audit. Exhausted states are kept until
// they age past the same retention window.
func (s *ReminderScheduler) ArchiveTerminalStates(ctx context.Context, retention time.Duration) (archived, exhaustedRetained int) {
	cutoff := s.now().Add(-retention)

	// Lock order is per-state first, queue second (ticks enqueue while
	// holding their state lock), so inspect states without holding s.mu.
	s.mu.Lock()
	tracked := make(map[uuid.UUID]*trackedReminder, len(s.states))
	for id, tr := range s.states {
		tracked[id] = tr
	}
	s.mu.Unlock()

	expired := make([]uuid.UUID, 0)
	for id, tr := range tracked {
		tr.mu.Lock()
		st := tr.state
		switch {
		case !st.Status.Terminal():
			// Still live.
		case st.ClosedAt != nil && st.ClosedAt.Before(cutoff):
			expired = append(expired, id)
		case st.Status == reminder.StatusExhausted:
			exhaustedRetained++
		}
		tr.mu.Unlock()
	}

	s.mu.Lock()
	for _, id := range expired {
		if _, ok := s.states[id]; ok {
			delete(s.states, id)
			archived++
		}
	}
	s.mu.Unlock()
	s.logger.WithFields(logrus.Fields{
		"archived":           archived,
		"exhausted_retained": exhaustedRetained,
	}).Info("Terminal reminder states archived")
	return archived, exhaustedRetained
}

// queueEntry orders states by due time; seq breaks ties FIFO.
type queueEntry struct {
	dueAt        time.Time
	assignmentID uuid.UUID
	seq          int64
}

type dueQueue []*queueEntry

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool {
	if q[i].dueAt.Equal(q[j].dueAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].dueAt.Before(q[j].dueAt)
}

func (q dueQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *dueQueue) Push(x any) { *q = append(*q, x.(*queueEntry)) }

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return entry
}
