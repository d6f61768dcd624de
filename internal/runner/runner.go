package runner

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Executor queues external actions. *connection.Dispatcher implements it.
type Executor interface {
	ExecuteAction(action model.ActionModel, extras model.RunExtras) connection.Pending
}

// Internal runs built-in actions that are not flow control and supplies
// variables for conditions.
type Internal interface {
	ExecuteInternal(action model.ActionModel, extras model.RunExtras)
	Variable(name string) (any, bool)
}

// Logger is the logging interface used by the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// held is one run-while-held repeat loop.
type held struct {
	setID string
	stop  chan struct{}
}

// Runner owns one control's delayed-action timers.
type Runner struct {
	controlID string
	exec      Executor
	internal  Internal
	serialize func(func())
	logger    Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*time.Timer
	held    *held
}

// New creates a runner for a control. internal may be nil, in which case
// internal actions other than flow control are ignored.
func New(controlID string, exec Executor, internal Internal) *Runner {
	return &Runner{
		controlID: controlID,
		exec:      exec,
		internal:  internal,
		serialize: func(fn func()) { fn() },
		logger:    noopLogger{},
		pending:   make(map[uint64]*time.Timer),
	}
}

// SetSerializer sets the function timer bodies run through.
func (r *Runner) SetSerializer(serialize func(func())) {
	if serialize != nil {
		r.serialize = serialize
	}
}

// SetLogger sets the logger.
func (r *Runner) SetLogger(logger Logger) {
	r.logger = logger
}

// Execute runs actions in order. Actions after a wait are scheduled.
func (r *Runner) Execute(actions []model.ActionModel, extras model.RunExtras) {
	r.walk(actions, extras)
}

func (r *Runner) walk(actions []model.ActionModel, extras model.RunExtras) {
	var delay time.Duration
	for _, a := range actions {
		a := a
		if a.Disabled {
			continue
		}
		if a.IsInternal() && a.Action == definition.ActionWait {
			delay += waitDuration(a)
			continue
		}
		if delay == 0 {
			r.run(a, extras)
			continue
		}
		r.After(delay, func() { r.run(a, extras) })
	}
}

func (r *Runner) run(a model.ActionModel, extras model.RunExtras) {
	if !a.IsInternal() {
		if r.exec != nil {
			r.exec.ExecuteAction(a, extras)
		}
		return
	}

	switch a.Action {
	case definition.ActionGroup:
		r.walk(a.Children[definition.GroupDefault], extras)
	case definition.ActionLogicIf:
		if r.condition(a) {
			r.walk(a.Children[definition.GroupDefault], extras)
		} else {
			r.walk(a.Children[definition.GroupElse], extras)
		}
	default:
		if r.internal != nil {
			r.internal.ExecuteInternal(a, extras)
		}
	}
}

func (r *Runner) condition(a model.ActionModel) bool {
	var opts definition.CompareOptions
	if err := definition.DecodeOptions(a.Options, &opts); err != nil {
		r.logger.Warn("invalid logic_if options", "control_id", r.controlID, "action_id", a.ID, "error", err)
		return false
	}
	var actual any
	if r.internal != nil {
		actual, _ = r.internal.Variable(opts.Variable)
	}
	return definition.Compare(actual, opts.Op, opts.Value)
}

func waitDuration(a model.ActionModel) time.Duration {
	var opts definition.WaitOptions
	if err := definition.DecodeOptions(a.Options, &opts); err != nil || opts.Time < 0 {
		return 0
	}
	return time.Duration(opts.Time) * time.Millisecond
}

// After runs body after delay through the serializer unless aborted first.
func (r *Runner) After(delay time.Duration, body func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.pending[id] = time.AfterFunc(delay, func() {
		r.serialize(func() {
			if !r.claim(id) {
				return
			}
			body()
		})
	})
}

// claim removes a fired timer's registration, reporting whether it was
// still pending.
func (r *Runner) claim(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; !ok {
		return false
	}
	delete(r.pending, id)
	return true
}

// PendingCount returns the number of scheduled bodies not yet run.
func (r *Runner) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// HasDelayed reports whether anything is scheduled or repeating.
func (r *Runner) HasDelayed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) > 0 || r.held != nil
}

// AbortDelayed cancels every scheduled body and any held repeat. It
// reports whether anything was cancelled.
func (r *Runner) AbortDelayed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	aborted := len(r.pending) > 0 || r.held != nil
	for id, t := range r.pending {
		t.Stop()
		delete(r.pending, id)
	}
	r.stopHeldLocked()
	if aborted {
		r.logger.Debug("delayed actions aborted", "control_id", r.controlID)
	}
	return aborted
}

// StartHeld runs actions now and then every tick until StopHeld. Starting a
// new repeat replaces any running one.
func (r *Runner) StartHeld(setID string, actions []model.ActionModel, extras model.RunExtras, tick time.Duration) {
	r.mu.Lock()
	r.stopHeldLocked()
	h := &held{setID: setID, stop: make(chan struct{})}
	r.held = h
	r.mu.Unlock()

	r.Execute(actions, extras)
	go r.repeat(h, actions, extras, tick)
}

func (r *Runner) repeat(h *held, actions []model.ActionModel, extras model.RunExtras, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			r.serialize(func() {
				r.mu.Lock()
				current := r.held == h
				r.mu.Unlock()
				if current {
					r.Execute(actions, extras)
				}
			})
		}
	}
}

// StopHeld stops the held repeat. It reports the set id that was repeating.
func (r *Runner) StopHeld() (setID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held == nil {
		return "", false
	}
	setID = r.held.setID
	r.stopHeldLocked()
	return setID, true
}

func (r *Runner) stopHeldLocked() {
	if r.held != nil {
		close(r.held.stop)
		r.held = nil
	}
}
