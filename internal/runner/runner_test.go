package runner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

type recorder struct {
	mu       sync.Mutex
	executed []string
	vars     map[string]any
}

func (r *recorder) ExecuteAction(a model.ActionModel, _ model.RunExtras) connection.Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, a.ID)
	return connection.Done(nil)
}

func (r *recorder) ExecuteInternal(a model.ActionModel, _ model.RunExtras) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, "internal:"+a.ID)
}

func (r *recorder) Variable(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vars[name]
	return v, ok
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.executed...)
}

func ext(id string) model.ActionModel {
	return model.ActionModel{ID: id, ConnectionID: "hue-1", Action: "on"}
}

func wait(ms any) model.ActionModel {
	return model.ActionModel{ID: "wait", ConnectionID: model.InternalConnection, Action: definition.ActionWait,
		Options: map[string]any{"time": ms}}
}

func newRunner() (*Runner, *recorder) {
	rec := &recorder{vars: map[string]any{}}
	return New("bank:1", rec, rec), rec
}

func TestExecute_ImmediateInOrder(t *testing.T) {
	r, rec := newRunner()
	disabled := ext("skip")
	disabled.Disabled = true
	setVar := model.ActionModel{ID: "sv", ConnectionID: model.InternalConnection, Action: definition.ActionSetVariable}

	r.Execute([]model.ActionModel{ext("a"), disabled, setVar, ext("b")}, model.RunExtras{})
	assert.Equal(t, []string{"a", "internal:sv", "b"}, rec.got())
	assert.Equal(t, 0, r.PendingCount())
}

func TestExecute_WaitAccumulates(t *testing.T) {
	r, rec := newRunner()

	r.Execute([]model.ActionModel{ext("a"), wait(20), ext("b"), wait("30"), ext("c")}, model.RunExtras{})
	assert.Equal(t, []string{"a"}, rec.got())
	assert.Equal(t, 2, r.PendingCount())

	require.Eventually(t, func() bool { return len(rec.got()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, rec.got())
	assert.Equal(t, 0, r.PendingCount())
}

func TestExecute_LogicIf(t *testing.T) {
	r, rec := newRunner()
	cond := model.ActionModel{
		ID: "if", ConnectionID: model.InternalConnection, Action: definition.ActionLogicIf,
		Options: map[string]any{"variable": "mode", "op": definition.OpEqual, "value": "day"},
		Children: map[string][]model.ActionModel{
			definition.GroupDefault: {ext("then")},
			definition.GroupElse:    {ext("else")},
		},
	}

	r.Execute([]model.ActionModel{cond}, model.RunExtras{})
	rec.vars["mode"] = "day"
	r.Execute([]model.ActionModel{cond}, model.RunExtras{})
	assert.Equal(t, []string{"else", "then"}, rec.got())
}

func TestExecute_ActionGroupHasOwnDelay(t *testing.T) {
	r, rec := newRunner()
	group := model.ActionModel{
		ID: "g", ConnectionID: model.InternalConnection, Action: definition.ActionGroup,
		Children: map[string][]model.ActionModel{
			definition.GroupDefault: {wait(20), ext("inner")},
		},
	}

	r.Execute([]model.ActionModel{group, ext("after")}, model.RunExtras{})
	assert.Equal(t, []string{"after"}, rec.got())
	require.Eventually(t, func() bool { return len(rec.got()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestAbortDelayed_Idempotent(t *testing.T) {
	r, rec := newRunner()
	r.Execute([]model.ActionModel{wait(30), ext("late")}, model.RunExtras{})

	assert.True(t, r.AbortDelayed())
	assert.False(t, r.AbortDelayed())
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.got())
}

// A timer that fires while the serializer is held must not run once the
// holder aborts.
func TestAbortDelayed_FiredTimerDoesNotRun(t *testing.T) {
	r, rec := newRunner()
	var lock sync.Mutex
	r.SetSerializer(func(fn func()) {
		lock.Lock()
		defer lock.Unlock()
		fn()
	})

	lock.Lock()
	r.Execute([]model.ActionModel{wait(5), ext("late")}, model.RunExtras{})
	time.Sleep(30 * time.Millisecond) // timer has fired and is blocked on lock
	r.AbortDelayed()
	lock.Unlock()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.got())
	assert.Equal(t, 0, r.PendingCount())
}

func TestHeld_RepeatsUntilStopped(t *testing.T) {
	r, rec := newRunner()

	r.StartHeld("down", []model.ActionModel{ext("dim")}, model.RunExtras{}, 10*time.Millisecond)
	assert.Equal(t, []string{"dim"}, rec.got(), "runs immediately")
	assert.True(t, r.HasDelayed())

	require.Eventually(t, func() bool { return len(rec.got()) >= 3 }, time.Second, 5*time.Millisecond)

	setID, ok := r.StopHeld()
	assert.True(t, ok)
	assert.Equal(t, "down", setID)
	n := len(rec.got())
	time.Sleep(40 * time.Millisecond)
	assert.LessOrEqual(t, len(rec.got()), n+1, "at most one tick in flight when stopped")

	_, ok = r.StopHeld()
	assert.False(t, ok)
}

func TestHeld_AbortStops(t *testing.T) {
	r, rec := newRunner()
	var lock sync.Mutex
	r.SetSerializer(func(fn func()) {
		lock.Lock()
		defer lock.Unlock()
		fn()
	})

	lock.Lock()
	r.StartHeld("down", []model.ActionModel{ext("dim")}, model.RunExtras{}, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, r.AbortDelayed())
	lock.Unlock()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"dim"}, rec.got())
	assert.False(t, r.HasDelayed())
}

func TestAfter(t *testing.T) {
	r, _ := newRunner()
	done := make(chan struct{})
	r.After(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("body did not run")
	}
	assert.Equal(t, 0, r.PendingCount())
}
