package controls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

func TestPress_DownThenUp(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	on := h.addAction(t, id, model.SetDown, "hue-1", "on")
	off := h.addAction(t, id, model.SetUp, "hue-1", "off")
	h.reset()

	require.True(t, h.c.PressControl(id, true, "s1"))
	assert.Equal(t, []string{on}, h.conns.executed())
	assert.False(t, h.c.PressControl(id, true, "s1"), "already pressed")

	style, ok := h.c.RenderStyle(id)
	require.True(t, ok)
	assert.Equal(t, true, style["pushed"])

	require.True(t, h.c.PressControl(id, false, "s1"))
	assert.Equal(t, []string{on, off}, h.conns.executed())
	assert.False(t, h.c.PressControl(id, false, "s1"), "already released")

	calls := h.conns.ops(connection.OpActionExecute)
	assert.Equal(t, id, calls[0].controlID)
	assert.Equal(t, 2, h.graphics.count(at(1, 0, 0)))
	assert.False(t, h.c.PressControl("bank:missing", true, "s1"))
}

func TestPress_StepProgression(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	first := h.addAction(t, id, model.SetDown, "hue-1", "on")
	stepID, err := h.c.StepAdd(id)
	require.NoError(t, err)
	second, err := h.c.ActionAdd(id, ActionListRef{StepID: stepID, SetID: model.SetDown}, "hue-1", "off")
	require.NoError(t, err)
	h.reset()

	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	assert.Equal(t, []string{first, second, first}, h.conns.executed())

	ok, err := h.c.OptionSet(id, "stepProgression", ProgressionManual)
	require.NoError(t, err)
	require.True(t, ok)
	ctl, _ := h.c.GetControl(id)
	current := ctl.(StepsControl).CurrentStep()
	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	assert.Equal(t, current, ctl.(StepsControl).CurrentStep())
}

func TestPress_DurationSet(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	up := h.addAction(t, id, model.SetUp, "hue-1", "off")

	setID, err := h.c.SetAdd(id, "0")
	require.NoError(t, err)
	assert.Equal(t, "1000", setID)
	ok, err := h.c.SetRename(id, "0", setID, "20")
	require.NoError(t, err)
	require.True(t, ok)
	long := h.addAction(t, id, "20", "sonos-1", "play")
	h.reset()

	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	assert.Equal(t, []string{up}, h.conns.executed(), "short press runs the up set")

	h.conns.reset()
	h.c.PressControl(id, true, "")
	time.Sleep(50 * time.Millisecond)
	h.c.PressControl(id, false, "")
	assert.Equal(t, []string{long}, h.conns.executed(), "long press runs the duration set")

	ok, err = h.c.SetRename(id, "0", model.SetUp, "30")
	require.NoError(t, err)
	assert.False(t, ok, "only duration sets can be renamed")
}

func TestPress_WaitDelaysFollowingActions(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	wait := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionWait)
	_, err := h.c.ActionSetOption(id, wait, "time", 20)
	require.NoError(t, err)
	on := h.addAction(t, id, model.SetDown, "hue-1", "on")
	h.reset()

	h.c.PressControl(id, true, "")
	assert.Empty(t, h.conns.executed())
	eventually(t, func() bool { return len(h.conns.executed()) == 1 })
	assert.Equal(t, []string{on}, h.conns.executed())
}

func TestAbortDelayedActions(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	wait := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionWait)
	_, err := h.c.ActionSetOption(id, wait, "time", 20)
	require.NoError(t, err)
	h.addAction(t, id, model.SetDown, "hue-1", "on")
	h.reset()

	h.c.PressControl(id, true, "")
	assert.True(t, h.c.AbortDelayedActions(id, false))
	assert.False(t, h.c.AbortDelayedActions(id, false), "nothing left to abort")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.conns.executed())
}

func TestDelayedActions(t *testing.T) {
	h := newHarness(t)
	idle := h.button(t, at(1, 0, 0))
	busy := h.button(t, at(1, 0, 1))
	wait := h.addAction(t, busy, model.SetDown, model.InternalConnection, definition.ActionWait)
	_, err := h.c.ActionSetOption(busy, wait, "time", 200)
	require.NoError(t, err)
	h.addAction(t, busy, model.SetDown, "hue-1", "on")
	h.addAction(t, idle, model.SetDown, "hue-1", "on")

	assert.Empty(t, h.c.DelayedActions())

	h.c.PressControl(idle, true, "")
	h.c.PressControl(busy, true, "")
	delayed := h.c.DelayedActions()
	require.Len(t, delayed, 1)
	assert.Equal(t, busy, delayed[0].ID)
	assert.Positive(t, delayed[0].Pending)

	h.c.AbortAllDelayedActions()
	assert.Empty(t, h.c.DelayedActions())
}

func TestAbortDelayedActions_TimerAlreadyFired(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	wait := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionWait)
	_, err := h.c.ActionSetOption(id, wait, "time", 5)
	require.NoError(t, err)
	h.addAction(t, id, model.SetDown, "hue-1", "on")
	h.reset()

	// The timer fires while the lock is held and its body waits for it.
	h.c.mu.Lock()
	h.c.pressLocked(id, true, "")
	time.Sleep(30 * time.Millisecond)
	aborted := h.c.abortLocked(id, false)
	h.c.mu.Unlock()

	assert.True(t, aborted)
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, h.conns.executed())
}

func TestAbortAllDelayedActions(t *testing.T) {
	h := newHarness(t)
	for col := 0; col < 3; col++ {
		id := h.button(t, at(1, 0, col))
		wait := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionWait)
		_, err := h.c.ActionSetOption(id, wait, "time", 50)
		require.NoError(t, err)
		h.addAction(t, id, model.SetDown, "hue-1", "on")
		if col < 2 {
			h.c.PressControl(id, true, "")
		}
	}
	h.reset()

	assert.Equal(t, 2, h.c.AbortAllDelayedActions())
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, h.conns.executed())
}

func TestAbortDelayedActions_SkipUp(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	off := h.addAction(t, id, model.SetUp, "hue-1", "off")
	h.reset()

	h.c.AbortDelayedActions(id, true)
	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	assert.Equal(t, []string{off}, h.conns.executed(), "skipUp only applies while pressed")

	h.conns.reset()
	h.c.PressControl(id, true, "")
	h.c.AbortDelayedActions(id, true)
	h.c.PressControl(id, false, "")
	assert.Empty(t, h.conns.executed())

	h.c.PressControl(id, true, "")
	h.c.PressControl(id, false, "")
	assert.Equal(t, []string{off}, h.conns.executed(), "skipUp is consumed by one release")
}

func TestPress_RunWhileHeld(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	on := h.addAction(t, id, model.SetDown, "hue-1", "on")
	ok, err := h.c.SetRunWhileHeld(id, "0", model.SetDown, true)
	require.NoError(t, err)
	require.True(t, ok)
	h.reset()

	h.c.PressControl(id, true, "")
	eventually(t, func() bool { return len(h.conns.executed()) >= 3 })
	h.c.PressControl(id, false, "")

	n := len(h.conns.executed())
	time.Sleep(40 * time.Millisecond)
	assert.Len(t, h.conns.executed(), n, "repeat stops on release")
	for _, executed := range h.conns.executed() {
		assert.Equal(t, on, executed)
	}
}

func TestPress_PageControl(t *testing.T) {
	h := newHarness(t)
	up, ok := h.c.CreateControl(at(1, 3, 7), model.TypePageUp)
	require.True(t, ok)
	home, ok := h.c.CreateControl(at(1, 3, 6), model.TypePageNum)
	require.True(t, ok)

	require.True(t, h.c.PressControl(up, true, "deck-1"))
	require.True(t, h.c.PressControl(up, false, "deck-1"))
	require.True(t, h.c.PressControl(home, true, "deck-1"))

	assert.Equal(t, []any{
		PageChange{SurfaceID: "deck-1", Delta: 1},
		PageChange{SurfaceID: "deck-1", Home: true},
	}, h.bcast.on(ChannelPage))
}

func TestRotateControl(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	assert.False(t, h.c.RotateControl(id, true, ""), "rotary actions are off by default")

	_, err := h.c.OptionSet(id, "rotaryActions", true)
	require.NoError(t, err)
	right := h.addAction(t, id, model.SetRotateRight, "sonos-1", "play")
	h.reset()

	require.True(t, h.c.RotateControl(id, true, ""))
	require.True(t, h.c.RotateControl(id, false, ""))
	assert.Equal(t, []string{right}, h.conns.executed())
}

func TestInternal_ButtonPressTargetsOtherControl(t *testing.T) {
	h := newHarness(t)
	a := h.button(t, at(1, 0, 0))
	b := h.button(t, at(1, 0, 1))
	on := h.addAction(t, b, model.SetDown, "hue-1", "on")

	press := h.addAction(t, a, model.SetDown, model.InternalConnection, definition.ActionButtonPress)
	_, err := h.c.ActionSetOption(a, press, "controlId", b)
	require.NoError(t, err)
	self := h.addAction(t, a, model.SetUp, model.InternalConnection, definition.ActionButtonPress)
	require.NotEmpty(t, self)
	h.reset()

	h.c.PressControl(a, true, "")
	assert.Equal(t, []string{on}, h.conns.executed())
	ctl, _ := h.c.GetControl(b)
	assert.True(t, ctl.(*ButtonControl).Pressed())

	// The up set presses its own control, which is refused.
	h.c.PressControl(a, false, "")
	assert.Equal(t, []string{on}, h.conns.executed())
}

func TestInternal_SetVariableFiresTrigger(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	set := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionSetVariable)
	_, err := h.c.ActionSetOption(id, set, "name", "mode")
	require.NoError(t, err)
	_, err = h.c.ActionSetOption(id, set, "value", "night")
	require.NoError(t, err)

	trig := h.trigger(t)
	ev, err := h.c.EventAdd(trig, definition.EventVariableChanged)
	require.NoError(t, err)
	_, err = h.c.EventSetOption(trig, ev, "variable", "mode")
	require.NoError(t, err)
	off := h.addAction(t, trig, "", "hue-1", "off")
	h.reset()

	h.c.PressControl(id, true, "")
	v, ok := h.c.Variables().Variable("mode")
	require.True(t, ok)
	assert.Equal(t, "night", v)
	assert.Empty(t, h.conns.executed(), "events are delivered by the bus")

	h.bus.Flush()
	calls := h.conns.ops(connection.OpActionExecute)
	require.Len(t, calls, 1)
	assert.Equal(t, off, calls[0].id)
	assert.Equal(t, trig, calls[0].controlID)

	h.c.Variables().Set("other", 1)
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1, "filtered by variable name")
}

func TestTrigger_Interval(t *testing.T) {
	h := newHarness(t)
	trig := h.trigger(t)
	ev, err := h.c.EventAdd(trig, definition.EventInterval)
	require.NoError(t, err)
	_, err = h.c.EventSetOption(trig, ev, "seconds", 5)
	require.NoError(t, err)
	on := h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	t0 := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 3 * time.Second, 5 * time.Second, 7 * time.Second} {
		h.bus.Publish(events.Tick{Time: t0.Add(offset)})
	}
	h.bus.Flush()

	assert.Equal(t, []string{on}, h.conns.executed())
	ctl, _ := h.c.GetControl(trig)
	assert.Equal(t, t0.Add(5*time.Second).UnixMilli(), ctl.(*TriggerControl).LastExecuted().UnixMilli())
	stored, _ := h.store.get(trig)
	assert.EqualValues(t, t0.Add(5*time.Second).UnixMilli(), stored.Options["lastExecuted"])
}

func TestTrigger_TimeOfDay(t *testing.T) {
	h := newHarness(t)
	trig := h.trigger(t)
	ev, err := h.c.EventAdd(trig, definition.EventTimeOfDay)
	require.NoError(t, err)
	_, err = h.c.EventSetOption(trig, ev, "time", "08:00")
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	day := time.Date(2026, 10, 19, 8, 0, 10, 0, time.Local)
	h.bus.Publish(events.Tick{Time: day.Add(-time.Minute)})
	h.bus.Publish(events.Tick{Time: day})
	h.bus.Publish(events.Tick{Time: day.Add(20 * time.Second)})
	h.bus.Publish(events.Tick{Time: day.AddDate(0, 0, 1)})
	h.bus.Flush()

	assert.Len(t, h.conns.executed(), 2, "once per matching day")
}

func TestTrigger_DisabledDoesNotFire(t *testing.T) {
	h := newHarness(t)
	trig := h.c.CreateTrigger()
	_, err := h.c.EventAdd(trig, definition.EventStartup)
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	assert.Empty(t, h.conns.executed())
}

func TestTrigger_ControlPressedFilter(t *testing.T) {
	h := newHarness(t)
	a := h.button(t, at(1, 0, 0))
	b := h.button(t, at(1, 0, 1))
	trig := h.trigger(t)
	ev, err := h.c.EventAdd(trig, definition.EventButtonPress)
	require.NoError(t, err)
	_, err = h.c.EventSetOption(trig, ev, "controlId", a)
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	h.c.PressControl(b, true, "")
	h.c.PressControl(b, false, "")
	h.bus.Flush()
	assert.Empty(t, h.conns.executed())

	h.c.PressControl(a, true, "")
	h.c.PressControl(a, false, "")
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1, "release does not match button_press")
}

func TestTrigger_ConditionGatesEvents(t *testing.T) {
	h := newHarness(t)
	trig := h.trigger(t)
	_, err := h.c.EventAdd(trig, definition.EventStartup)
	require.NoError(t, err)
	cond, err := h.c.FeedbackAdd(trig, "", model.InternalConnection, definition.FeedbackVariableValue)
	require.NoError(t, err)
	_, err = h.c.FeedbackSetOption(trig, cond, "variable", "armed")
	require.NoError(t, err)
	_, err = h.c.FeedbackSetOption(trig, cond, "value", "yes")
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	assert.Empty(t, h.conns.executed())

	h.c.Variables().Set("armed", "yes")
	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1)
}

func TestTrigger_ConditionEdges(t *testing.T) {
	h := newHarness(t)
	trig := h.trigger(t)
	_, err := h.c.EventAdd(trig, definition.EventConditionTrue)
	require.NoError(t, err)
	cond, err := h.c.FeedbackAdd(trig, "", model.InternalConnection, definition.FeedbackVariableValue)
	require.NoError(t, err)
	_, err = h.c.FeedbackSetOption(trig, cond, "variable", "armed")
	require.NoError(t, err)
	_, err = h.c.FeedbackSetOption(trig, cond, "value", "yes")
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	// The first evaluation only records the condition.
	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	assert.Empty(t, h.conns.executed())

	h.c.Variables().Set("armed", "yes")
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1)

	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1, "no edge while the condition stays true")

	h.c.Variables().Set("armed", "no")
	h.bus.Flush()
	assert.Len(t, h.conns.executed(), 1, "condition_false is not configured")
}

func TestTriggerTest(t *testing.T) {
	h := newHarness(t)
	trig := h.c.CreateTrigger()
	on := h.addAction(t, trig, "", "hue-1", "on")
	h.reset()

	require.True(t, h.c.TriggerTest(trig))
	calls := h.conns.ops(connection.OpActionExecute)
	require.Len(t, calls, 1)
	assert.Equal(t, on, calls[0].id)
	assert.True(t, calls[0].isTest)

	button := h.button(t, at(1, 0, 0))
	assert.False(t, h.c.TriggerTest(button))
}

func TestUpdateFeedbackValues_RendersStyle(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	fid, err := h.c.FeedbackAdd(id, "", "hue-1", "is_on")
	require.NoError(t, err)
	h.reset()

	style, _ := h.c.RenderStyle(id)
	assert.EqualValues(t, 0x000000, style["bgcolor"])

	h.c.UpdateFeedbackValues("hue-1", map[string]any{fid: true})
	style, _ = h.c.RenderStyle(id)
	assert.EqualValues(t, 0xff0000, style["bgcolor"])
	assert.Equal(t, 1, h.graphics.count(at(1, 0, 0)))
	require.Len(t, h.bcast.on(ControlChannel(id)), 1)

	h.c.UpdateFeedbackValues("hue-1", map[string]any{fid: true})
	assert.Equal(t, 1, h.graphics.count(at(1, 0, 0)), "unchanged values do not re-render")

	h.c.UpdateFeedbackValues("sonos-1", map[string]any{fid: false})
	style, _ = h.c.RenderStyle(id)
	assert.EqualValues(t, 0xff0000, style["bgcolor"], "values are keyed by connection")

	h.c.ForgetConnection("hue-1")
	style, _ = h.c.RenderStyle(id)
	assert.EqualValues(t, 0x000000, style["bgcolor"])

	m, _ := h.c.ExportControl(id)
	assert.Len(t, m.Feedbacks, 1, "forgetting keeps the configuration")
}

func TestUpdateFeedbackValues_FiresConditionTrigger(t *testing.T) {
	h := newHarness(t)
	trig := h.trigger(t)
	_, err := h.c.EventAdd(trig, definition.EventConditionTrue)
	require.NoError(t, err)
	fid, err := h.c.FeedbackAdd(trig, "", "hue-1", "is_on")
	require.NoError(t, err)
	h.addAction(t, trig, "", "sonos-1", "play")
	h.reset()

	h.c.UpdateFeedbackValues("hue-1", map[string]any{fid: false})
	h.c.UpdateFeedbackValues("hue-1", map[string]any{fid: true})
	assert.Len(t, h.conns.executed(), 1)
}

func TestVerifyConnectionIDs(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	on := h.addAction(t, id, model.SetDown, "hue-1", "on")
	h.addAction(t, id, model.SetDown, "sonos-1", "play")
	h.button(t, at(1, 0, 1))
	h.reset()

	n := h.c.VerifyConnectionIDs(func(connectionID string) bool { return connectionID == "hue-1" })
	assert.Equal(t, 1, n)

	m, _ := h.c.ExportControl(id)
	down := m.Steps[0].Sets[model.SetDown].Actions
	require.Len(t, down, 1)
	assert.Equal(t, on, down[0].ID)
	assert.Empty(t, h.conns.ops(""), "removed nodes are not announced")

	stored, _ := h.store.get(id)
	assert.Len(t, stored.Steps[0].Sets[model.SetDown].Actions, 1)
}

func TestResubscribeConnection(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	h.addAction(t, id, model.SetDown, "hue-1", "on")
	play := h.addAction(t, id, model.SetUp, "sonos-1", "play")
	h.reset()

	h.c.ResubscribeConnection("sonos-1")
	calls := h.conns.ops("")
	require.Len(t, calls, 1)
	assert.Equal(t, connection.OpActionUpdate, calls[0].op)
	assert.Equal(t, play, calls[0].id)
}

func TestConnectionStatusEvents(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	fid, err := h.c.FeedbackAdd(id, "", "hue-1", "is_on")
	require.NoError(t, err)
	h.c.UpdateFeedbackValues("hue-1", map[string]any{fid: true})
	h.reset()

	h.bus.Publish(events.ConnectionStatus{ConnectionID: "hue-1", Running: true})
	h.bus.Flush()
	assert.Len(t, h.conns.ops(connection.OpFeedbackUpdate), 1)

	h.bus.Publish(events.ConnectionStatus{ConnectionID: "hue-1", Running: false})
	h.bus.Flush()
	style, _ := h.c.RenderStyle(id)
	assert.EqualValues(t, 0x000000, style["bgcolor"])
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	id := h.button(t, at(1, 0, 0))
	wait := h.addAction(t, id, model.SetDown, model.InternalConnection, definition.ActionWait)
	_, err := h.c.ActionSetOption(id, wait, "time", 20)
	require.NoError(t, err)
	h.addAction(t, id, model.SetDown, "hue-1", "on")
	trig := h.trigger(t)
	_, err = h.c.EventAdd(trig, definition.EventStartup)
	require.NoError(t, err)
	h.addAction(t, trig, "", "hue-1", "off")
	h.c.PressControl(id, true, "")
	h.reset()

	h.c.Close()
	assert.Zero(t, h.bus.SubscriberCount())
	h.bus.Publish(events.Startup{Time: time.Now()})
	h.bus.Flush()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, h.conns.executed())
}

func TestVariables_Set(t *testing.T) {
	bus := events.NewBus()
	var got []events.VariableChanged
	bus.Subscribe(func(e events.Event) {
		if v, ok := e.(events.VariableChanged); ok {
			got = append(got, v)
		}
	})
	vars := NewVariables(bus)

	assert.True(t, vars.Set("mode", "day"))
	assert.False(t, vars.Set("mode", "day"))
	assert.True(t, vars.Set("mode", "night"))
	bus.Flush()

	require.Len(t, got, 2)
	assert.Equal(t, events.VariableChanged{Name: "mode", Old: "day", New: "night"}, got[1])
	assert.Equal(t, map[string]any{"mode": "night"}, vars.All())
}
