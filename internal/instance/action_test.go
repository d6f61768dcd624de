package instance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

func TestNewActionInstance_DropsUndeclaredGroups(t *testing.T) {
	env, _ := newTestEnv()
	m := conditional("if1")
	m.Children["loop"] = []model.ActionModel{ext("x", "hue-1", "on")}

	a := NewActionInstance(env, m)
	assert.Equal(t, []string{definition.GroupDefault}, a.ChildGroups())

	external := ext("e1", "hue-1", "on")
	external.Children = map[string][]model.ActionModel{definition.GroupDefault: {ext("x", "hue-1", "on")}}
	assert.Empty(t, NewActionInstance(env, external).ChildGroups())
}

func TestGetOrCreateChildGroup_Guard(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{
		ext("e1", "hue-1", "on"),
		{ID: "w1", ConnectionID: model.InternalConnection, Action: definition.ActionWait, Options: map[string]any{"time": 100}},
		{ID: "if1", ConnectionID: model.InternalConnection, Action: definition.ActionLogicIf, Options: map[string]any{}},
	})

	_, err := list.FindByID("e1").GetOrCreateChildGroup(definition.GroupDefault)
	assert.ErrorIs(t, err, ErrChildGroupNotSupported)
	assert.Empty(t, list.FindByID("e1").ChildGroups(), "guard must not mutate")

	_, err = list.FindByID("w1").GetOrCreateChildGroup(definition.GroupDefault)
	assert.ErrorIs(t, err, ErrChildGroupNotSupported)

	_, err = list.FindByID("if1").GetOrCreateChildGroup("loop")
	assert.ErrorIs(t, err, ErrChildGroupNotSupported)

	group, err := list.FindByID("if1").GetOrCreateChildGroup(definition.GroupElse)
	require.NoError(t, err)
	again, err := list.FindByID("if1").GetOrCreateChildGroup(definition.GroupElse)
	require.NoError(t, err)
	assert.Same(t, group, again)
	assert.Empty(t, conns.ops())
}

func TestSetOption_InternalNodesAreNotNotified(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{conditional("if1"), ext("e1", "hue-1", "on")})

	list.FindByID("if1").SetOption("value", "night")
	assert.Empty(t, conns.ops())
	assert.Equal(t, "night", list.FindByID("if1").Options()["value"])

	list.FindByID("e1").SetOptions(map[string]any{"brightness": 50})
	assert.Equal(t, []call{{connection.OpActionUpdate, "e1", "hue-1"}}, conns.ops())
}

func TestSetConnection_DeleteOldThenUpdateNew(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{ext("e1", "hue-1", "on")})
	a := list.FindByID("e1")

	a.SetConnection("sonos-1")
	assert.Equal(t, []call{
		{connection.OpActionDelete, "e1", "hue-1"},
		{connection.OpActionUpdate, "e1", "sonos-1"},
	}, conns.ops())

	conns.reset()
	a.SetConnection("sonos-1")
	assert.Empty(t, conns.ops(), "rebinding to the same connection is a no-op")
}

func TestSetConnection_InternalToExternalDropsChildren(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{conditional("if1")})
	a := list.FindByID("if1")

	a.SetConnection("hue-1")
	assert.Empty(t, a.ChildGroups())
	assert.ElementsMatch(t, []call{
		{connection.OpActionDelete, "if1-c1", "hue-1"},
		{connection.OpActionDelete, "if1-c2", "hue-1"},
		{connection.OpActionUpdate, "if1", "hue-1"},
	}, conns.ops())
}

func TestSetEnabled(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{conditional("if1")})
	a := list.FindByID("if1")

	a.SetEnabled(false)
	assert.True(t, a.Disabled())
	assert.ElementsMatch(t, []call{
		{connection.OpActionDelete, "if1-c1", "hue-1"},
		{connection.OpActionDelete, "if1-c2", "hue-1"},
	}, conns.ops())
	assert.Equal(t, 2, a.ChildGroup(definition.GroupDefault).Len(), "local data kept")

	conns.reset()
	assert.Empty(t, a.Subscribe(true, ""), "disabled nodes do not subscribe")

	a.SetEnabled(true)
	assert.ElementsMatch(t, []call{
		{connection.OpActionUpdate, "if1-c1", "hue-1"},
		{connection.OpActionUpdate, "if1-c2", "hue-1"},
	}, conns.ops())
}

func TestSubscribe_Only(t *testing.T) {
	env, conns := newTestEnv()
	m := conditional("if1")
	m.Children[definition.GroupDefault] = append(m.Children[definition.GroupDefault], ext("p1", "sonos-1", "play"))
	list := NewActionList(env, []model.ActionModel{m, ext("e1", "hue-1", "on")})

	pending := list.Subscribe(true, "sonos-1")
	assert.Len(t, pending, 1)
	assert.Equal(t, []call{{connection.OpActionUpdate, "p1", "sonos-1"}}, conns.ops())

	conns.reset()
	list.Subscribe(false, "")
	assert.Equal(t, []call{{connection.OpActionUpdate, "e1", "hue-1"}}, conns.ops())
}

func TestLearnOptions(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{ext("e1", "hue-1", "on")})
	a := list.FindByID("e1")

	conns.learnValues = map[string]any{"brightness": 80}
	ok, err := a.LearnOptions(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 80, a.Options()["brightness"])
	assert.Equal(t, []call{{connection.OpActionUpdate, "e1", "hue-1"}}, conns.ops())

	conns.learnValues = nil
	ok, err = a.LearnOptions(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	conns.learnErr = errors.New("device offline")
	_, err = a.LearnOptions(context.Background())
	assert.ErrorContains(t, err, "device offline")
}

func TestActionLearner(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{ext("e1", "hue-1", "on"), conditional("if1")})

	assert.Nil(t, list.FindByID("if1").Learner(), "internal nodes have nothing to learn")

	a := list.FindByID("e1")
	fetch := a.Learner()
	require.NotNil(t, fetch)

	conns.learnValues = map[string]any{"brightness": 60}
	values, err := fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"brightness": 60}, values)
	assert.Empty(t, conns.ops(), "fetching alone changes nothing")
	assert.Nil(t, a.Options()["brightness"])

	assert.True(t, a.ApplyLearned(values))
	assert.Equal(t, 60, a.Options()["brightness"])
	assert.Len(t, conns.ops(), 1)

	conns.learnErr = errors.New("device offline")
	_, err = fetch(context.Background())
	assert.ErrorContains(t, err, "learning action e1")
}

func TestPostProcessImport(t *testing.T) {
	env, conns := newTestEnv()
	list := NewActionList(env, []model.ActionModel{
		{ID: "w1", ConnectionID: model.InternalConnection, Action: definition.ActionWait, Options: map[string]any{"time": "1500"}},
		conditional("if1"),
	})
	assert.Empty(t, conns.ops(), "building a list does not notify")

	pending := list.PostProcessImport()
	assert.Len(t, pending, 2)
	require.NoError(t, connection.Await(context.Background(), pending))

	assert.Equal(t, 1500, list.FindByID("w1").Options()["time"])
	assert.ElementsMatch(t, []call{
		{connection.OpActionUpdate, "if1-c1", "hue-1"},
		{connection.OpActionUpdate, "if1-c2", "hue-1"},
	}, conns.ops())
}
