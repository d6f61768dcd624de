package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

func TestUpgradeAction(t *testing.T) {
	tests := []struct {
		name        string
		action      model.ActionModel
		wantChanged bool
		wantOptions map[string]any
	}{
		{
			name:        "legacy wait ms string",
			action:      model.ActionModel{ConnectionID: model.InternalConnection, Action: ActionWait, Options: map[string]any{"time": "1500"}},
			wantChanged: true,
			wantOptions: map[string]any{"time": 1500},
		},
		{
			name:        "legacy wait seconds string",
			action:      model.ActionModel{ConnectionID: model.InternalConnection, Action: ActionWait, Options: map[string]any{"time": "2.5s"}},
			wantChanged: true,
			wantOptions: map[string]any{"time": 2500},
		},
		{
			name:        "legacy logic_if expected key",
			action:      model.ActionModel{ConnectionID: model.InternalConnection, Action: ActionLogicIf, Options: map[string]any{"variable": "v", "expected": "on"}},
			wantChanged: true,
			wantOptions: map[string]any{"variable": "v", "value": "on"},
		},
		{
			name:        "external actions are untouched",
			action:      model.ActionModel{ConnectionID: "hue-1", Action: ActionWait, Options: map[string]any{"time": "5"}},
			wantChanged: false,
			wantOptions: map[string]any{"time": "5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.action
			assert.Equal(t, tt.wantChanged, UpgradeAction(&a))
			assert.Equal(t, tt.wantOptions, a.Options)
			if tt.wantChanged {
				require.NotNil(t, a.UpgradeIndex)
				assert.Equal(t, latestActionUpgrade(), *a.UpgradeIndex)
			}
		})
	}
}

func TestUpgradeAction_SkipsAppliedScripts(t *testing.T) {
	idx := latestActionUpgrade()
	a := model.ActionModel{ConnectionID: model.InternalConnection, Action: ActionWait, Options: map[string]any{"time": "100"}, UpgradeIndex: &idx}
	assert.False(t, UpgradeAction(&a))
	assert.Equal(t, "100", a.Options["time"])
}

func TestUpgradeFeedback(t *testing.T) {
	f := model.FeedbackModel{ConnectionID: model.InternalConnection, Type: FeedbackVariableValue, Options: map[string]any{"name": "mode"}}
	assert.True(t, UpgradeFeedback(&f))
	assert.Equal(t, map[string]any{"variable": "mode"}, f.Options)
	assert.False(t, UpgradeFeedback(&f))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		actual   any
		op       string
		expected any
		want     bool
	}{
		{5, OpEqual, "5", true},
		{5.5, OpGreaterThan, 5, true},
		{"10", OpLessThan, "9", false},
		{"on", OpEqual, "on", true},
		{"on", OpNotEqual, "off", true},
		{nil, OpEqual, "", true},
		{true, OpEqual, "true", true},
		{3, "bogus", 3, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compare(tt.actual, tt.op, tt.expected), "Compare(%v, %s, %v)", tt.actual, tt.op, tt.expected)
	}
}

func TestDecodeOptions(t *testing.T) {
	var wait WaitOptions
	require.NoError(t, DecodeOptions(map[string]any{"time": "250"}, &wait))
	assert.Equal(t, 250, wait.Time)

	var target ControlTargetOptions
	require.NoError(t, DecodeOptions(map[string]any{"controlId": "bank:1", "skipUp": true}, &target))
	assert.Equal(t, ControlTargetOptions{ControlID: "bank:1", SkipUp: true}, target)
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(1))
	assert.True(t, Truthy("yes"))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy("0"))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(false))
}
