package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nestedControl() ControlModel {
	idx := 1
	return ControlModel{
		Type:     TypeButton,
		Location: &Location{Page: 1, Row: 0, Column: 0},
		Style:    map[string]any{"text": "Lights"},
		Feedbacks: []FeedbackModel{{
			ID: "fb-and", ConnectionID: InternalConnection, Type: "logic_and",
			Children: []FeedbackModel{{ID: "fb-child", ConnectionID: "hue-1", Type: "on"}},
		}},
		Steps: []StepModel{{
			ID: "0",
			Sets: map[string]SetModel{
				SetDown: {Actions: []ActionModel{{
					ID: "a-if", ConnectionID: InternalConnection, Action: "logic_if",
					Options:      map[string]any{"variable": "mode", "nested": map[string]any{"k": []any{1, 2}}},
					UpgradeIndex: &idx,
					Children: map[string][]ActionModel{
						"default": {
							{ID: "a-c1", ConnectionID: "hue-1", Action: "on"},
							{ID: "a-c2", ConnectionID: "hue-1", Action: "off"},
						},
					},
				}}},
				SetUp: {Actions: []ActionModel{}},
			},
		}},
	}
}

func TestControlModel_DeepCopyIsIndependent(t *testing.T) {
	src := nestedControl()
	cpy := src.DeepCopy()

	cpy.Location.Page = 9
	cpy.Style["text"] = "changed"
	down := cpy.Steps[0].Sets[SetDown]
	down.Actions[0].Options["nested"].(map[string]any)["k"].([]any)[0] = 99
	down.Actions[0].Children["default"][0].Action = "toggle"
	*down.Actions[0].UpgradeIndex = 5
	cpy.Feedbacks[0].Children[0].Type = "off"

	assert.Equal(t, 1, src.Location.Page)
	assert.Equal(t, "Lights", src.Style["text"])
	srcDown := src.Steps[0].Sets[SetDown]
	assert.Equal(t, 1, srcDown.Actions[0].Options["nested"].(map[string]any)["k"].([]any)[0])
	assert.Equal(t, "on", srcDown.Actions[0].Children["default"][0].Action)
	assert.Equal(t, 1, *srcDown.Actions[0].UpgradeIndex)
	assert.Equal(t, "on", src.Feedbacks[0].Children[0].Type)
}

func TestControlModel_WithFreshIDs(t *testing.T) {
	src := nestedControl()
	cpy := src.WithFreshIDs()

	srcIDs := src.InstanceIDs()
	cpyIDs := cpy.InstanceIDs()
	require.Len(t, cpyIDs, len(srcIDs))

	seen := make(map[string]bool)
	for _, id := range srcIDs {
		seen[id] = true
	}
	for _, id := range cpyIDs {
		assert.False(t, seen[id], "clone reused id %s", id)
		seen[id] = true
	}

	// Same shape and option values.
	down := cpy.Steps[0].Sets[SetDown]
	require.Len(t, down.Actions, 1)
	assert.Equal(t, "mode", down.Actions[0].Options["variable"])
	assert.Len(t, down.Actions[0].Children["default"], 2)
	assert.Equal(t, "0", cpy.Steps[0].ID)
}

func TestControlModel_JSONRoundTripShape(t *testing.T) {
	data, err := json.Marshal(nestedControl())
	require.NoError(t, err)

	var decoded ControlModel
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeButton, decoded.Type)
	assert.Equal(t, &Location{Page: 1}, decoded.Location)
	assert.Len(t, decoded.Steps[0].Sets[SetDown].Actions[0].Children["default"], 2)
}

func TestIDs(t *testing.T) {
	bank := NewBankID()
	trigger := NewTriggerID()

	assert.True(t, IsBankID(bank))
	assert.False(t, IsTriggerID(bank))
	assert.True(t, IsTriggerID(trigger))
	assert.False(t, IsBankID("bank:"))
	assert.NotEqual(t, NewBankID(), bank)
	assert.NotEmpty(t, GenerateID())
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "2/1/3", Location{Page: 2, Row: 1, Column: 3}.String())
}
