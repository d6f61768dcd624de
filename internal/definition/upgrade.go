package definition

import (
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// actionUpgrades are applied in order to internal actions whose
// UpgradeIndex is below the script's position. Each returns true if it
// changed the action.
var actionUpgrades = []func(a *model.ActionModel) bool{
	upgradeWaitTime,
	upgradeLogicIfExpected,
}

var feedbackUpgrades = []func(f *model.FeedbackModel) bool{
	upgradeVariableValueName,
}

func latestActionUpgrade() int   { return len(actionUpgrades) - 1 }
func latestFeedbackUpgrade() int { return len(feedbackUpgrades) - 1 }

// UpgradeAction applies pending upgrade scripts to an internal action (not
// its children) and records the new UpgradeIndex. It reports whether the
// model changed.
func UpgradeAction(a *model.ActionModel) bool {
	if !a.IsInternal() {
		return false
	}
	start := 0
	if a.UpgradeIndex != nil {
		start = *a.UpgradeIndex + 1
	}
	if start >= len(actionUpgrades) {
		return false
	}
	for _, upgrade := range actionUpgrades[start:] {
		upgrade(a)
	}
	idx := latestActionUpgrade()
	a.UpgradeIndex = &idx
	return true
}

// UpgradeFeedback is the feedback analog of UpgradeAction.
func UpgradeFeedback(f *model.FeedbackModel) bool {
	if !f.IsInternal() {
		return false
	}
	start := 0
	if f.UpgradeIndex != nil {
		start = *f.UpgradeIndex + 1
	}
	if start >= len(feedbackUpgrades) {
		return false
	}
	for _, upgrade := range feedbackUpgrades[start:] {
		upgrade(f)
	}
	idx := latestFeedbackUpgrade()
	f.UpgradeIndex = &idx
	return true
}

// upgradeWaitTime converts the legacy string time ("1500", "1.5s") to
// integer milliseconds.
func upgradeWaitTime(a *model.ActionModel) bool {
	if a.Action != ActionWait {
		return false
	}
	s, ok := a.Options["time"].(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	ms := 0
	if secs, found := strings.CutSuffix(s, "s"); found {
		if f, err := strconv.ParseFloat(secs, 64); err == nil {
			ms = int(f * 1000)
		}
	} else if f, err := strconv.ParseFloat(s, 64); err == nil {
		ms = int(f)
	}
	a.Options["time"] = ms
	return true
}

// upgradeLogicIfExpected renames the legacy "expected" key to "value".
func upgradeLogicIfExpected(a *model.ActionModel) bool {
	if a.Action != ActionLogicIf {
		return false
	}
	v, ok := a.Options["expected"]
	if !ok {
		return false
	}
	if _, exists := a.Options["value"]; !exists {
		a.Options["value"] = v
	}
	delete(a.Options, "expected")
	return true
}

// upgradeVariableValueName renames the legacy "name" key to "variable".
func upgradeVariableValueName(f *model.FeedbackModel) bool {
	if f.Type != FeedbackVariableValue {
		return false
	}
	v, ok := f.Options["name"]
	if !ok {
		return false
	}
	if _, exists := f.Options["variable"]; !exists {
		f.Options["variable"] = v
	}
	delete(f.Options, "name")
	return true
}
