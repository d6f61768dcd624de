package model

import (
	"strings"

	"github.com/google/uuid"
)

const (
	bankPrefix    = "bank:"
	triggerPrefix = "trigger:"
)

// GenerateID returns a new random id for an action, feedback or event.
func GenerateID() string {
	return uuid.New().String()
}

// NewBankID returns a fresh id for a grid-bound control.
func NewBankID() string {
	return bankPrefix + uuid.New().String()
}

// NewTriggerID returns a fresh id for a standalone trigger control.
func NewTriggerID() string {
	return triggerPrefix + uuid.New().String()
}

// IsBankID reports whether id has the bank form.
func IsBankID(id string) bool {
	return strings.HasPrefix(id, bankPrefix) && len(id) > len(bankPrefix)
}

// IsTriggerID reports whether id has the trigger form.
func IsTriggerID(id string) bool {
	return strings.HasPrefix(id, triggerPrefix) && len(id) > len(triggerPrefix)
}
