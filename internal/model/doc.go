// Package model defines the serializable shapes of controls and their
// action, feedback and event trees.
//
// These are plain values: the live, connection-synchronised tree lives in
// package instance and is rebuilt from (and exported to) these models for
// persistence, import/export and the action runner's execution snapshots.
package model
