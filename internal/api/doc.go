// Package api implements the HTTP command API and WebSocket server for
// Gray Logic Controls.
//
// This package provides:
//   - REST endpoints for grid edits and control, action, feedback, step and
//     event editing
//   - Surface endpoints for press, rotate and abort
//   - WebSocket hub relaying controller broadcasts by channel
//   - HS256 bearer-token authentication with editor and surface roles
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Channels
//
// Clients subscribe to named channels over the WebSocket:
//
//	controls.location      slot bindings changed
//	controls.learn         learn started or finished
//	controls.triggers      trigger list changed
//	control:<id>           one control's model or rendered style
//	surfaces.page          page change requested by a page control
//	button.invalidated     a button needs redrawing
//
// # Security
//
// Every route except /health requires a bearer token signed with
// security.jwt.secret. WebSocket upgrades may pass it as ?token= instead.
package api
