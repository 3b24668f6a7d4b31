// Package view implements the view controllers the orchestrator drives.
//
// A [Controller] composes a channel.Channel, an event.Bus and a
// panelstate.Store behind the [UI] interface. [Panel] and [Sidebar] are the
// two concrete views; they differ only in how a freshly attached surface is
// brought up to date.
//
// Outbound, every UI method folds its message into the view [Model] and posts
// it. Inbound, [Controller.HandleMessage] decodes a command and either handles
// it locally (webviewError, panelStateChanged, openPanel) or emits it on the
// view's bus for the orchestrator.
//
// Once a controller is disposed every UI method returns [NoOp] without side
// effects, registrations are inert, and queued messages are dropped.
package view
