// Package orchestrator keeps the run state of the task loop and mirrors it
// onto every bound view.
//
// Each view owns its own event bus. The [Orchestrator] builds one handler per
// command and binds the same handler pointers on every view, so a command
// from either view runs the same reaction. State changes go out through a
// [Broadcast], which calls the same UI method on all views.
//
// The run status follows idle → running ⇄ paused → idle. The loop itself
// sits behind [Loop]; [TaskEditor] and [PrdGenerator] are optional
// capabilities a loop may add.
package orchestrator
