// Package panelstate validates and persists the UI state of a view:
// collapsed sections, scroll offset and the six task-requirement toggles.
//
// Reads are lenient. A persisted record is decoded field by field, so a
// malformed field falls back to its default without invalidating the rest,
// and [ValidateRequirements] coerces any value into a [Requirements] record.
// Writes always persist the whole [State].
package panelstate
