// Package message defines the wire protocol between the host and its view
// surfaces.
//
// Both directions are closed sum types:
//
//   - [Outbound] messages (host → view) are tagged with "type" and encoded by
//     [Encode]: update, countdown, history, timing, stats, log, prdGenerating,
//     prdComplete, toast, loading and the panelStateChanged acknowledgement.
//   - [Command] messages (view → host) are tagged with "command" and decoded by
//     [DecodeCommand]. Tags outside the known set are reported as errors
//     wrapping errors.ErrUnknownCommand instead of being dropped silently.
//
// Each tag has exactly one payload shape. Payload fields are flattened next to
// the tag:
//
//	{"type":"update","status":"running","iteration":3,"taskInfo":"Write tests"}
//	{"command":"reorderTasks","taskIds":["a","b"]}
package message
