// Package protocol defines the messages exchanged between the build
// coordinator and its worker processes, and the line-delimited JSON codec
// that carries them over the worker's stdin and stdout.
//
// Workers send status reports ({"state": "waiting" | "done" | "error"}); the
// coordinator sends instructions ({"namespace": ...} or {"terminate": true}).
// Wire shapes are mapped onto tagged Go variants so callers switch on a Kind
// instead of inspecting optional fields. A report whose state is missing or
// unknown decodes to ReportViolation rather than an error.
package protocol
