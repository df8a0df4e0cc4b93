// Package frame models the command frames exchanged with a FarmBot device.
// Every command kind is a small struct carrying typed arguments; frames are
// turned into the device's nested {"kind", "args", "body"} JSON shape only
// when they cross the wire.
package frame
