// Package probe answers the capability questions the engine asks about a
// value: is it terminal, can it announce changes, what are its eligible
// properties, and may a guarded property be read yet.
package probe
