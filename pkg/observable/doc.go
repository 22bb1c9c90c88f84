// Package observable provides ready-made implementations of the arbor
// capabilities: an embeddable PropertySource, an ordered Collection and a
// Lazy value.
package observable
