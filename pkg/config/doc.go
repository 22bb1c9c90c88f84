// Package config loads engine and adapter settings from YAML or JSON files and
// from loosely typed maps.
package config
