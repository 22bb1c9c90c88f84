package domain

import "strings"

// Status is the capability flag set recorded on a shadow node.
type Status uint8

const (
	// PropertyChangeSource marks an instance that raises property-change notifications.
	PropertyChangeSource Status = 1 << iota
	// CollectionChangeSource marks an instance that raises collection-change notifications.
	CollectionChangeSource
	// WaitingForValue marks a property slot whose value is absent or not yet materialized.
	WaitingForValue
	// NoObservableMembers marks a terminal value. Such nodes are always leaves.
	NoObservableMembers
	// NoChangeCapability marks an instance that raises neither kind of notification.
	NoChangeCapability
)

var statusNames = []struct {
	flag Status
	name string
}{
	{PropertyChangeSource, "PropertyChangeSource"},
	{CollectionChangeSource, "CollectionChangeSource"},
	{WaitingForValue, "WaitingForValue"},
	{NoObservableMembers, "NoObservableMembers"},
	{NoChangeCapability, "NoChangeCapability"},
}

// Has reports whether every flag in f is set.
func (s Status) Has(f Status) bool { return f != 0 && s&f == f }

// String renders the set flags joined by "|".
func (s Status) String() string {
	var parts []string
	for _, sn := range statusNames {
		if s&sn.flag != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseStatus is the inverse of Status.String. Unknown names are ignored.
func ParseStatus(text string) Status {
	var s Status
	for _, part := range strings.Split(text, "|") {
		for _, sn := range statusNames {
			if part == sn.name {
				s |= sn.flag
			}
		}
	}
	return s
}
