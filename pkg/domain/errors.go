package domain

import "errors"

// ErrPropertyCallbackRequired is returned when attaching without a property-changed callback.
var ErrPropertyCallbackRequired = errors.New("property-changed callback is required")

// ErrNoCallbacks is returned when attaching with no callbacks at all.
var ErrNoCallbacks = errors.New("at least one of property-changed or collection-changed callbacks must be supplied")

// ErrNilRoot is returned when attaching to an absent root instance.
var ErrNilRoot = errors.New("root instance is nil")

// ErrUnreachableInvalidation is raised when a property declared as a change
// source is absent, carries no materialization guard, and lives in an instance
// that cannot itself announce the value being set later.
var ErrUnreachableInvalidation = errors.New("absent change-source property can never be observed")

// ErrSameInstance reports a refresh that carried no identity change.
var ErrSameInstance = errors.New("refresh bound the same instance")

// ErrMissedRemovalPhase reports a post-change removal with no recorded pre-change phase.
var ErrMissedRemovalPhase = errors.New("removal completed without a recorded pending parent")

// ErrUnknownCollectionItem reports a removed collection item with no shadow node.
var ErrUnknownCollectionItem = errors.New("removed collection item has no shadow node")

// ErrEngineClosed is returned by operations on a closed engine.
var ErrEngineClosed = errors.New("engine is closed")
