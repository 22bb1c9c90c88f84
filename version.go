package arbor

import _ "embed"

// Version is the release of the library and of the arbor command.
//
//go:embed VERSION
var Version string
