package beadnet

import _ "embed"

// Version is the release of the library and the beadnet binary.
//
//go:embed VERSION
var Version string
