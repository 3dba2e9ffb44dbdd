package cli

import "errors"

// errMissingArg is returned by commands when a required positional
// argument is absent or malformed; it is never compared with errors.Is by callers,
// only surfaced as the exec error text.
var errMissingArg = errors.New("missing required argument")
