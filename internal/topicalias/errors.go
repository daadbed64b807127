package topicalias

import "errors"

// ErrAliasInvalid is returned by Recv.Register for alias 0 or an alias
// beyond the locally advertised maximum.
var ErrAliasInvalid = errors.New("topicalias: alias is zero or exceeds advertised maximum")
