package eventstream

import "errors"

// ErrNilGateEvent indicates a nil event payload was provided to a publisher.
var ErrNilGateEvent = errors.New("nil gate event")
