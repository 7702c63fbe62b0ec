package reverse

import "errors"

// ErrParseError wraps a native parser failure (malformed SQL).
var ErrParseError = errors.New("reverse: parse error")

// ErrNotSupported wraps a well-formed statement this reconstruction
// deliberately doesn't cover: only FIND/SELECT's own grammar (table,
// fields, where, group by, having, order by, limit, offset, joins) is
// scoped in, per spec.md §4's FIND surface.
var ErrNotSupported = errors.New("reverse: not supported")
