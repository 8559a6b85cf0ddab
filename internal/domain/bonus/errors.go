package bonus

import "errors"

var ErrInternal = errors.New("internal error")
