package kernel

import "errors"

var (
	// ErrUnsupportedOp is returned when no kernel skeleton covers the
	// requested operation.
	ErrUnsupportedOp = errors.New("kernel: unsupported operation")
	// ErrUnknownTensor is returned when a node references a tensor with no
	// known shape.
	ErrUnknownTensor = errors.New("kernel: unknown tensor")
)
