package foundation

import "errors"

var (
	ErrReservedOpcode   = errors.New("foundation: reserved opcode")
	ErrUnknownOpcode    = errors.New("foundation: unknown opcode")
	ErrShortPayload     = errors.New("foundation: payload shorter than opcode minimum")
	ErrTrailingKeyIndex = errors.New("foundation: dangling byte in key index list")
)
