package cfgcli

import "errors"

var (
	ErrInvalidArgument = errors.New("cfgcli: invalid argument")
	ErrRegistryFull    = errors.New("cfgcli: too many pending transactions")
	ErrClientClosed    = errors.New("cfgcli: client closed")
)
