package persistence

import (
	"errors"
	"fmt"
)

var (
	ErrStoreClosed = errors.New("store is closed")
	// ErrStorageDegraded wraps every failure of the backing store itself.
	ErrStorageDegraded = errors.New("cursor storage degraded")
	// ErrInvalidRange is returned when a stored cursor is not a block number.
	ErrInvalidRange = errors.New("invalid stored block number")
)

func CursorKey(contractId string, chainType string) string {
	return fmt.Sprintf("block_info:%s:%s", contractId, chainType)
}
