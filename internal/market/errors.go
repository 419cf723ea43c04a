package market

import "errors"

var (
	// ErrUnknownAsset means the requested symbol is not in the registry.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrUnavailable means every configured provider failed and no
	// persisted quote exists to fall back to.
	ErrUnavailable = errors.New("data unavailable")
)
