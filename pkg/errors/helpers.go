package errors

import "errors"

// CodeOf extracts the error code from any error in the chain.
// Returns CodeUnknown for errors produced outside this package.
func CodeOf(err error) string {
	if err == nil {
		return CodeOK
	}
	var typed Error
	if errors.As(err, &typed) {
		return typed.Code()
	}
	return CodeUnknown
}

// IsNotInstalled checks if an error indicates a missing wallet provider.
func IsNotInstalled(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeWalletNotInstalled || errors.Is(err, ErrNotInstalled)
}

// IsUserRejected checks if an error is the user declining, as opposed to a
// technical failure. The write path uses this to avoid reporting "error"
// when the user simply chose not to sign.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeUserRejected || errors.Is(err, ErrUserRejected)
}

// IsUnsupportedNetwork checks if an error indicates a network with no
// contract deployment.
func IsUnsupportedNetwork(err error) bool {
	if err == nil {
		return false
	}
	var bindingErr *BindingError
	return errors.As(err, &bindingErr) || errors.Is(err, ErrUnsupportedNetwork)
}

// IsStaleHandle checks if an error indicates a contract handle used after
// a network switch.
func IsStaleHandle(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeStaleHandle || errors.Is(err, ErrStaleHandle)
}

// IsTimeout checks if an error indicates a fetch deadline was exceeded.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeTimeout || errors.Is(err, ErrTimeout)
}

// IsDegradable reports whether a failure may be absorbed into placeholder
// record fields rather than failing the whole sync pass.
func IsDegradable(err error) bool {
	if err == nil {
		return false
	}
	return GetCategory(CodeOf(err)) == CategoryDegradable
}
