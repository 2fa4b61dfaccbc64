package errors

// Error codes for categorizing failures across the sync pipeline.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown = "UNKNOWN"

	// CodeWalletNotInstalled indicates no wallet provider is present.
	CodeWalletNotInstalled = "WALLET_NOT_INSTALLED"

	// CodeUserRejected indicates the user declined a prompt or signature.
	CodeUserRejected = "USER_REJECTED"

	// CodeUnsupportedNetwork indicates no contract deployment exists for
	// the active network.
	CodeUnsupportedNetwork = "UNSUPPORTED_NETWORK"

	// CodeStaleHandle indicates a contract handle was used after the
	// network it was resolved for changed.
	CodeStaleHandle = "STALE_HANDLE"

	// CodeRPCError indicates a chain RPC transport failure.
	CodeRPCError = "RPC_ERROR"

	// CodeInsufficientFunds indicates the sender cannot cover value + gas.
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"

	// CodeTimeout indicates a gateway fetch exceeded its deadline.
	CodeTimeout = "TIMEOUT"

	// CodeHTTPStatus indicates a gateway answered with a non-2xx status.
	CodeHTTPStatus = "HTTP_STATUS"

	// CodeUnreachable indicates a gateway could not be reached or the
	// transfer broke off before a complete response arrived.
	CodeUnreachable = "GATEWAY_UNREACHABLE"

	// CodeParseError indicates a gateway response was not valid JSON.
	CodeParseError = "PARSE_ERROR"

	// CodeConfigError indicates invalid configuration.
	CodeConfigError = "CONFIG_ERROR"
)

// ErrorCategory groups codes by how the sync pipeline reacts to them.
type ErrorCategory string

const (
	// CategoryFatal failures abort the current sync pass and are surfaced
	// to the user.
	CategoryFatal ErrorCategory = "fatal"

	// CategoryDegradable failures are absorbed into placeholder records
	// and never surfaced.
	CategoryDegradable ErrorCategory = "degradable"

	// CategoryDeclined failures are the user saying no; they are surfaced
	// but are not technical errors.
	CategoryDeclined ErrorCategory = "declined"
)

// GetCategory returns the pipeline reaction category for a code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeUserRejected:
		return CategoryDeclined
	case CodeTimeout, CodeHTTPStatus, CodeUnreachable, CodeParseError:
		return CategoryDegradable
	default:
		return CategoryFatal
	}
}
