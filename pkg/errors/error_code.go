package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidIntent        ErrorCode = 102
	ErrCodeInvalidSizedOrder    ErrorCode = 103
	ErrCodeInvalidCashAmount    ErrorCode = 104
	ErrCodeUnsupportedVersion   ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeQueryFailed  ErrorCode = 201
	ErrCodeStoreClosed  ErrorCode = 202
	ErrCodeExportFailed ErrorCode = 203

	// Ledger errors (300-399)
	ErrCodeInsufficientSettledCash ErrorCode = 300
	ErrCodeSettlementOutOfOrder    ErrorCode = 301
	ErrCodeNegativeCashBalance     ErrorCode = 302

	// Risk errors (400-499)
	ErrCodeRiskEvaluationFailed ErrorCode = 400
	ErrCodeAccountStateInvalid  ErrorCode = 401

	// Execution errors (500-599)
	ErrCodeMalformedPricePath    ErrorCode = 500
	ErrCodeEmptyPricePath        ErrorCode = 501
	ErrCodeBracketAlreadyClosed  ErrorCode = 502
	ErrCodeInternalInconsistency ErrorCode = 503

	// Desk errors (600-699)
	ErrCodeDeskNotInitialized ErrorCode = 600
	ErrCodeBatchFailed        ErrorCode = 601

	// Market data errors (700-799)
	ErrCodeSnapshotNotFound  ErrorCode = 700
	ErrCodePricePathNotFound ErrorCode = 701
	ErrCodeFixtureLoadFailed ErrorCode = 702
)
