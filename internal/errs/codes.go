// Package errs provides structured error handling for docsift.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus and index errors
//   - 3XX: External service errors (embedding provider, vector store)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errs

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIndex indicates corpus and index errors.
	CategoryIndex Category = "INDEX"
	// CategoryExternal indicates embedding provider or vector store errors.
	CategoryExternal Category = "EXTERNAL"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Corpus and index errors (200-299)
	ErrCodeCorpusNotFound = "ERR_201_CORPUS_NOT_FOUND"
	ErrCodeIndexStale     = "ERR_202_INDEX_STALE"
	ErrCodeIndexCorrupt   = "ERR_203_INDEX_CORRUPT"
	ErrCodeIndexLocked    = "ERR_204_INDEX_LOCKED"

	// External service errors (300-399)
	ErrCodeEmbedderUnavailable    = "ERR_301_EMBEDDER_UNAVAILABLE"
	ErrCodeEmbedderFailed         = "ERR_302_EMBEDDER_FAILED"
	ErrCodeVectorStoreUnavailable = "ERR_303_VECTOR_STORE_UNAVAILABLE"
	ErrCodeVectorStoreFailed      = "ERR_304_VECTOR_STORE_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIndex
	case '3':
		return CategoryExternal
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
