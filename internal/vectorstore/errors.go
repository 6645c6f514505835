package vectorstore

import "errors"

var (
	ErrNotInitialized    = errors.New("vector store not initialized, call Initialize first")
	ErrLengthMismatch    = errors.New("mismatched input lengths")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnreachable       = errors.New("vector store unreachable")
)
