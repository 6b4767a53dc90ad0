package models

import "errors"

// Analytics stage outcomes that are reported rather than propagated.
// A stage returning one of these is skipped; the run continues.
var (
	// ErrMissingMetric: the requested metric is absent from every input row.
	ErrMissingMetric = errors.New("metric absent from all records")

	// ErrInsufficientData: too few rows remain after filtering to proceed
	// (empty feature table, degenerate train/test split).
	ErrInsufficientData = errors.New("insufficient data")
)
