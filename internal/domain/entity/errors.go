package entity

import "errors"

// Fatal errors abort the whole run; per-trial errors mark one trial failed
// and let the batch continue. The usecase classifies with errors.Is.
var (
	// ErrMalformedMetadata means the experiment log could not be parsed or
	// does not contain exactly 5 trials for every level. Fatal.
	ErrMalformedMetadata = errors.New("malformed experiment metadata")

	// ErrMissingSegment means the lecture-video window was requested but the
	// session never recorded one. Fatal in lecture mode.
	ErrMissingSegment = errors.New("lecture segment not recorded")

	// ErrOutOfRange means a trial window ends past the last video frame.
	// Per-trial, non-fatal.
	ErrOutOfRange = errors.New("trial window exceeds video duration")

	// ErrDecode means the codec failed mid-chunk. Per-trial, non-fatal.
	ErrDecode = errors.New("video decode failed")

	// ErrSerialization means an output artifact could not be written. Fatal,
	// since it indicates a structural I/O problem rather than a bad trial.
	ErrSerialization = errors.New("artifact serialization failed")
)

// IsFatal reports whether err must abort the remaining run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSerialization) ||
		errors.Is(err, ErrMalformedMetadata) ||
		errors.Is(err, ErrMissingSegment)
}
