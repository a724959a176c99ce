package runner

import "fmt"

var (
	// ErrRunNotFound is returned for operations on an unknown run id.
	ErrRunNotFound = fmt.Errorf("run not found")

	// ErrCapacityExceeded is returned when a batch requests more runs than
	// the runner is configured to accept.
	ErrCapacityExceeded = fmt.Errorf("batch size exceeds configured capacity")

	// ErrQuestionMismatch is returned when the answered question does not
	// belong to the given run or is not its outstanding question.
	ErrQuestionMismatch = fmt.Errorf("question does not match run")

	// ErrRunNotPaused is returned when answering targets a run that is not
	// waiting on a clarification.
	ErrRunNotPaused = fmt.Errorf("run is not paused")
)
