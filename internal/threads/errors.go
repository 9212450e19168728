package threads

import (
	"errors"
	"fmt"
	"net/http"
)

// Publish steps reported in PublishError.Step.
const (
	StepCreateContainer         = "create_container"
	StepCreateChildContainer    = "create_child_container"
	StepCreateCarouselContainer = "create_carousel_container"
	StepPublish                 = "publish"
)

var ErrMissingID = errors.New("response carried no id")

// PublishError reports which step of the publish protocol failed. Body is the
// raw upstream response, kept for diagnostics.
type PublishError struct {
	Step       string
	StatusCode int
	Body       string
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("threads: %s failed with status %d: %s", e.Step, e.StatusCode, e.Body)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("threads: %s failed with status %d: %v", e.Step, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("threads: %s failed: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Permanent reports whether retrying the same request cannot succeed.
func (e *PublishError) Permanent() bool {
	if e.StatusCode < 400 || e.StatusCode >= 500 {
		return false
	}
	return e.StatusCode != http.StatusRequestTimeout && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanent is true when err wraps a permanent PublishError.
func IsPermanent(err error) bool {
	var pe *PublishError
	return errors.As(err, &pe) && pe.Permanent()
}
