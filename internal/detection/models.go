// Package detection holds kernel inspection counts produced by visual or
// manual grain inspection and derives the infection ratio used by the
// detection-mode risk score.
package detection

import "errors"

var (
	// ErrInvalidCounts is returned when inspection counts are malformed.
	ErrInvalidCounts = errors.New("invalid inspection counts")
)

// Counts holds the outcome of a kernel inspection pass.
type Counts struct {
	// Healthy is the number of kernels classified as healthy.
	Healthy uint `json:"healthy"`

	// Contaminated is the number of kernels classified as contaminated.
	Contaminated uint `json:"contaminated"`
}

// Total returns the total number of inspected kernels.
func (c Counts) Total() uint {
	return c.Healthy + c.Contaminated
}

// InfectionRatio returns the fraction of inspected kernels that are
// contaminated, in [0, 1]. An empty inspection has ratio 0.
func (c Counts) InfectionRatio() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Contaminated) / float64(total)
}

// Detector produces inspection counts for a batch, abstracting over the
// classification backend (on-device model, lab count, manual entry).
type Detector interface {
	// Detect inspects the batch identified by batchID and returns kernel
	// counts.
	Detect(batchID string) (Counts, error)

	// Name returns a short identifier for the detector backend.
	Name() string
}
