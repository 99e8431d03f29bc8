package assessment

import "context"

// ListOptions contains options for listing assessments.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains one page of assessments.
type ListResult struct {
	Items      []*Assessment
	NextCursor string
}

// Repository defines the interface for assessment persistence.
type Repository interface {
	// Create stores a new assessment.
	Create(ctx context.Context, a *Assessment) error

	// GetByOperatorAndID retrieves an assessment scoped to an operator.
	// Returns ErrAssessmentNotFound if it does not exist or belongs to a
	// different operator.
	GetByOperatorAndID(ctx context.Context, operatorID, id string) (*Assessment, error)

	// List retrieves assessments for an operator, newest first, with
	// cursor pagination.
	List(ctx context.Context, operatorID string, opts ListOptions) (*ListResult, error)

	// Delete removes an assessment scoped to an operator.
	Delete(ctx context.Context, operatorID, id string) error
}
