package masterdata

import "context"

// ApprovalStatus represents where an entity sits in the approval workflow
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending_approval"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsValid checks if the approval status is valid
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// ApprovalWorkflow advances entities through the approval state machine.
// The implementation lives outside this module; bulk-created entities enter
// the workflow in the pending state and are submitted on creation.
type ApprovalWorkflow interface {
	// Submit registers a newly created entity for approval
	Submit(ctx context.Context, entityKind string, businessCode string) error
}

// NoopApprovalWorkflow satisfies ApprovalWorkflow where no workflow engine
// is wired, such as tests and single-node deployments.
type NoopApprovalWorkflow struct{}

// Submit does nothing
func (NoopApprovalWorkflow) Submit(ctx context.Context, entityKind string, businessCode string) error {
	return nil
}
