package authz

import (
	"testing"

	"enrollapi/internal/workflow"

	"github.com/stretchr/testify/assert"
)

var (
	applicant = Identity{ActorID: "user-1", Class: ClassApplicant}
	approver  = Identity{ActorID: "reviewer-1", Class: ClassApprover}
)

func TestIdentity(t *testing.T) {
	assert.True(t, applicant.ApplicantSide())
	assert.False(t, applicant.ApproverSide())
	assert.True(t, approver.ApproverSide())
	assert.True(t, applicant.Authenticated())
	assert.False(t, Identity{Class: ClassApplicant}.Authenticated())
}

func TestProjectApplicant(t *testing.T) {
	tests := []struct {
		state      workflow.State
		fill       bool
		complete   bool
		sign       bool
		deploy     bool
		convention bool
	}{
		{workflow.StateInitial, true, false, false, false, false},
		{workflow.StateFilledApplication, false, true, false, false, false},
		{workflow.StateWaitingForApproval, false, false, false, false, false},
		{workflow.StateApplicationApproved, false, false, true, false, true},
		{workflow.StateApplicationReady, false, false, false, true, true},
		{workflow.StateDeployed, false, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			acl := Project(applicant, tt.state)

			assert.True(t, acl["create"])
			assert.Equal(t, tt.fill, acl["fill_application"])
			assert.Equal(t, tt.complete, acl["complete_application"])
			assert.Equal(t, tt.sign, acl["sign_convention"])
			assert.Equal(t, tt.deploy, acl["deploy"])
			assert.Equal(t, tt.convention, acl["convention"])

			// approver-side events never open to applicants
			assert.False(t, acl["approve_application"])
			assert.False(t, acl["refuse_application"])

			// update holds exactly when an editing event would be legal
			assert.Equal(t, tt.fill || tt.complete, acl["update"])
		})
	}
}

func TestProjectApprover(t *testing.T) {
	tests := []struct {
		state   workflow.State
		approve bool
		refuse  bool
	}{
		{workflow.StateInitial, false, false},
		{workflow.StateFilledApplication, true, true},
		{workflow.StateWaitingForApproval, true, true},
		{workflow.StateApplicationApproved, false, false},
		{workflow.StateApplicationReady, false, false},
		{workflow.StateDeployed, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			acl := Project(approver, tt.state)

			assert.Equal(t, tt.approve, acl["approve_application"])
			assert.Equal(t, tt.refuse, acl["refuse_application"])

			// applicant-side predicates never open to approvers
			assert.False(t, acl["create"])
			assert.False(t, acl["fill_application"])
			assert.False(t, acl["complete_application"])
			assert.False(t, acl["sign_convention"])
			assert.False(t, acl["deploy"])
			assert.False(t, acl["update"])
		})
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(applicant, workflow.StateFilledApplication, workflow.EventCompleteApplication))
	assert.False(t, Allows(approver, workflow.StateFilledApplication, workflow.EventCompleteApplication))
	assert.True(t, Allows(approver, workflow.StateWaitingForApproval, workflow.EventRefuseApplication))
	assert.False(t, Allows(applicant, workflow.StateWaitingForApproval, workflow.EventRefuseApplication))
	assert.False(t, Allows(applicant, workflow.StateDeployed, workflow.EventDeploy))
}

func TestEventRole(t *testing.T) {
	tests := []struct {
		event workflow.Event
		role  string
	}{
		{workflow.EventFillApplication, "filler"},
		{workflow.EventCompleteApplication, "completer"},
		{workflow.EventApproveApplication, "approver"},
		{workflow.EventRefuseApplication, "refuser"},
		{workflow.EventSignConvention, "signer"},
		{workflow.EventDeploy, "deployer"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			assert.Equal(t, tt.role, EventRole(tt.event))
		})
	}
}
