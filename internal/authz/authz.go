package authz

// Package authz classifies callers and projects the capability map exposed
// on subscription read models. The projector combines a caller-class check
// with the machine-capability check from the workflow table, so the ACL a
// client sees is always re-derivable from (current state, caller identity).

import (
	"enrollapi/internal/workflow"
)

// Class is one of the two mutually exclusive caller classes: the applicant
// side drives its own application; the approver side reviews all of them.
type Class string

const (
	ClassApplicant Class = "applicant"
	ClassApprover  Class = "approver"
)

// Identity is the explicit caller identity passed into every operation that
// needs one. There is no ambient session state.
type Identity struct {
	ActorID string
	Class   Class
}

func (i Identity) ApplicantSide() bool { return i.Class == ClassApplicant }

func (i Identity) ApproverSide() bool { return i.Class == ClassApprover }

// Authenticated reports whether the identity names an actor at all.
func (i Identity) Authenticated() bool { return i.ActorID != "" }

// Role verbs used against subscriptions and messages.
const (
	VerbApplicant = "applicant"
	VerbSender    = "sender"
)

// ACL is the predicate-name to boolean capability map.
type ACL map[string]bool

// Project evaluates the fixed predicate set for one caller against a
// subscription in the given state. update is not itself an event: it gates
// free-form editing and holds whenever fill_application or
// complete_application would be legal for the caller.
func Project(id Identity, state workflow.State) ACL {
	can := func(ev workflow.Event) bool {
		return workflow.SubscriptionTable.Can(state, ev)
	}

	acl := ACL{
		"create":               id.ApplicantSide(),
		"fill_application":     id.ApplicantSide() && can(workflow.EventFillApplication),
		"complete_application": id.ApplicantSide() && can(workflow.EventCompleteApplication),
		"approve_application":  id.ApproverSide() && can(workflow.EventApproveApplication),
		"refuse_application":   id.ApproverSide() && can(workflow.EventRefuseApplication),
		"sign_convention":      id.ApplicantSide() && can(workflow.EventSignConvention),
		"deploy":               id.ApplicantSide() && can(workflow.EventDeploy),
		"convention": can(workflow.EventSignConvention) ||
			can(workflow.EventDeploy) ||
			state == workflow.StateDeployed,
	}
	acl["update"] = acl["fill_application"] || acl["complete_application"]
	return acl
}

// Allows reports whether the caller may fire the named event on a
// subscription in the given state.
func Allows(id Identity, state workflow.State, event workflow.Event) bool {
	return Project(id, state)[string(event)]
}

// EventRole derives the role verb granted to the actor who fired an event:
// the doer of "approve_application" becomes its "approver", and so on.
func EventRole(event workflow.Event) string {
	verb := string(event)
	for i := 0; i < len(verb); i++ {
		if verb[i] == '_' {
			verb = verb[:i]
			break
		}
	}
	if len(verb) > 0 && verb[len(verb)-1] == 'e' {
		return verb + "r"
	}
	return verb + "er"
}
