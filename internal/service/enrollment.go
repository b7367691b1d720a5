package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"enrollapi/internal/authz"
	"enrollapi/internal/locale"
	"enrollapi/internal/model"
	"enrollapi/internal/repository"
	"enrollapi/internal/workflow"
)

// conventionDocumentTypes is the fixed checklist an enrollment template must
// define before it can reach waiting_for_approval: the template-level
// machine gates on slot presence, not on per-applicant uploads.
var conventionDocumentTypes = []string{
	"Document::CNILVoucher",
	"Document::CertificationResults",
	"Document::FranceConnectCompliance",
	"Document::LegalBasis",
}

// EnrollmentService defines the read model and template-approval workflow
// for enrollment templates.
type EnrollmentService interface {
	// List returns every enrollment template.
	List(ctx context.Context) ([]EnrollmentView, error)

	// Get resolves a template by its unique slug.
	Get(ctx context.Context, name string) (*EnrollmentView, error)

	// Trigger fires a named event on the template's own machine. Only
	// approver-side callers may drive the template workflow.
	Trigger(ctx context.Context, name, event string, id authz.Identity) (*EnrollmentView, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	messages    repository.MessageRepository
}

// NewEnrollmentService constructs a new EnrollmentService.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, messages repository.MessageRepository) EnrollmentService {
	return &enrollmentService{enrollments: enrollments, messages: messages}
}

func (s *enrollmentService) List(ctx context.Context) ([]EnrollmentView, error) {
	items, err := s.enrollments.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]EnrollmentView, 0, len(items))
	for i := range items {
		views = append(views, newEnrollmentView(&items[i]))
	}
	return views, nil
}

func (s *enrollmentService) Get(ctx context.Context, name string) (*EnrollmentView, error) {
	enrollment, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	v := newEnrollmentView(enrollment)
	return &v, nil
}

func (s *enrollmentService) Trigger(ctx context.Context, name, event string, id authz.Identity) (*EnrollmentView, error) {
	ev := workflow.Event(event)
	if !workflow.EnrollmentTable.HasEvent(ev) {
		return nil, ErrEventNotPermitted
	}
	if !id.ApproverSide() {
		return nil, ErrForbidden
	}
	enrollment, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}

	guards := workflow.Guards{
		workflow.StateWaitingForApproval: func(ctx context.Context) (*workflow.ValidationError, error) {
			return s.documentTypesPresent(enrollment), nil
		},
	}

	commit := func(ctx context.Context, to workflow.State) error {
		return s.enrollments.UpdateState(ctx, enrollment.ID, string(to))
	}

	after := func(ctx context.Context, ev workflow.Event, from, to workflow.State) {
		_, err := s.messages.Create(ctx, &model.Message{
			ID:           uuid.New().String(),
			EnrollmentID: enrollment.ID,
			Content:      locale.Resolve("models.enrollment.event." + string(ev)),
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			log.Printf("enrollment %s: emit message for %s: %v", enrollment.ID, ev, err)
		}
	}

	to, err := workflow.EnrollmentTable.Fire(ctx, workflow.State(enrollment.State), ev, guards, commit, after)
	if err != nil {
		return nil, err
	}
	enrollment.State = string(to)
	v := newEnrollmentView(enrollment)
	return &v, nil
}

// documentTypesPresent checks the fixed checklist against the template's
// declared document slots.
func (s *enrollmentService) documentTypesPresent(enrollment *model.Enrollment) *workflow.ValidationError {
	var verr *workflow.ValidationError
	for _, name := range conventionDocumentTypes {
		if enrollment.DocumentTypeByName(name) != nil {
			continue
		}
		if verr == nil {
			verr = &workflow.ValidationError{}
		}
		verr.Add("document_types", fmt.Sprintf(locale.Resolve("validations.document_missing"), name))
	}
	return verr
}

func (s *enrollmentService) find(ctx context.Context, name string) (*model.Enrollment, error) {
	if name == "" {
		return nil, ErrIDRequired
	}
	enrollment, err := s.enrollments.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return enrollment, nil
}
