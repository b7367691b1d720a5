package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"enrollapi/internal/authz"
	"enrollapi/internal/locale"
	"enrollapi/internal/model"
	"enrollapi/internal/repository"
	"enrollapi/internal/schema"
	"enrollapi/internal/storage"
	"enrollapi/internal/workflow"
)

// SubscriptionService defines the use cases for one applicant's workflow
// instance: dynamic attribute access, document slots, and guarded
// transitions. Every operation takes the caller identity explicitly.
type SubscriptionService interface {
	// Begin creates a subscription under the named enrollment, writes the
	// given attribute values, and fires fill_application. On success the
	// caller receives the applicant role on the new subscription.
	Begin(ctx context.Context, enrollmentName string, id authz.Identity, values map[string]any) (*SubscriptionView, error)

	// Get returns the subscription read model, including the caller's ACL.
	Get(ctx context.Context, subscriptionID string, id authz.Identity) (*SubscriptionView, error)

	// List returns the subscriptions of an enrollment visible to the
	// caller: all of them for approver-side identities, only those the
	// caller holds the applicant role on otherwise.
	List(ctx context.Context, enrollmentName string, id authz.Identity) ([]SubscriptionView, error)

	// SetAttributes resolves each name against the enrollment's fields,
	// then its scopes, and writes through answers or scope selections.
	// Unresolvable names fail with UnknownAttributeError; values that do
	// not parse as the field's kind fail with schema.CoercionError.
	SetAttributes(ctx context.Context, subscriptionID string, id authz.Identity, values map[string]any) (*SubscriptionView, error)

	// Attribute reads one attribute's current value. The bool reports
	// whether an answer/selection exists; an unknown name is an error,
	// never a silent absence.
	Attribute(ctx context.Context, subscriptionID, name string) (any, bool, error)

	// AttachDocument streams the payload to object storage and records the
	// document, archiving any active document of the same resolved type.
	// An unrecognized type name yields a type-less document, not an error.
	AttachDocument(ctx context.Context, subscriptionID string, id authz.Identity, typeName, filename, contentType string, r io.Reader, size int64) (*SubscriptionView, error)

	// Documents returns the subscription's full document history for audit,
	// archived generations included, oldest first as stored.
	Documents(ctx context.Context, subscriptionID string, id authz.Identity) ([]DocumentView, error)

	// Trigger fires a named workflow event. The event must exist in the
	// machine, the caller's ACL must allow it, the source state must
	// match, and the target state's entry validation must hold.
	Trigger(ctx context.Context, subscriptionID string, event string, id authz.Identity) (*SubscriptionView, error)

	// Withdraw destroys the subscription with its answers, scope
	// selections, documents (stored objects included, best-effort), and
	// messages.
	Withdraw(ctx context.Context, subscriptionID string, id authz.Identity) error
}

type subscriptionService struct {
	enrollments repository.EnrollmentRepository
	subs        repository.SubscriptionRepository
	answers     repository.AnswerRepository
	scopeSubs   repository.ScopeSubscriptionRepository
	documents   repository.DocumentRepository
	messages    repository.MessageRepository
	roles       repository.RoleRepository
	store       storage.Storage
}

// NewSubscriptionService constructs a new SubscriptionService.
func NewSubscriptionService(
	enrollments repository.EnrollmentRepository,
	subs repository.SubscriptionRepository,
	answers repository.AnswerRepository,
	scopeSubs repository.ScopeSubscriptionRepository,
	documents repository.DocumentRepository,
	messages repository.MessageRepository,
	roles repository.RoleRepository,
	store storage.Storage,
) SubscriptionService {
	return &subscriptionService{
		enrollments: enrollments,
		subs:        subs,
		answers:     answers,
		scopeSubs:   scopeSubs,
		documents:   documents,
		messages:    messages,
		roles:       roles,
		store:       store,
	}
}

func (s *subscriptionService) Begin(ctx context.Context, enrollmentName string, id authz.Identity, values map[string]any) (*SubscriptionView, error) {
	if !authz.Project(id, workflow.StateInitial)["create"] {
		return nil, ErrForbidden
	}
	enrollment, err := s.enrollments.FindByName(ctx, enrollmentName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sub, err := s.subs.Create(ctx, &model.Subscription{
		ID:           uuid.New().String(),
		EnrollmentID: enrollment.ID,
		State:        string(workflow.SubscriptionTable.Initial),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	// Creation is all-or-nothing: a row that never reached
	// filled_application must not survive the request.
	if err := s.writeAttributes(ctx, enrollment, sub.ID, values); err != nil {
		s.discard(ctx, sub.ID)
		return nil, err
	}

	fired, err := s.fire(ctx, enrollment, sub, workflow.EventFillApplication)
	if err != nil {
		s.discard(ctx, sub.ID)
		return nil, err
	}
	sub = fired

	if err := s.roles.Grant(ctx, id.ActorID, authz.VerbApplicant, repository.ResourceSubscription, sub.ID); err != nil {
		s.discard(ctx, sub.ID)
		return nil, err
	}
	return s.buildView(ctx, enrollment, sub, id)
}

// discard removes a row whose creation did not complete. The caller's
// error is the one to surface, so a failed delete is only logged.
func (s *subscriptionService) discard(ctx context.Context, subscriptionID string) {
	if err := s.subs.Delete(ctx, subscriptionID); err != nil {
		log.Printf("subscription %s: discard incomplete creation: %v", subscriptionID, err)
	}
}

func (s *subscriptionService) Get(ctx context.Context, subscriptionID string, id authz.Identity) (*SubscriptionView, error) {
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	visible, err := s.visible(ctx, sub, id)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotFound
	}
	return s.buildView(ctx, enrollment, sub, id)
}

func (s *subscriptionService) List(ctx context.Context, enrollmentName string, id authz.Identity) ([]SubscriptionView, error) {
	enrollment, err := s.enrollments.FindByName(ctx, enrollmentName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	subs, err := s.subs.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}

	if !id.ApproverSide() {
		mine, err := s.roles.ResourceIDsWithRole(ctx, id.ActorID, authz.VerbApplicant, repository.ResourceSubscription)
		if err != nil {
			return nil, err
		}
		allowed := make(map[string]bool, len(mine))
		for _, sid := range mine {
			allowed[sid] = true
		}
		filtered := subs[:0]
		for _, sub := range subs {
			if allowed[sub.ID] {
				filtered = append(filtered, sub)
			}
		}
		subs = filtered
	}

	views := make([]SubscriptionView, 0, len(subs))
	for i := range subs {
		v, err := s.buildView(ctx, enrollment, &subs[i], id)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *subscriptionService) SetAttributes(ctx context.Context, subscriptionID string, id authz.Identity, values map[string]any) (*SubscriptionView, error) {
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !authz.Project(id, workflow.State(sub.State))["update"] {
		return nil, ErrForbidden
	}
	if err := s.writeAttributes(ctx, enrollment, sub.ID, values); err != nil {
		return nil, err
	}
	return s.buildView(ctx, enrollment, sub, id)
}

func (s *subscriptionService) Attribute(ctx context.Context, subscriptionID, name string) (any, bool, error) {
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, false, err
	}

	if field := enrollment.FieldByName(name); field != nil {
		answers, err := s.answers.ListBySubscription(ctx, sub.ID)
		if err != nil {
			return nil, false, err
		}
		for _, a := range answers {
			if a.FieldID == field.ID {
				return a.Value, true, nil
			}
		}
		return nil, false, nil
	}

	if scope := enrollment.ScopeByName(name); scope != nil {
		selections, err := s.scopeSubs.ListBySubscription(ctx, sub.ID)
		if err != nil {
			return nil, false, err
		}
		for _, ss := range selections {
			if ss.ScopeID == scope.ID {
				return ss.Selected, true, nil
			}
		}
		return nil, false, nil
	}

	return nil, false, &UnknownAttributeError{Name: name}
}

func (s *subscriptionService) AttachDocument(ctx context.Context, subscriptionID string, id authz.Identity, typeName, filename, contentType string, r io.Reader, size int64) (*SubscriptionView, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !authz.Project(id, workflow.State(sub.State))["update"] {
		return nil, ErrForbidden
	}

	// Unresolvable type names are tolerated: the document stays type-less.
	var typeID string
	if dt := enrollment.DocumentTypeByName(typeName); dt != nil {
		typeID = dt.ID
	}

	ext := filepath.Ext(filename)
	key := filepath.ToSlash(filepath.Join("documents", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	_, err = s.documents.Attach(ctx, &model.Document{
		ID:             uuid.New().String(),
		SubscriptionID: sub.ID,
		DocumentTypeID: typeID,
		Filename:       filename,
		StoragePath:    objInfo.Key,
		Size:           objInfo.Size,
		ContentType:    contentType,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if err := s.subs.Touch(ctx, sub.ID); err != nil {
		return nil, err
	}
	return s.buildView(ctx, enrollment, sub, id)
}

func (s *subscriptionService) Documents(ctx context.Context, subscriptionID string, id authz.Identity) ([]DocumentView, error) {
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	visible, err := s.visible(ctx, sub, id)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotFound
	}

	docs, err := s.documents.ListAll(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	typeName := make(map[string]string, len(enrollment.DocumentTypes))
	for _, dt := range enrollment.DocumentTypes {
		typeName[dt.ID] = dt.Name
	}
	views := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, DocumentView{
			ID:       d.ID,
			Type:     typeName[d.DocumentTypeID],
			Filename: d.Filename,
			Archived: d.Archived,
		})
	}
	return views, nil
}

func (s *subscriptionService) Trigger(ctx context.Context, subscriptionID string, event string, id authz.Identity) (*SubscriptionView, error) {
	ev := workflow.Event(event)
	if !workflow.SubscriptionTable.HasEvent(ev) {
		return nil, ErrEventNotPermitted
	}
	sub, enrollment, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !authz.Allows(id, workflow.State(sub.State), ev) {
		return nil, ErrForbidden
	}

	sub, err = s.fire(ctx, enrollment, sub, ev)
	if err != nil {
		return nil, err
	}

	if err := s.roles.Grant(ctx, id.ActorID, authz.EventRole(ev), repository.ResourceSubscription, sub.ID); err != nil {
		return nil, err
	}
	return s.buildView(ctx, enrollment, sub, id)
}

func (s *subscriptionService) Withdraw(ctx context.Context, subscriptionID string, id authz.Identity) error {
	sub, _, err := s.load(ctx, subscriptionID)
	if err != nil {
		return err
	}
	visible, err := s.visible(ctx, sub, id)
	if err != nil {
		return err
	}
	if !visible {
		return ErrNotFound
	}

	// Stored objects go best-effort; the rows go regardless.
	docs, err := s.documents.ListAll(ctx, sub.ID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.store.Delete(ctx, d.StoragePath); err != nil {
			log.Printf("withdraw %s: delete object %s: %v", sub.ID, d.StoragePath, err)
		}
	}
	return s.subs.Delete(ctx, sub.ID)
}

// fire runs one transition through the shared table: entry validation for
// the target state, state persistence, then the best-effort message hook.
func (s *subscriptionService) fire(ctx context.Context, enrollment *model.Enrollment, sub *model.Subscription, event workflow.Event) (*model.Subscription, error) {
	guards := workflow.Guards{
		workflow.StateFilledApplication: func(ctx context.Context) (*workflow.ValidationError, error) {
			return s.requiredFieldsSatisfied(ctx, enrollment, sub.ID)
		},
		workflow.StateWaitingForApproval: func(ctx context.Context) (*workflow.ValidationError, error) {
			verr, err := s.requiredFieldsSatisfied(ctx, enrollment, sub.ID)
			if err != nil {
				return nil, err
			}
			dverr, err := s.documentRequirementsSatisfied(ctx, enrollment, sub.ID)
			if err != nil {
				return nil, err
			}
			if dverr != nil {
				if verr == nil {
					verr = dverr
				} else {
					for k, msgs := range dverr.Errors {
						for _, msg := range msgs {
							verr.Add(k, msg)
						}
					}
				}
			}
			return verr, nil
		},
	}

	commit := func(ctx context.Context, to workflow.State) error {
		return s.subs.UpdateState(ctx, sub.ID, string(to))
	}

	after := func(ctx context.Context, ev workflow.Event, from, to workflow.State) {
		_, err := s.messages.Create(ctx, &model.Message{
			ID:             uuid.New().String(),
			SubscriptionID: sub.ID,
			Content:        locale.Resolve("models.subscription.event." + string(ev)),
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			// Messaging is fire-and-forget relative to the state change.
			log.Printf("subscription %s: emit message for %s: %v", sub.ID, ev, err)
		}
	}

	to, err := workflow.SubscriptionTable.Fire(ctx, workflow.State(sub.State), event, guards, commit, after)
	if err != nil {
		return nil, err
	}
	sub.State = string(to)
	return sub, nil
}

// requiredFieldsSatisfied checks every required field of the enrollment's
// flattened schema for a present answer.
func (s *subscriptionService) requiredFieldsSatisfied(ctx context.Context, enrollment *model.Enrollment, subscriptionID string) (*workflow.ValidationError, error) {
	answers, err := s.answers.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.FieldID] = true
	}

	var verr *workflow.ValidationError
	for _, field := range enrollment.AllFields() {
		if !field.Required || answered[field.ID] {
			continue
		}
		if verr == nil {
			verr = &workflow.ValidationError{}
		}
		label := field.HumanName
		if label == "" {
			label = field.Name
		}
		verr.Add(field.Name, fmt.Sprintf(locale.Resolve("validations.field_required"), label))
	}
	return verr, nil
}

// documentRequirementsSatisfied checks every document type of the enrollment
// for at least one active document.
func (s *subscriptionService) documentRequirementsSatisfied(ctx context.Context, enrollment *model.Enrollment, subscriptionID string) (*workflow.ValidationError, error) {
	docs, err := s.documents.ListActive(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		present[d.DocumentTypeID] = true
	}

	var verr *workflow.ValidationError
	for _, dt := range enrollment.DocumentTypes {
		if present[dt.ID] {
			continue
		}
		if verr == nil {
			verr = &workflow.ValidationError{}
		}
		verr.Add("documents", fmt.Sprintf(locale.Resolve("validations.document_missing"), dt.HumanName))
	}
	return verr, nil
}

// writeAttributes is the dynamic accessor resolver's write side: each name
// resolves to a field (answer write, coerced to the field's kind) or a
// scope (selection write), in that order; anything else is unknown.
func (s *subscriptionService) writeAttributes(ctx context.Context, enrollment *model.Enrollment, subscriptionID string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	for name, raw := range values {
		if field := enrollment.FieldByName(name); field != nil {
			value, err := schema.Coerce(field, raw)
			if err != nil {
				return err
			}
			if _, err := s.answers.Replace(ctx, &model.Answer{
				ID:             uuid.New().String(),
				SubscriptionID: subscriptionID,
				FieldID:        field.ID,
				Value:          value,
				CreatedAt:      time.Now().UTC(),
			}); err != nil {
				return err
			}
			continue
		}

		if scope := enrollment.ScopeByName(name); scope != nil {
			selected, err := schema.Coerce(&schema.Field{Kind: schema.KindBoolean, Name: name}, raw)
			if err != nil {
				return err
			}
			if _, err := s.scopeSubs.Replace(ctx, &model.ScopeSubscription{
				ID:             uuid.New().String(),
				SubscriptionID: subscriptionID,
				ScopeID:        scope.ID,
				Selected:       selected.(bool),
				CreatedAt:      time.Now().UTC(),
			}); err != nil {
				return err
			}
			continue
		}

		return &UnknownAttributeError{Name: name}
	}
	return s.subs.Touch(ctx, subscriptionID)
}

func (s *subscriptionService) load(ctx context.Context, subscriptionID string) (*model.Subscription, *model.Enrollment, error) {
	if subscriptionID == "" {
		return nil, nil, ErrIDRequired
	}
	sub, err := s.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	enrollment, err := s.enrollments.FindByID(ctx, sub.EnrollmentID)
	if err != nil {
		return nil, nil, err
	}
	return sub, enrollment, nil
}

// visible applies the list-scoping predicate to one subscription: the
// approver side sees everything, the applicant side only its own grants.
func (s *subscriptionService) visible(ctx context.Context, sub *model.Subscription, id authz.Identity) (bool, error) {
	if id.ApproverSide() {
		return true, nil
	}
	return s.roles.Has(ctx, id.ActorID, authz.VerbApplicant, repository.ResourceSubscription, sub.ID)
}

func (s *subscriptionService) buildView(ctx context.Context, enrollment *model.Enrollment, sub *model.Subscription, id authz.Identity) (*SubscriptionView, error) {
	answers, err := s.answers.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	selections, err := s.scopeSubs.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListActive(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	fieldName := make(map[string]string)
	for _, f := range enrollment.AllFields() {
		fieldName[f.ID] = f.Name
	}
	answerValues := make(map[string]any, len(answers))
	for _, a := range answers {
		if name, ok := fieldName[a.FieldID]; ok {
			answerValues[name] = a.Value
		}
	}

	scopeName := make(map[string]string, len(enrollment.Scopes))
	for _, sc := range enrollment.Scopes {
		scopeName[sc.ID] = sc.Name
	}
	scopeValues := make(map[string]bool, len(selections))
	for _, ss := range selections {
		if name, ok := scopeName[ss.ScopeID]; ok {
			scopeValues[name] = ss.Selected
		}
	}

	typeName := make(map[string]string, len(enrollment.DocumentTypes))
	for _, dt := range enrollment.DocumentTypes {
		typeName[dt.ID] = dt.Name
	}
	docViews := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		docViews = append(docViews, DocumentView{
			ID:       d.ID,
			Type:     typeName[d.DocumentTypeID],
			Filename: d.Filename,
		})
	}

	msgViews := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender, err := s.roles.ActorWithRole(ctx, authz.VerbSender, repository.ResourceMessage, m.ID)
		if err != nil {
			return nil, err
		}
		msgViews = append(msgViews, MessageView{ID: m.ID, Content: m.Content, Sender: sender})
	}

	return &SubscriptionView{
		ID:         sub.ID,
		State:      sub.State,
		Enrollment: newEnrollmentView(enrollment),
		Answers:    answerValues,
		Scopes:     scopeValues,
		Documents:  docViews,
		Messages:   msgViews,
		ACL:        authz.Project(id, workflow.State(sub.State)),
	}, nil
}
