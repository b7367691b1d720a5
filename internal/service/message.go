package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"enrollapi/internal/authz"
	"enrollapi/internal/model"
	"enrollapi/internal/repository"
)

// MessageService defines the user-facing messaging surface. Workflow hooks
// write messages directly through the repository; this service carries
// user-authored messages with sender attribution. Messages are never
// updated after creation.
type MessageService interface {
	// Create records a message on a subscription and grants the author the
	// sender role on it.
	Create(ctx context.Context, subscriptionID, content string, id authz.Identity) (*MessageView, error)

	// List returns a subscription's messages visible to the caller:
	// everything for approver-side identities, only own subscriptions'
	// messages otherwise.
	List(ctx context.Context, subscriptionID string, id authz.Identity) ([]MessageView, error)

	// Delete removes a message. Only its sender may delete it.
	Delete(ctx context.Context, messageID string, id authz.Identity) error
}

type messageService struct {
	messages repository.MessageRepository
	roles    repository.RoleRepository
}

// NewMessageService constructs a new MessageService.
func NewMessageService(messages repository.MessageRepository, roles repository.RoleRepository) MessageService {
	return &messageService{messages: messages, roles: roles}
}

func (s *messageService) Create(ctx context.Context, subscriptionID, content string, id authz.Identity) (*MessageView, error) {
	if !id.Authenticated() {
		return nil, ErrForbidden
	}
	if subscriptionID == "" {
		return nil, ErrIDRequired
	}
	if content == "" {
		return nil, ErrContentRequired
	}

	accessible, err := s.accessible(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, ErrNotFound
	}

	msg, err := s.messages.Create(ctx, &model.Message{
		ID:             uuid.New().String(),
		SubscriptionID: subscriptionID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.roles.Grant(ctx, id.ActorID, authz.VerbSender, repository.ResourceMessage, msg.ID); err != nil {
		return nil, err
	}
	return &MessageView{ID: msg.ID, Content: msg.Content, Sender: id.ActorID}, nil
}

func (s *messageService) List(ctx context.Context, subscriptionID string, id authz.Identity) ([]MessageView, error) {
	if subscriptionID == "" {
		return nil, ErrIDRequired
	}
	accessible, err := s.accessible(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	if !accessible {
		return nil, ErrNotFound
	}

	msgs, err := s.messages.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender, err := s.roles.ActorWithRole(ctx, authz.VerbSender, repository.ResourceMessage, m.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, MessageView{ID: m.ID, Content: m.Content, Sender: sender})
	}
	return views, nil
}

func (s *messageService) Delete(ctx context.Context, messageID string, id authz.Identity) error {
	if messageID == "" {
		return ErrIDRequired
	}
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	isSender, err := s.roles.Has(ctx, id.ActorID, authz.VerbSender, repository.ResourceMessage, msg.ID)
	if err != nil {
		return err
	}
	if !isSender {
		return ErrForbidden
	}
	return s.messages.Delete(ctx, msg.ID)
}

// accessible applies the message-scope predicate: approvers see every
// subscription's messages, applicants only those of subscriptions they hold
// the applicant role on.
func (s *messageService) accessible(ctx context.Context, subscriptionID string, id authz.Identity) (bool, error) {
	if id.ApproverSide() {
		return true, nil
	}
	return s.roles.Has(ctx, id.ActorID, authz.VerbApplicant, repository.ResourceSubscription, subscriptionID)
}
