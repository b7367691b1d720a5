package mocks

import (
	"context"

	"enrollapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Attach(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListActive(ctx context.Context, subscriptionID string) ([]model.Document, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListAll(ctx context.Context, subscriptionID string) ([]model.Document, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Message, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Has(ctx context.Context, actorID, verb, resourceType, resourceID string) (bool, error) {
	args := m.Called(ctx, actorID, verb, resourceType, resourceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleRepository) Grant(ctx context.Context, actorID, verb, resourceType, resourceID string) error {
	args := m.Called(ctx, actorID, verb, resourceType, resourceID)
	return args.Error(0)
}

func (m *MockRoleRepository) ActorWithRole(ctx context.Context, verb, resourceType, resourceID string) (string, error) {
	args := m.Called(ctx, verb, resourceType, resourceID)
	return args.String(0), args.Error(1)
}

func (m *MockRoleRepository) ResourceIDsWithRole(ctx context.Context, actorID, verb, resourceType string) ([]string, error) {
	args := m.Called(ctx, actorID, verb, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
