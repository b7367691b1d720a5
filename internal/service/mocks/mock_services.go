package mocks

import (
	"context"
	"io"

	"enrollapi/internal/authz"
	"enrollapi/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) List(ctx context.Context) ([]service.EnrollmentView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.EnrollmentView), args.Error(1)
}

func (m *MockEnrollmentService) Get(ctx context.Context, name string) (*service.EnrollmentView, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EnrollmentView), args.Error(1)
}

func (m *MockEnrollmentService) Trigger(ctx context.Context, name, event string, id authz.Identity) (*service.EnrollmentView, error) {
	args := m.Called(ctx, name, event, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EnrollmentView), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Begin(ctx context.Context, enrollmentName string, id authz.Identity, values map[string]any) (*service.SubscriptionView, error) {
	args := m.Called(ctx, enrollmentName, id, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) Get(ctx context.Context, subscriptionID string, id authz.Identity) (*service.SubscriptionView, error) {
	args := m.Called(ctx, subscriptionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) List(ctx context.Context, enrollmentName string, id authz.Identity) ([]service.SubscriptionView, error) {
	args := m.Called(ctx, enrollmentName, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) SetAttributes(ctx context.Context, subscriptionID string, id authz.Identity, values map[string]any) (*service.SubscriptionView, error) {
	args := m.Called(ctx, subscriptionID, id, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) Attribute(ctx context.Context, subscriptionID, name string) (any, bool, error) {
	args := m.Called(ctx, subscriptionID, name)
	return args.Get(0), args.Bool(1), args.Error(2)
}

func (m *MockSubscriptionService) AttachDocument(ctx context.Context, subscriptionID string, id authz.Identity, typeName, filename, contentType string, r io.Reader, size int64) (*service.SubscriptionView, error) {
	args := m.Called(ctx, subscriptionID, id, typeName, filename, contentType, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) Documents(ctx context.Context, subscriptionID string, id authz.Identity) ([]service.DocumentView, error) {
	args := m.Called(ctx, subscriptionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentView), args.Error(1)
}

func (m *MockSubscriptionService) Trigger(ctx context.Context, subscriptionID string, event string, id authz.Identity) (*service.SubscriptionView, error) {
	args := m.Called(ctx, subscriptionID, event, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscriptionView), args.Error(1)
}

func (m *MockSubscriptionService) Withdraw(ctx context.Context, subscriptionID string, id authz.Identity) error {
	args := m.Called(ctx, subscriptionID, id)
	return args.Error(0)
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Create(ctx context.Context, subscriptionID, content string, id authz.Identity) (*service.MessageView, error) {
	args := m.Called(ctx, subscriptionID, content, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MessageView), args.Error(1)
}

func (m *MockMessageService) List(ctx context.Context, subscriptionID string, id authz.Identity) ([]service.MessageView, error) {
	args := m.Called(ctx, subscriptionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.MessageView), args.Error(1)
}

func (m *MockMessageService) Delete(ctx context.Context, messageID string, id authz.Identity) error {
	args := m.Called(ctx, messageID, id)
	return args.Error(0)
}
