package mocks

import (
	"context"

	"enrollapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]model.Subscription, error) {
	args := m.Called(ctx, enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateState(ctx context.Context, id, state string) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Touch(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Replace(ctx context.Context, ans *model.Answer) (*model.Answer, error) {
	args := m.Called(ctx, ans)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Answer), args.Error(1)
}

func (m *MockAnswerRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.Answer, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Answer), args.Error(1)
}

type MockScopeSubscriptionRepository struct {
	mock.Mock
}

func (m *MockScopeSubscriptionRepository) Replace(ctx context.Context, ss *model.ScopeSubscription) (*model.ScopeSubscription, error) {
	args := m.Called(ctx, ss)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScopeSubscription), args.Error(1)
}

func (m *MockScopeSubscriptionRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]model.ScopeSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScopeSubscription), args.Error(1)
}
