// Package mocks provides test doubles for the policeapi client.
package mocks

import (
	"context"
	"net/url"

	policeapi "github.com/sells-group/dashboard-engine/pkg/policeapi"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Dashboard provides a mock function with given fields: ctx, endpoint, params
func (_m *MockClient) Dashboard(ctx context.Context, endpoint string, params url.Values) (*policeapi.Envelope, error) {
	ret := _m.Called(ctx, endpoint, params)

	if len(ret) == 0 {
		panic("no return value specified for Dashboard")
	}

	var r0 *policeapi.Envelope
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, url.Values) (*policeapi.Envelope, error)); ok {
		return rf(ctx, endpoint, params)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, url.Values) *policeapi.Envelope); ok {
		r0 = rf(ctx, endpoint, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*policeapi.Envelope)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, url.Values) error); ok {
		r1 = rf(ctx, endpoint, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
