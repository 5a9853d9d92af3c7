package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ava19999/rtc/internal/bridge"
	"github.com/ava19999/rtc/internal/notify"
	"github.com/ava19999/rtc/internal/state"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type NativeBridgeMock struct {
	mock.Mock
}

func (m *NativeBridgeMock) SetCurrentRoomID(id string) {
	m.Called(id)
}

func (m *NativeBridgeMock) SetCurrentUserID(id string) {
	m.Called(id)
}

func (m *NativeBridgeMock) SetNotificationSoundEnabled(enabled bool) {
	m.Called(enabled)
}

func (m *NativeBridgeMock) SubscribeToRoom(id string) {
	m.Called(id)
}

func (m *NativeBridgeMock) UnsubscribeFromRoom(id string) {
	m.Called(id)
}

type StateStoreMock struct {
	mock.Mock
}

func (m *StateStoreMock) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *StateStoreMock) Set(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *StateStoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ notify.Publisher = (*PublisherMock)(nil)
var _ bridge.Native = (*NativeBridgeMock)(nil)
var _ state.Store = (*StateStoreMock)(nil)
