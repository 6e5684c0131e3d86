package testutils

import (
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerificationLink(email, token string) error {
	args := m.Called(email, token)
	return args.Error(0)
}

func (m *MockNotifier) SendOtp(email, otp string) error {
	args := m.Called(email, otp)
	return args.Error(0)
}
