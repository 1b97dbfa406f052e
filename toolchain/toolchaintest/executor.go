// Package toolchaintest provides test doubles for the toolchain package.
package toolchaintest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smartcontractkit/app-release-framework/toolchain"
)

// MockExecutor is a testify mock of toolchain.Executor. Expectations match on the command.
type MockExecutor struct {
	mock.Mock
}

var _ toolchain.Executor = (*MockExecutor)(nil)

// NewMockExecutor creates a MockExecutor whose expectations are asserted at cleanup.
func NewMockExecutor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExecutor {
	m := &MockExecutor{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Execute implements toolchain.Executor.
func (m *MockExecutor) Execute(_ context.Context, cmd toolchain.Command) (toolchain.Result, error) {
	args := m.Called(cmd)

	var res toolchain.Result
	if r, ok := args.Get(0).(toolchain.Result); ok {
		res = r
	}

	return res, args.Error(1)
}

// Named matches any command running the named program.
func Named(name string) any {
	return mock.MatchedBy(func(cmd toolchain.Command) bool {
		return cmd.Name == name
	})
}
