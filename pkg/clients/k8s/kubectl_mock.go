package k8s

import (
	"github.com/stretchr/testify/mock"
)

type MockKubectl struct {
	mock.Mock
}

func (m *MockKubectl) NodeStatuses(context string) ([]NodeStatus, error) {
	args := m.Called(context)

	if s, ok := args.Get(0).([]NodeStatus); ok {
		return s, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockKubectl) TopNodes(context string) ([]NodeUsage, error) {
	args := m.Called(context)

	if u, ok := args.Get(0).([]NodeUsage); ok {
		return u, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockKubectl) NodeDetails(context string) ([]NodeDetail, error) {
	args := m.Called(context)

	if d, ok := args.Get(0).([]NodeDetail); ok {
		return d, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockKubectl) Apply(files []string, context, namespace string) error {
	args := m.Called(files, context, namespace)

	return args.Error(0)
}

func (m *MockKubectl) WaitForCondition(resourceType, condition, selector, timeout, context, namespace string) error {
	args := m.Called(resourceType, condition, selector, timeout, context, namespace)

	return args.Error(0)
}

func (m *MockKubectl) PortForward(resource, portMapping, context string) (int, string, error) {
	args := m.Called(resource, portMapping, context)

	return args.Int(0), args.String(1), args.Error(2)
}
