package kind

import (
	"github.com/stretchr/testify/mock"
)

type MockKind struct {
	mock.Mock
}

func (m *MockKind) IsInstalled() bool {
	args := m.Called()

	return args.Bool(0)
}

func (m *MockKind) GetClusters() ([]string, error) {
	args := m.Called()

	if c, ok := args.Get(0).([]string); ok {
		return c, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockKind) CreateCluster(name, configFile string) error {
	args := m.Called(name, configFile)

	return args.Error(0)
}

func (m *MockKind) DeleteCluster(name string) error {
	args := m.Called(name)

	return args.Error(0)
}

func (m *MockKind) ExportKubeconfig(name, path string, internal bool) error {
	args := m.Called(name, path, internal)

	return args.Error(0)
}

func (m *MockKind) LoadImage(image, name string) error {
	args := m.Called(image, name)

	return args.Error(0)
}

func (m *MockKind) GetNodes(name string) ([]string, error) {
	args := m.Called(name)

	if n, ok := args.Get(0).([]string); ok {
		return n, args.Error(1)
	}

	return nil, args.Error(1)
}
