package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/andyballingall/portpub/internal/port"
	"github.com/andyballingall/portpub/internal/repo"
	"github.com/andyballingall/portpub/internal/runner"
)

const testConfig = `
repository:
  owner: "example"
  name: "widgets"
package:
  name: "widgets"
  description: "Widgets for C++."
  license: "MIT"
  dependencies: ["fmt"]
  hostDependencies: ["vcpkg-cmake"]
vcpkg:
  privilegePrefix: ""
`

type MockManager struct {
	mock.Mock
}

func (m *MockManager) Publish(ctx context.Context, creds repo.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *MockManager) Render(ctx context.Context, checksum port.Checksum, write bool) (Rendered, error) {
	args := m.Called(ctx, checksum, write)
	r, _ := args.Get(0).(Rendered)
	return r, args.Error(1)
}

type mockEnvProvider struct {
	values map[string]string
}

func (m *mockEnvProvider) Get(key string) string {
	if m.values == nil {
		return ""
	}
	return m.values[key]
}

// MockGitter is a test mock for the repo.Gitter interface. Commands succeed unless
// RunFunc says otherwise.
type MockGitter struct {
	LatestTagFunc func(dir string) (string, error)
	RunFunc       func(op string) runner.Result
}

func (m *MockGitter) result(op string) runner.Result {
	if m.RunFunc != nil {
		return m.RunFunc(op)
	}
	return runner.Result{}
}

func (m *MockGitter) LatestTag(_ context.Context, dir string) (string, error) {
	if m.LatestTagFunc != nil {
		return m.LatestTagFunc(dir)
	}
	return "v1.2.3", nil
}

func (m *MockGitter) Elevated() repo.Gitter {
	return m
}

func (m *MockGitter) SetGlobalIdentity(_ context.Context, _, _ string) runner.Result {
	return m.result("identity")
}

func (m *MockGitter) SetConfig(_ context.Context, _, _, _ string) runner.Result {
	return m.result("config")
}

func (m *MockGitter) Clone(_ context.Context, _, _ string, _ int, _ ...string) runner.Result {
	return m.result("clone")
}

func (m *MockGitter) FetchTags(_ context.Context, _ string) runner.Result {
	return m.result("fetch")
}

func (m *MockGitter) Checkout(_ context.Context, _, _ string) runner.Result {
	return m.result("checkout")
}

func (m *MockGitter) AddAll(_ context.Context, _ string) runner.Result {
	return m.result("add")
}

func (m *MockGitter) Commit(_ context.Context, _, _ string) runner.Result {
	return m.result("commit")
}

func (m *MockGitter) Pull(_ context.Context, _ string) runner.Result {
	return m.result("pull")
}

func (m *MockGitter) Push(_ context.Context, _, _, _ string) runner.Result {
	return m.result("push")
}
