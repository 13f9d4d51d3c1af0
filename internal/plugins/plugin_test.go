package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/terramuse/videocheck/internal/verify"
)

// MockPlugin is a mock implementation of the Plugin interface
type MockPlugin struct {
	mock.Mock
}

func (m *MockPlugin) GetType() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlugin) Launch(ctx context.Context, opts verify.LaunchOptions) (verify.Session, error) {
	args := m.Called(ctx, opts)
	session, _ := args.Get(0).(verify.Session)
	return session, args.Error(1)
}

func TestRegistry(t *testing.T) {
	mockPlugin := new(MockPlugin)
	mockPlugin.On("GetType").Return("test-engine")

	RegisterPlugin(mockPlugin)
	t.Cleanup(func() { unregister("test-engine") })

	plugin, exists := GetPlugin("test-engine")
	assert.True(t, exists)
	assert.Equal(t, mockPlugin, plugin)
	assert.Contains(t, Names(), "test-engine")
	assert.Contains(t, GetRegisteredPlugins(), Plugin(mockPlugin))

	_, exists = GetPlugin("nonexistent")
	assert.False(t, exists)
}

func TestRegisterPlugin_DuplicatePanics(t *testing.T) {
	mockPlugin := new(MockPlugin)
	mockPlugin.On("GetType").Return("dup-engine")

	RegisterPlugin(mockPlugin)
	t.Cleanup(func() { unregister("dup-engine") })

	assert.PanicsWithValue(t, "plugin dup-engine is already registered", func() {
		RegisterPlugin(mockPlugin)
	})
}

func TestResolve(t *testing.T) {
	mockPlugin := new(MockPlugin)
	mockPlugin.On("GetType").Return("resolve-engine")

	RegisterPlugin(mockPlugin)
	t.Cleanup(func() { unregister("resolve-engine") })

	plugin, err := Resolve("resolve-engine")
	require.NoError(t, err)
	assert.Equal(t, mockPlugin, plugin)

	_, err = Resolve("netscape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown engine "netscape"`)
	assert.Contains(t, err.Error(), "resolve-engine")
}
