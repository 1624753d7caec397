package node

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	runtime := &fakeRuntime{running: map[string]bool{
		"execution": true,
		"consensus": true,
	}}
	m := testManager(t, runtime)

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.True(t, statuses[RoleExecution].Running)
	assert.Equal(t, "block 42", statuses[RoleExecution].Detail)

	assert.True(t, statuses[RoleConsensus].Running)
	assert.Equal(t, "slot 128", statuses[RoleConsensus].Detail)

	assert.False(t, statuses[RoleValidator].Running)
	assert.Empty(t, statuses[RoleValidator].Detail)
}

func TestStatusDegradesWhenMetricsUnavailable(t *testing.T) {
	runtime := &fakeRuntime{running: map[string]bool{
		"execution": true,
		"consensus": true,
	}}
	runtime.install(t)

	installExecutionMock(t, &fakeExecutionClient{err: assert.AnError})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not synced", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	m := NewManager("docker-compose.yml", "http://localhost:8545", server.URL, "")

	statuses, err := m.Status(context.Background())
	require.NoError(t, err)

	// Still reported as running, just without a metric.
	assert.True(t, statuses[RoleExecution].Running)
	assert.Empty(t, statuses[RoleExecution].Detail)
	assert.True(t, statuses[RoleConsensus].Running)
	assert.Empty(t, statuses[RoleConsensus].Detail)
}

func TestStatusRuntimeUnavailable(t *testing.T) {
	runtime := &fakeRuntime{running: map[string]bool{}, psFailed: true}
	m := testManager(t, runtime)

	_, err := m.Status(context.Background())
	assert.Error(t, err)
}

func TestConsensusHeadSlot(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		expected  string
		expectErr bool
	}{
		{
			name: "valid response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"header":{"message":{"slot":"4096"}}}}`))
			},
			expected: "4096",
		},
		{
			name: "missing slot",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":{}}`))
			},
			expectErr: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			expectErr: true,
		},
		{
			name: "malformed JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			m := NewManager("compose.yml", "http://localhost:8545", server.URL, "")
			m.HTTPClient = &http.Client{Timeout: time.Second}

			slot, err := m.consensusHeadSlot(context.Background())
			if tt.expectErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, slot)
		})
	}
}
