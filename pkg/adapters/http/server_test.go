package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/notify"
	"github.com/aretw0/arbor/pkg/shadow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockInspector serves a fixed snapshot.
type MockInspector struct {
	Err error
}

func (m *MockInspector) snapshot() *shadow.NodeSnapshot {
	return &shadow.NodeSnapshot{
		Element: "model", Name: "(Origin)Order", Path: "(Origin)Order", Status: "PropertyChangeSource",
		Children: []*shadow.NodeSnapshot{
			{Element: "member", Name: "Total", Path: "(Origin)Order/Total", Status: "NoObservableMembers", RuntimeType: "int"},
		},
	}
}

func (m *MockInspector) Render() (string, error) {
	return `<model name="(Origin)Order" />`, m.Err
}

func (m *MockInspector) Snapshot() (*shadow.NodeSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.snapshot(), nil
}

func (m *MockInspector) Find(path string) (*shadow.NodeSnapshot, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	var found *shadow.NodeSnapshot
	m.snapshot().Walk(func(n *shadow.NodeSnapshot, _ int) {
		if n.Path == path {
			found = n
		}
	})
	return found, found != nil, nil
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestHandler_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("arbor_notifications_total 0\n"))
	})
	h := NewHandler(&MockInspector{}, WithMetrics(metrics), WithLogger(logging.NewNop()))

	tests := []struct {
		target      string
		code        int
		contentType string
		contains    string
	}{
		{"/health", http.StatusOK, "application/json", `"status":"ok"`},
		{"/info", http.StatusOK, "application/json", `"app":"arbor-http"`},
		{"/tree", http.StatusOK, "text/plain", `<model name="(Origin)Order" />`},
		{"/tree.json", http.StatusOK, "application/json", `"path":"(Origin)Order/Total"`},
		{"/tree/mermaid?changed=(Origin)Order/Total", http.StatusOK, "text/plain", "class n1 changed;"},
		{"/node?path=(Origin)Order/Total", http.StatusOK, "application/json", `"runtime_type":"int"`},
		{"/node?path=(Origin)Order/Nope", http.StatusNotFound, "", "No node at"},
		{"/node", http.StatusBadRequest, "", "Missing path"},
		{"/metrics", http.StatusOK, "", "arbor_notifications_total"},
		{"/events", http.StatusNotFound, "", "not enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, h, tt.target)
			assert.Equal(t, tt.code, w.Code)
			if tt.contentType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			}
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestHandler_EngineClosed(t *testing.T) {
	h := NewHandler(&MockInspector{Err: domain.ErrEngineClosed}, WithLogger(logging.NewNop()))

	for _, target := range []string{"/tree", "/tree.json", "/node?path=x"} {
		w := get(t, h, target)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
	}
}

func TestHandler_Options(t *testing.T) {
	h := NewHandler(&MockInspector{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/tree", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	hub := notify.NewHub()
	server := httptest.NewServer(NewHandler(&MockInspector{}, WithHub(hub), WithLogger(logging.NewNop())))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"/events?kind=collection", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() []string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSuffix(line, "\n")
			if line == "" {
				return lines
			}
			lines = append(lines, line)
		}
	}

	assert.Equal(t, []string{"event: ping", "data: connected"}, readEvent())
	require.Equal(t, 1, hub.Len())

	hub.Broadcast(notify.Notification{Kind: notify.KindProperty, Path: "(Origin)Order/Total"})
	hub.Broadcast(notify.Notification{Kind: notify.KindCollection, Action: "add", Path: "(Origin)Order/Lines"})

	event := readEvent()
	require.Len(t, event, 2)
	assert.Equal(t, "event: collection", event[0])

	var got notify.Notification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(event[1], "data: ")), &got))
	assert.Equal(t, "(Origin)Order/Lines", got.Path)
	assert.Equal(t, "add", got.Action)

	cancel()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}
