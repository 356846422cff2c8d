package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type memStore struct {
	mu    sync.Mutex
	rules []core.ParsedRule
	err   error
}

func (m *memStore) CreateRule(_ context.Context, name string, conditions []core.Condition, action string) (*core.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rule := core.Rule{ID: "rule-" + name, Name: name, Action: action}
	m.rules = append(m.rules, core.ParsedRule{Rule: rule, ParsedConditions: conditions})
	return &rule, nil
}

func (m *memStore) GetAllRules(context.Context) ([]core.ParsedRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ParsedRule(nil), m.rules...), m.err
}

type memCache struct {
	mu    sync.Mutex
	rules []core.ParsedRule
	sets  int
}

func (m *memCache) SetRules(rules []core.ParsedRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = rules
	m.sets++
}

func (m *memCache) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestCreateRule(t *testing.T) {
	store, cache := &memStore{}, &memCache{}
	r := newRouter(NewHandler(store, cache))

	body := `{"name":"Angry caller","conditions":[{"word":" Refund ","operator":">","count":1}],"action":"escalate"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	var got RuleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "rule-Angry caller", got.ID)
	assert.Equal(t, []core.Condition{{Word: "refund", Operator: ">", Count: 1}}, got.Conditions)

	require.Len(t, cache.rules, 1)
	assert.Equal(t, "escalate", cache.rules[0].Action)
}

func TestCreateRule_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"no name", `{"conditions":[{"word":"help","operator":">","count":1}],"action":"escalate"}`},
		{"no conditions", `{"name":"x","action":"escalate"}`},
		{"bad operator", `{"name":"x","conditions":[{"word":"help","operator":"=~","count":1}],"action":"escalate"}`},
		{"no action", `{"name":"x","conditions":[{"word":"help","operator":">","count":1}]}`},
	}
	r := newRouter(NewHandler(&memStore{}, &memCache{}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetAllRules(t *testing.T) {
	store := &memStore{rules: []core.ParsedRule{{
		Rule:             core.Rule{ID: "r1", Name: "help", Action: core.ActionHumanHandoff},
		ParsedConditions: []core.Condition{{Word: "help", Operator: ">=", Count: 2}},
	}}}
	r := newRouter(NewHandler(store, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rules", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"r1","name":"help","conditions":[{"word":"help","operator":">=","count":2}],"action":"human_handoff"}]`, w.Body.String())

	store.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rules", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunRefresher(t *testing.T) {
	store, cache := &memStore{}, &memCache{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunRefresher(ctx, store, cache, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return cache.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestSeedDefaults(t *testing.T) {
	store := &memStore{}
	require.NoError(t, SeedDefaults(context.Background(), store))
	require.NoError(t, SeedDefaults(context.Background(), store))

	require.Len(t, store.rules, 1)
	assert.Equal(t, core.ActionHumanHandoff, store.rules[0].Action)
}
