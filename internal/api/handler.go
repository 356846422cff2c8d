// Package api serves escalation rule management and keeps the engine's
// rule cache in sync with the store.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type RuleStore interface {
	CreateRule(ctx context.Context, name string, conditions []core.Condition, action string) (*core.Rule, error)
	GetAllRules(ctx context.Context) ([]core.ParsedRule, error)
}

// RuleCache receives the active rule set.
type RuleCache interface {
	SetRules(rules []core.ParsedRule)
}

type Handler struct {
	store RuleStore
	cache RuleCache
}

func NewHandler(store RuleStore, cache RuleCache) *Handler {
	return &Handler{store: store, cache: cache}
}

type CreateRuleRequest struct {
	Name       string           `json:"name"`
	Conditions []core.Condition `json:"conditions"`
	Action     string           `json:"action"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RuleResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Conditions []core.Condition `json:"conditions"`
	Action     string           `json:"action"`
}

func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Action = strings.TrimSpace(req.Action)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Rule name is required"})
		return
	}
	if len(req.Conditions) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "At least one condition is required"})
		return
	}
	for i := range req.Conditions {
		req.Conditions[i].Word = strings.ToLower(strings.TrimSpace(req.Conditions[i].Word))
		if err := req.Conditions[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid condition: " + err.Error()})
			return
		}
	}
	if req.Action == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Action is required"})
		return
	}

	rule, err := h.store.CreateRule(c.Request.Context(), req.Name, req.Conditions, req.Action)
	if err != nil {
		log.Error().Err(err).Str("component", "api").Msg("failed to create rule")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create rule"})
		return
	}

	if err := Refresh(c.Request.Context(), h.store, h.cache); err != nil {
		log.Warn().Err(err).Str("component", "api").Msg("rule saved but cache refresh failed")
	}

	c.JSON(http.StatusCreated, RuleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		Conditions: req.Conditions,
		Action:     rule.Action,
	})
}

func (h *Handler) GetAllRules(c *gin.Context) {
	rules, err := h.store.GetAllRules(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("component", "api").Msg("failed to fetch rules")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch rules"})
		return
	}

	response := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		response = append(response, RuleResponse{
			ID:         rule.ID,
			Name:       rule.Name,
			Conditions: rule.ParsedConditions,
			Action:     rule.Action,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/rules", h.GetAllRules)
	r.POST("/api/rules", h.CreateRule)
}
