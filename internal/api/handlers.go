package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drivethru/internal/models"
)

const (
	defaultSearchK = 3
	maxSearchK     = 10
)

// TurnRequest is one customer utterance. A missing confidence means a
// clean transcription.
type TurnRequest struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

func (r TurnRequest) confidence() (float64, error) {
	if r.Confidence == nil {
		return 1.0, nil
	}
	if *r.Confidence < 0 || *r.Confidence > 1 {
		return 0, errors.New("confidence must be between 0 and 1")
	}
	return *r.Confidence, nil
}

// MenuSection lists one category of the menu
type MenuSection struct {
	Category models.Category      `json:"category"`
	Items    []models.CatalogItem `json:"items"`
}

func (s *Server) handleHealth(c *gin.Context) {
	diag := s.lane.Diagnostics()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": diag.State})
}

func (s *Server) handleTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	confidence, err := req.confidence()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.lane.Turn(c.Request.Context(), req.Text, confidence))
}

func (s *Server) handleOrder(c *gin.Context) {
	c.JSON(http.StatusOK, s.lane.Order())
}

func (s *Server) handleReset(c *gin.Context) {
	s.lane.Reset(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleMenu(c *gin.Context) {
	byCategory := make(map[models.Category][]models.CatalogItem)
	for _, item := range s.menu.Items() {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	sections := make([]MenuSection, 0, len(models.Categories))
	for _, category := range models.Categories {
		if items := byCategory[category]; len(items) > 0 {
			sections = append(sections, MenuSection{Category: category, Items: items})
		}
	}
	c.JSON(http.StatusOK, sections)
}

func (s *Server) handleMenuSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	k := defaultSearchK
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchK {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be an integer between 1 and 10"})
			return
		}
		k = parsed
	}

	results, err := s.menu.Search(c.Request.Context(), query, k)
	if err != nil {
		s.logger.Error("menu search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "menu search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"diagnostics":    s.lane.Diagnostics(),
		"session_log_id": s.lane.SessionLogID(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Snapshot())
}

// ScenarioInfo describes a built-in evaluation scenario
type ScenarioInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       int    `json:"steps"`
}

func (s *Server) handleListScenarios(c *gin.Context) {
	scenarios := s.evaluator.Scenarios()
	infos := make([]ScenarioInfo, 0, len(scenarios))
	for _, sc := range scenarios {
		infos = append(infos, ScenarioInfo{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Steps:       len(sc.Steps),
		})
	}
	c.JSON(http.StatusOK, infos)
}

// handleEvaluate runs a scenario against a fresh conversation. The live
// lane is untouched.
func (s *Server) handleEvaluate(c *gin.Context) {
	id := c.Param("id")
	if !s.evaluator.HasScenario(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid scenario: " + id})
		return
	}

	result, err := s.evaluator.Run(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("evaluation failed", "scenario", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
