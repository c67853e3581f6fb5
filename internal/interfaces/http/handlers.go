package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/reports"
	"github.com/culturemech/culturemech/pkg/errors"
)

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	Store *layerstore.Store
}

// Liveness always reports ok once the process can handle requests at all.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports ok once the layer store directories are reachable —
// a Scan of Layer 3 restricted to a source that cannot exist is cheap and
// still exercises the filesystem round trip.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.Store.Scan(layerstore.LayerNormalized, "__readyz__", func(layerstore.Record) error { return nil }); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecipeHandler exposes a read-only view over the layer store's corpus.
type RecipeHandler struct {
	Store *layerstore.Store
}

type recipeSummary struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Name   string `json:"name"`
}

// List returns every recipe's (source, key, name) under the requested
// layer (default normalized_yaml), optionally restricted to one source.
func (h *RecipeHandler) List(c *gin.Context) {
	layer, err := layerstore.ParseLayer(c.DefaultQuery("layer", "normalized_yaml"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	source := c.Query("source")

	var out []recipeSummary
	scanErr := h.Store.ScanRecipes(layer, source, func(key string, r *recipe.Recipe) error {
		out = append(out, recipeSummary{Source: r.Provenance.SourceDB, Key: key, Name: r.Name})
		return nil
	})
	if scanErr != nil {
		writeAppError(c, scanErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out, "count": len(out)})
}

// Get returns the full recipe at (layer, source, key).
func (h *RecipeHandler) Get(c *gin.Context) {
	layer, err := layerstore.ParseLayer(c.DefaultQuery("layer", "normalized_yaml"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	source := c.Param("source")
	key := c.Param("key")

	var found *recipe.Recipe
	scanErr := h.Store.ScanRecipes(layer, source, func(k string, r *recipe.Recipe) error {
		if k == key {
			found = r
		}
		return nil
	})
	if scanErr != nil {
		writeAppError(c, scanErr)
		return
	}
	if found == nil {
		writeAppError(c, errors.New(errors.CodeNotFound, "recipe not found: "+source+"/"+key))
		return
	}
	c.JSON(http.StatusOK, found)
}

// ReportHandler exposes the in-memory RunReport/MappingStats history.
type ReportHandler struct {
	Reports *reports.Store
}

// List returns every retained RunReport across every command.
func (h *ReportHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": h.Reports.ListRunReports()})
}

// Latest returns the most recent RunReport for the named command.
func (h *ReportHandler) Latest(c *gin.Context) {
	command := c.Param("command")
	report, ok := h.Reports.LatestRunReport(command)
	if !ok {
		writeAppError(c, errors.New(errors.CodeNotFound, "no report recorded yet for command: "+command))
		return
	}
	c.JSON(http.StatusOK, report)
}

// LatestMappingStats returns the most recent mapping cascade snapshot.
func (h *ReportHandler) LatestMappingStats(c *gin.Context) {
	ms, ok := h.Reports.LatestMappingStats()
	if !ok {
		writeAppError(c, errors.New(errors.CodeNotFound, "no mapping stats recorded yet"))
		return
	}
	c.JSON(http.StatusOK, ms)
}

func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.JSON(code.HTTPStatus(), gin.H{"error": err.Error(), "code": code.String()})
}
