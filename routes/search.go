package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatbot-vector-engine/internal/tenant"
	"chatbot-vector-engine/services"
)

// HandleSearch serves the tenant-scoped retrieval path. Backend failures
// come back as an empty result set, never an error, so the chat surface
// degrades instead of breaking.
func HandleSearch(search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "missing_query",
				"message":    "Query parameter q is required",
			})
			return
		}

		topK := 5
		if raw := c.Query("top_k"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
				topK = n
			}
		}

		tn := tenant.Resolve(c.Query("tenant_key"))

		var filter map[string]string
		if source := c.Query("source"); source != "" {
			filter = map[string]string{"source": source}
		}
		results := search.Search(c.Request.Context(), tn, query, topK, filter)

		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"count":   len(results),
		})
	}
}

// HandleIndexStats reports vector counts for a tenant's index.
func HandleIndexStats(registry *services.IndexRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		tn := tenant.Resolve(c.Query("tenant_key"))

		stats, err := registry.Stats(c.Request.Context(), tn)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error_code": "index_not_found",
				"message":    "No index exists for this tenant",
			})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}
