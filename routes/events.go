package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/internal/queue"
	"chatbot-vector-engine/models"
)

// Event intake: the API service posts lifecycle events here and the
// engine enqueues them for the worker. Intake only validates and
// enqueues; all heavy lifting happens off the request path.

type documentsUploadedRequest struct {
	TenantKey string            `json:"tenant_key"`
	ConfigID  string            `json:"config_id"`
	Documents []models.Document `json:"documents" binding:"required"`
}

type documentsDeletedRequest struct {
	TenantKey string   `json:"tenant_key"`
	ConfigID  string   `json:"config_id"`
	Sources   []string `json:"sources" binding:"required"`
}

type configUpdatedRequest struct {
	TenantKey string            `json:"tenant_key"`
	ConfigID  string            `json:"config_id"`
	Removed   []string          `json:"removed"`
	Added     []models.Document `json:"added"`
}

type chatbotDeletedRequest struct {
	TenantKey string `json:"tenant_key" binding:"required"`
}

// HandleDocumentsUploaded enqueues an ingestion batch.
func HandleDocumentsUploaded(queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req documentsUploadedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_payload",
				"message":    err.Error(),
			})
			return
		}
		if len(req.Documents) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "empty_batch",
				"message":    "At least one document is required",
			})
			return
		}

		task, err := queue.NewIngestTask(req.TenantKey, req.ConfigID, req.Documents)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "task_build_failed",
				"message":    "Failed to build ingestion task",
			})
			return
		}

		enqueueOrFail(c, queueClient, task, gin.H{
			"status":    "queued",
			"documents": len(req.Documents),
		})
	}
}

// HandleDocumentsDeleted enqueues a source deletion.
func HandleDocumentsDeleted(queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req documentsDeletedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_payload",
				"message":    err.Error(),
			})
			return
		}
		if len(req.Sources) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "empty_batch",
				"message":    "At least one source is required",
			})
			return
		}

		task, err := queue.NewDeleteTask(req.TenantKey, req.ConfigID, req.Sources)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "task_build_failed",
				"message":    "Failed to build deletion task",
			})
			return
		}

		enqueueOrFail(c, queueClient, task, gin.H{
			"status":  "queued",
			"sources": len(req.Sources),
		})
	}
}

// HandleConfigUpdated enqueues a config reconciliation.
func HandleConfigUpdated(queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req configUpdatedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_payload",
				"message":    err.Error(),
			})
			return
		}
		// An update with no document changes is still accepted; the worker
		// treats it as a no-op.
		task, err := queue.NewConfigUpdateTask(req.TenantKey, req.ConfigID, req.Removed, req.Added)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "task_build_failed",
				"message":    "Failed to build config update task",
			})
			return
		}

		enqueueOrFail(c, queueClient, task, gin.H{
			"status":  "queued",
			"removed": len(req.Removed),
			"added":   len(req.Added),
		})
	}
}

// HandleChatbotDeleted enqueues full tenant teardown.
func HandleChatbotDeleted(queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatbotDeletedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_payload",
				"message":    err.Error(),
			})
			return
		}

		task, err := queue.NewTenantDeleteTask(req.TenantKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "task_build_failed",
				"message":    "Failed to build tenant delete task",
			})
			return
		}

		enqueueOrFail(c, queueClient, task, gin.H{"status": "queued"})
	}
}

func enqueueOrFail(c *gin.Context, queueClient *asynq.Client, task *asynq.Task, accepted gin.H) {
	info, err := queueClient.Enqueue(task)
	if err != nil {
		logger.Error("Failed to enqueue task", "type", task.Type(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error_code": "queue_unavailable",
			"message":    "Could not enqueue the event",
		})
		return
	}

	logger.Info("Event queued", "type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	accepted["task_id"] = info.ID
	c.JSON(http.StatusAccepted, accepted)
}
