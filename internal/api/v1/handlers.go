// Package apiv1 is the JSON trigger surface of the sync service: manual
// sync triggers, job administration and observability snapshots. All
// orchestration lives in the sync engine; handlers only translate between
// HTTP and engine errors.
package apiv1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/chessledger/chessledger/internal/pkg/ratelimit"
	"github.com/chessledger/chessledger/internal/pkg/statistics"
	"github.com/chessledger/chessledger/internal/pkg/syncengine"
)

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer carries the dependencies of the v1 routes.
type APIServer struct {
	engine    *syncengine.Service
	scheduler *ratelimit.Scheduler
}

// NewAPIServer creates a new API server instance
func NewAPIServer(engine *syncengine.Service, scheduler *ratelimit.Scheduler) *APIServer {
	return &APIServer{engine: engine, scheduler: scheduler}
}

// RegisterHandlers binds every v1 route on the given router group.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)

	r.Post("/users/:id/sync", s.PostUserSync)
	r.Get("/users/:id/sync-status", s.GetUserSyncStatus)
	r.Post("/accounts/:id/sync", s.PostAccountSync)

	r.Post("/sync/scheduled", s.PostScheduledSync)
	r.Post("/sync/jobs/:uuid/cancel", s.PostJobCancel)
	r.Post("/sync/jobs/:uuid/retry", s.PostJobRetry)
	r.Get("/sync/limits", s.GetSyncLimits)

	r.Get("/providers/:platform/players/:username", s.GetPlayerCheck)

	r.Get("/stats", s.GetStats)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostUserSync queues background syncs for every syncable account of a
// user and acknowledges with the created jobs.
func (s *APIServer) PostUserSync(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "invalid user id")
	}

	jobs, err := s.engine.TriggerUserSync(userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errorResponse(c, fiber.StatusNotFound, "not_found", "user not found")
		case errors.Is(err, syncengine.ErrUserNotActive):
			return errorResponse(c, fiber.StatusConflict, "conflict", "user is not active")
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": fmt.Sprintf("started %d sync jobs", len(jobs)),
		"jobs":    jobs,
	})
}

// GetUserSyncStatus reports account watermarks and recent jobs for a user.
func (s *APIServer) GetUserSyncStatus(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "invalid user id")
	}

	status, err := s.engine.SyncStatus(userID, c.QueryInt("limit", 0))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
	}
	return c.JSON(status)
}

// PostAccountSync queues a background sync for one linked account.
func (s *APIServer) PostAccountSync(c *fiber.Ctx) error {
	accountID, err := parseID(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "invalid account id")
	}

	job, err := s.engine.TriggerAccountSync(accountID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errorResponse(c, fiber.StatusNotFound, "not_found", "linked account not found")
		case errors.Is(err, syncengine.ErrAccountNotSyncable):
			return errorResponse(c, fiber.StatusConflict, "conflict", "account is not syncable")
		case errors.Is(err, syncengine.ErrSyncAlreadyRunning):
			return errorResponse(c, fiber.StatusConflict, "conflict", "a sync is already running for this account")
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "sync started",
		"job":     job,
	})
}

// PostScheduledSync triggers a full sweep manually, outside the cron.
func (s *APIServer) PostScheduledSync(c *fiber.Ctx) error {
	if !s.engine.StartScheduledSync() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"started": false,
			"message": "a scheduled sync is already running",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"started": true,
		"message": "scheduled sync started",
	})
}

// PostJobCancel cancels a running sync job.
func (s *APIServer) PostJobCancel(c *fiber.Ctx) error {
	job, err := s.engine.CancelJob(c.Params("uuid"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errorResponse(c, fiber.StatusNotFound, "not_found", "sync job not found")
		case errors.Is(err, syncengine.ErrJobNotRunning):
			return errorResponse(c, fiber.StatusConflict, "conflict", "only running jobs can be cancelled")
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
		}
	}

	return c.JSON(fiber.Map{
		"message": "job cancelled",
		"job":     job,
	})
}

// PostJobRetry re-runs a failed sync job.
func (s *APIServer) PostJobRetry(c *fiber.Ctx) error {
	job, err := s.engine.RetryJob(c.Params("uuid"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errorResponse(c, fiber.StatusNotFound, "not_found", "sync job not found")
		case errors.Is(err, syncengine.ErrJobNotRetryable):
			return errorResponse(c, fiber.StatusConflict, "conflict", "job is not retryable")
		case errors.Is(err, syncengine.ErrAccountNotSyncable):
			return errorResponse(c, fiber.StatusConflict, "conflict", "account is no longer syncable")
		case errors.Is(err, syncengine.ErrSyncAlreadyRunning):
			return errorResponse(c, fiber.StatusConflict, "conflict", "a sync is already running for this account")
		default:
			return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "retry started",
		"job":     job,
	})
}

// GetSyncLimits reports the current outbound request budgets per platform.
func (s *APIServer) GetSyncLimits(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"platforms": s.scheduler.AllStats(),
	})
}

// GetPlayerCheck probes whether a username exists on a platform.
func (s *APIServer) GetPlayerCheck(c *fiber.Ctx) error {
	platform := strings.ToLower(strings.TrimSpace(c.Params("platform")))
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return errorResponse(c, fiber.StatusBadRequest, "bad_request", "username missing")
	}

	exists, err := s.engine.CheckPlayer(c.Context(), platform, username)
	if err != nil {
		if errors.Is(err, syncengine.ErrUnknownProvider) {
			return errorResponse(c, fiber.StatusBadRequest, "bad_request", fmt.Sprintf("unknown platform %q", platform))
		}
		return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
	}

	return c.JSON(fiber.Map{
		"platform": platform,
		"username": username,
		"exists":   exists,
	})
}

// GetStats returns the aggregate import statistics snapshot.
func (s *APIServer) GetStats(c *fiber.Ctx) error {
	return c.JSON(statistics.GetStatisticsData())
}

func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// parseID parses a positive numeric route parameter.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
