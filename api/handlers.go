package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/access"
	"taskboard-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, registry Registry, store TaskStore, listings Listings, auth Authenticator, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &handlers{registry: registry, store: store, listings: listings, auth: auth, logger: logger}

	e.GET("/healthz", h.healthz)

	e.POST("/api/boards", h.createBoard)
	e.GET("/api/boards", h.listBoards)
	e.GET("/api/boards/:id", h.getBoard)
	e.PUT("/api/boards/:id", h.updateBoard)
	e.POST("/api/boards/:id/columns", h.addColumn)
	e.PUT("/api/boards/:id/columns/reorder", h.reorderColumns)
	e.PUT("/api/boards/:id/columns/:columnId", h.updateColumn)
	e.POST("/api/boards/:id/members", h.addMember)
	e.PUT("/api/boards/:id/members/:userId", h.updateMemberRole)
	e.DELETE("/api/boards/:id/members/:userId", h.removeMember)
	e.GET("/api/boards/:id/tasks", h.boardTasks)

	e.POST("/api/tasks", h.createTask)
	e.GET("/api/tasks/:id", h.getTask)
	e.PUT("/api/tasks/:id", h.updateTask)
	e.PUT("/api/tasks/:id/move", h.moveTask)
	e.PUT("/api/tasks/:id/status", h.updateStatus)
	e.PUT("/api/tasks/:id/assign", h.assignTask)
	e.PUT("/api/tasks/:id/checklist", h.updateChecklist)
	e.POST("/api/tasks/:id/archive", h.archiveTask)
	e.GET("/api/tasks/:id/activity", h.taskActivity)
	e.POST("/api/tasks/:id/dependencies", h.addDependency)
	e.DELETE("/api/tasks/:id/dependencies", h.removeDependency)

	e.POST("/api/tasks/:id/comments", h.addComment)
	e.PUT("/api/tasks/:id/comments/:commentId", h.editComment)
	e.DELETE("/api/tasks/:id/comments/:commentId", h.deleteComment)
	e.POST("/api/tasks/:id/subtasks", h.addSubtask)
	e.PUT("/api/tasks/:id/subtasks/:subtaskId", h.updateSubtask)
	e.DELETE("/api/tasks/:id/subtasks/:subtaskId", h.deleteSubtask)
	e.POST("/api/tasks/:id/time-logs", h.addTimeEntry)
	e.GET("/api/tasks/:id/time-logs", h.listTimeEntries)
	e.DELETE("/api/tasks/:id/time-logs/:entryId", h.deleteTimeEntry)
	e.POST("/api/tasks/:id/watchers", h.addWatcher)
	e.DELETE("/api/tasks/:id/watchers/:userId", h.removeWatcher)
}

type handlers struct {
	registry Registry
	store    TaskStore
	listings Listings
	auth     Authenticator
	logger   *log.Logger
}

func (h *handlers) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// actor resolves the authenticated identity or writes a 401 response.
func (h *handlers) actor(c echo.Context) (domain.Actor, bool, error) {
	actor, err := h.auth.ActorFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return domain.Actor{}, false, c.JSON(http.StatusUnauthorized, response{
			Success: false,
			Error:   &errorBody{Code: "UNAUTHORIZED", Message: err.Error()},
		})
	}
	return actor, true, nil
}

// decode strictly parses the size-capped request body into v.
func decode(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Errf(domain.CodeValidationFailed, "invalid request body")
	}
	return nil
}

func canReadBoard(b *domain.Board, actor domain.Actor) bool {
	return access.CanRead(b, actor.ID)
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, response{Success: true, Data: data})
}

// fail maps a domain error code onto an HTTP status and writes the envelope.
func fail(c echo.Context, err error) error {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return c.JSON(codeStatus(de.Code), response{
			Success: false,
			Error:   &errorBody{Code: string(de.Code), Message: de.Message, Details: de.Details},
		})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Error:   &errorBody{Code: "INTERNAL", Message: "internal error"},
		})
	}
}

func codeStatus(code domain.Code) int {
	switch code {
	case domain.CodeBoardNotFound, domain.CodeTaskNotFound, domain.CodeCommentNotFound,
		domain.CodeSubtaskNotFound, domain.CodeTimeEntryNotFound, domain.CodeWatcherNotFound:
		return http.StatusNotFound
	case domain.CodeBoardAccessDenied, domain.CodeTaskAccessDenied:
		return http.StatusForbidden
	case domain.CodeValidationFailed, domain.CodeInvalidColumn, domain.CodeInvalidColumnSet,
		domain.CodeInvalidDependency:
		return http.StatusBadRequest
	case domain.CodeAlreadyWatching, domain.CodeConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
