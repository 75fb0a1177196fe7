package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
	"taskboard-api/tasks"
)

func (h *handlers) createTask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.CreateInput
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.Create(c.Request().Context(), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *handlers) getTask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	b, err := h.registry.Get(t.BoardID)
	if err != nil {
		return fail(c, err)
	}
	if !canReadBoard(b, actor) {
		return fail(c, domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot access task %s", actor.ID, t.ID))
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) updateTask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.UpdateInput
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.Update(c.Request().Context(), c.Param("id"), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

type moveRequest struct {
	ColumnID string `json:"columnId"`
	Position int    `json:"position"`
}

// moveTask is the reindexing hot path; it carries the request span and
// observability event.
func (h *handlers) moveTask(c echo.Context) (err error) {
	metrics, spanCtx := newMoveRequestMetrics(c.Request().Context(), h.logger)
	if spanCtx != nil {
		c.SetRequest(c.Request().WithContext(spanCtx))
	}
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	actor, ok, resp := h.actor(c)
	if !ok {
		metrics.SetErrorStage("auth")
		err = resp
		return err
	}
	var req moveRequest
	if decodeErr := decode(c, &req); decodeErr != nil {
		metrics.SetErrorStage("decode")
		err = fail(c, decodeErr)
		return err
	}
	taskID := c.Param("id")
	metrics.SetTask(taskID, req.ColumnID, req.Position)

	t, moveErr := h.store.Move(c.Request().Context(), taskID, req.ColumnID, req.Position, actor)
	if moveErr != nil {
		metrics.SetErrorStage("store")
		err = fail(c, moveErr)
		return err
	}
	err = respond(c, http.StatusOK, t)
	return err
}

type statusRequest struct {
	Status domain.Status `json:"status"`
}

func (h *handlers) updateStatus(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req statusRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.store.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

type assignRequest struct {
	AssigneeID string `json:"assigneeId"`
}

func (h *handlers) assignTask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req assignRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.store.AssignTo(c.Request().Context(), c.Param("id"), req.AssigneeID, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

type checklistRequest struct {
	Items []domain.ChecklistItem `json:"items"`
}

func (h *handlers) updateChecklist(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req checklistRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.store.UpdateChecklist(c.Request().Context(), c.Param("id"), req.Items, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) archiveTask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.Archive(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) taskActivity(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	b, err := h.registry.Get(t.BoardID)
	if err != nil {
		return fail(c, err)
	}
	if !canReadBoard(b, actor) {
		return fail(c, domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot access task %s", actor.ID, t.ID))
	}
	entries, err := h.store.Activity(t.ID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, entries)
}

func (h *handlers) addDependency(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var dep domain.Dependency
	if err := decode(c, &dep); err != nil {
		return fail(c, err)
	}
	t, err := h.store.AddDependency(c.Request().Context(), c.Param("id"), dep, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *handlers) removeDependency(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var dep domain.Dependency
	if err := decode(c, &dep); err != nil {
		return fail(c, err)
	}
	t, err := h.store.RemoveDependency(c.Request().Context(), c.Param("id"), dep, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}
