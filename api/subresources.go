package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
	"taskboard-api/tasks"
)

func (h *handlers) addComment(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.CommentInput
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.AddComment(c.Request().Context(), c.Param("id"), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

type editCommentRequest struct {
	Content string `json:"content"`
}

func (h *handlers) editComment(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req editCommentRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.store.EditComment(c.Request().Context(), c.Param("id"), c.Param("commentId"), req.Content, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) deleteComment(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.DeleteComment(c.Request().Context(), c.Param("id"), c.Param("commentId"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) addSubtask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.SubtaskInput
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.AddSubtask(c.Request().Context(), c.Param("id"), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *handlers) updateSubtask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.SubtaskUpdate
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.UpdateSubtask(c.Request().Context(), c.Param("id"), c.Param("subtaskId"), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) deleteSubtask(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.DeleteSubtask(c.Request().Context(), c.Param("id"), c.Param("subtaskId"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

func (h *handlers) addTimeEntry(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var in tasks.TimeEntryInput
	if err := decode(c, &in); err != nil {
		return fail(c, err)
	}
	t, err := h.store.AddTimeEntry(c.Request().Context(), c.Param("id"), in, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *handlers) listTimeEntries(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	entries, err := h.store.TimeEntries(c.Param("id"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, entries)
}

func (h *handlers) deleteTimeEntry(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	t, err := h.store.DeleteTimeEntry(c.Request().Context(), c.Param("id"), c.Param("entryId"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}

type watcherRequest struct {
	UserID string           `json:"userId"`
	Kind   domain.ActorKind `json:"kind,omitempty"`
}

func (h *handlers) addWatcher(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req watcherRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	if req.UserID == "" {
		req.UserID = actor.ID
		req.Kind = actor.Kind
	}
	t, err := h.store.AddWatcher(c.Request().Context(), c.Param("id"), req.UserID, req.Kind, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, t)
}

func (h *handlers) removeWatcher(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	kind := domain.ActorKind(c.QueryParam("kind"))
	t, err := h.store.RemoveWatcher(c.Request().Context(), c.Param("id"), c.Param("userId"), kind, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, t)
}
