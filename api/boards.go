package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/access"
	"taskboard-api/board"
	"taskboard-api/domain"
)

func (h *handlers) createBoard(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var spec board.Spec
	if err := decode(c, &spec); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.Create(c.Request().Context(), spec, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, b)
}

func (h *handlers) listBoards(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	return respond(c, http.StatusOK, h.registry.ListForActor(actor))
}

func (h *handlers) getBoard(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	b, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !access.CanRead(b, actor.ID) {
		return fail(c, domain.Errf(domain.CodeBoardAccessDenied, "actor %s cannot read board %s", actor.ID, b.ID))
	}
	return respond(c, http.StatusOK, b)
}

func (h *handlers) updateBoard(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var spec board.UpdateSpec
	if err := decode(c, &spec); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.Update(c.Request().Context(), c.Param("id"), spec, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, b)
}

func (h *handlers) addColumn(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var spec board.ColumnSpec
	if err := decode(c, &spec); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.AddColumn(c.Request().Context(), c.Param("id"), spec, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, b)
}

func (h *handlers) updateColumn(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var spec board.ColumnUpdateSpec
	if err := decode(c, &spec); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.UpdateColumn(c.Request().Context(), c.Param("id"), c.Param("columnId"), spec, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, b)
}

type reorderColumnsRequest struct {
	ColumnIDs []string `json:"columnIds"`
}

func (h *handlers) reorderColumns(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req reorderColumnsRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.ReorderColumns(c.Request().Context(), c.Param("id"), req.ColumnIDs, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, b)
}

type memberRequest struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

func (h *handlers) addMember(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req memberRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.AddMember(c.Request().Context(), c.Param("id"), req.UserID, req.Role, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, b)
}

type memberRoleRequest struct {
	Role domain.Role `json:"role"`
}

func (h *handlers) updateMemberRole(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	var req memberRoleRequest
	if err := decode(c, &req); err != nil {
		return fail(c, err)
	}
	b, err := h.registry.UpdateMemberRole(c.Request().Context(), c.Param("id"), c.Param("userId"), req.Role, actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, b)
}

func (h *handlers) removeMember(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	b, err := h.registry.RemoveMember(c.Request().Context(), c.Param("id"), c.Param("userId"), actor)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, b)
}

func (h *handlers) boardTasks(c echo.Context) error {
	actor, ok, resp := h.actor(c)
	if !ok {
		return resp
	}
	boardID := c.Param("id")
	b, err := h.registry.Get(boardID)
	if err != nil {
		return fail(c, err)
	}
	if !access.CanRead(b, actor.ID) {
		return fail(c, domain.Errf(domain.CodeBoardAccessDenied, "actor %s cannot read board %s", actor.ID, boardID))
	}
	list, err := h.listings.BoardTasks(c.Request().Context(), boardID)
	if err != nil {
		return fail(c, err)
	}
	if columnID := c.QueryParam("columnId"); columnID != "" {
		filtered := make([]domain.Task, 0, len(list))
		for _, t := range list {
			if t.ColumnID == columnID {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}
	return respond(c, http.StatusOK, list)
}
