package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	httpdto "github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/dto/http"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	codeNotFound  = "NOT_FOUND"
	codeForbidden = "FORBIDDEN"
)

type TodoController struct {
	todoService service.TodoService
}

func NewTodoController(todoService service.TodoService) *TodoController {
	return &TodoController{todoService: todoService}
}

func identityFromContext(ctx echo.Context) (service.Identity, bool) {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return service.Identity{}, false
	}
	isSuperuser, _ := ctx.Get("is_superuser").(bool)
	return service.Identity{UserID: userID, IsSuperuser: isSuperuser}, true
}

func todoResponse(todo *entity.Todo) httpdto.TodoResponse {
	resp := httpdto.TodoResponse{
		ID:        todo.ID,
		UserID:    todo.UserID,
		Title:     todo.Title,
		IsDone:    todo.IsDone,
		CreatedAt: todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	}
	if todo.Content.Valid {
		resp.Content = todo.Content.String
	}
	if todo.DueDate.Valid {
		due := todo.DueDate.Time
		resp.DueDate = &due
	}
	return resp
}

func (c *TodoController) Create(ctx echo.Context) error {
	who, ok := identityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	var req httpdto.CreateTodoRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	todo, err := c.todoService.Create(ctx.Request().Context(), who, req.Title, req.Content, dueDate)
	if err != nil {
		logrus.WithError(err).WithField("user_id", who.UserID).Error("Create todo failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	return ctx.JSON(http.StatusCreated, todoResponse(todo))
}

func (c *TodoController) Get(ctx echo.Context) error {
	who, ok := identityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	todo, err := c.todoService.Get(ctx.Request().Context(), who, id)
	if err != nil {
		return c.mapError(ctx, who.UserID, err, "Get todo failed")
	}

	return ctx.JSON(http.StatusOK, todoResponse(todo))
}

func (c *TodoController) List(ctx echo.Context) error {
	who, ok := identityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	todos, err := c.todoService.List(ctx.Request().Context(), who)
	if err != nil {
		logrus.WithError(err).WithField("user_id", who.UserID).Error("List todos failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	resp := make([]httpdto.TodoResponse, 0, len(todos))
	for i := range todos {
		resp = append(resp, todoResponse(&todos[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *TodoController) Update(ctx echo.Context) error {
	who, ok := identityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	var req httpdto.UpdateTodoRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	todo, err := c.todoService.Update(ctx.Request().Context(), who, id, req.Title, req.Content, req.IsDone, dueDate)
	if err != nil {
		return c.mapError(ctx, who.UserID, err, "Update todo failed")
	}

	return ctx.JSON(http.StatusOK, todoResponse(todo))
}

func (c *TodoController) Delete(ctx echo.Context) error {
	who, ok := identityFromContext(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	if err := c.todoService.Delete(ctx.Request().Context(), who, id); err != nil {
		return c.mapError(ctx, who.UserID, err, "Delete todo failed")
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *TodoController) mapError(ctx echo.Context, userID uint64, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: codeNotFound})
	case errors.Is(err, service.ErrForbidden):
		return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: codeForbidden})
	}
	logrus.WithError(err).WithField("user_id", userID).Error(msg)
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
