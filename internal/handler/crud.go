package handler

import (
	"net/http"
	"strings"

	"github.com/deppfellow/start-service/internal/middleware"
	"github.com/deppfellow/start-service/internal/model"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/deppfellow/start-service/internal/service"
	"github.com/labstack/echo/v4"
)

// CRUDHandler publishes one service as a REST resource.
type CRUDHandler struct {
	Handler
	resource service.Resource
}

func NewCRUDHandler(s *server.Server, resource service.Resource) *CRUDHandler {
	return &CRUDHandler{
		Handler:  NewHandler(s),
		resource: resource,
	}
}

// Register mounts the resource routes on g.
func (h *CRUDHandler) Register(g *echo.Group) {
	g.GET("", Handle(h.Handler, h.List, http.StatusOK, newListRequest))
	g.GET("/page", Handle(h.Handler, h.Page, http.StatusOK, newPageRequest))
	g.GET("/:id", Handle(h.Handler, h.Info, http.StatusOK, newInfoRequest))
	g.POST("", Handle(h.Handler, h.Create, http.StatusCreated, newCreateRequest))
	g.PUT("/:id", Handle(h.Handler, h.Update, http.StatusOK, newUpdateRequest))
	g.DELETE("/:ids", Handle(h.Handler, h.Remove, http.StatusOK, newRemoveRequest))
}

func (h *CRUDHandler) List(c echo.Context, req *ListRequest) ([]model.Record, error) {
	order, err := model.ParseOrder(req.Order)
	if err != nil {
		return nil, h.fail(c, err)
	}

	rows, err := h.resource.GetList(c.Request().Context(), queryFilter(c), order)
	if err != nil {
		return nil, h.fail(c, err)
	}
	return rows, nil
}

func (h *CRUDHandler) Page(c echo.Context, req *PageRequest) (*model.Page, error) {
	order, err := model.ParseOrder(req.Order)
	if err != nil {
		return nil, h.fail(c, err)
	}

	page, err := h.resource.GetPage(c.Request().Context(), queryFilter(c), order, model.PageRequest{
		Page: req.Page,
		Size: req.Size,
	})
	if err != nil {
		return nil, h.fail(c, err)
	}
	return page, nil
}

func (h *CRUDHandler) Info(c echo.Context, req *InfoRequest) (model.Record, error) {
	pk, err := h.primaryKey()
	if err != nil {
		return nil, h.fail(c, err)
	}

	rec, err := h.resource.GetInfo(c.Request().Context(), model.Filter{pk: req.ID}, splitList(req.With))
	if err != nil {
		return nil, h.fail(c, err)
	}
	return rec, nil
}

func (h *CRUDHandler) Create(c echo.Context, req *CreateRequest) (model.Record, error) {
	rec, err := h.resource.Create(c.Request().Context(), req.Data)
	if err != nil {
		return nil, h.fail(c, err)
	}
	return rec, nil
}

// Update writes the body to the record named in the path. A primary key in
// the body is replaced by the path's.
func (h *CRUDHandler) Update(c echo.Context, req *UpdateRequest) (model.Record, error) {
	pk, err := h.primaryKey()
	if err != nil {
		return nil, h.fail(c, err)
	}

	input := req.Data.Clone()
	input[pk] = req.ID

	rec, err := h.resource.Update(c.Request().Context(), input)
	if err != nil {
		return nil, h.fail(c, err)
	}
	return rec, nil
}

func (h *CRUDHandler) Remove(c echo.Context, req *RemoveRequest) (*RemoveResponse, error) {
	n, err := h.resource.Remove(c.Request().Context(), strings.TrimSpace(req.IDs))
	if err != nil {
		return nil, h.fail(c, err)
	}
	return &RemoveResponse{Deleted: n}, nil
}

func (h *CRUDHandler) primaryKey() (string, error) {
	m, err := h.resource.Model()
	if err != nil {
		return "", err
	}
	return m.PrimaryKey(), nil
}

// fail maps err for the client, logging the original when it is a server fault.
func (h *CRUDHandler) fail(c echo.Context, err error) error {
	httpErr := toHTTPError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		middleware.GetLogger(c).Error().
			Err(err).
			Str("resource", h.resource.Name()).
			Msg("resource operation failed")
	}
	return httpErr
}

// queryFilter turns the non-reserved query parameters into a filter. A
// repeated key filters by membership.
func queryFilter(c echo.Context) model.Filter {
	filter := model.Filter{}
	for key, values := range c.QueryParams() {
		if reservedQuery[key] || len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			filter[key] = values[0]
			continue
		}
		filter[key] = values
	}
	return filter
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
