package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulead/core/lead"
)

type leadApi struct {
	svc lead.Service
}

func registerLeadAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc lead.Service) {
	api := leadApi{svc: svc}

	lg := g.Group("/leads")

	// public endpoints
	lg.POST("", api.create)
	lg.POST("/score", api.score)

	// admin endpoints
	admin := []echo.MiddlewareFunc{jwt, adminMiddleware()}
	lg.GET("", api.query, admin...)
	lg.GET("/stats", api.stats, admin...)
	lg.GET("/:id", api.retrieve, admin...)
	lg.PATCH("/:id/status", api.updateStatus, admin...)
}

// Handlers

func (api *leadApi) create(ctx echo.Context) error {
	var data lead.NewLead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLead")
	}

	l, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating lead")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *leadApi) score(ctx echo.Context) error {
	var data lead.ScoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}

	res, err := api.svc.Score(data)
	if err != nil {
		return errors.Wrap(err, "scoring lead")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *leadApi) query(ctx echo.Context) error {
	var filter lead.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	leads, err := api.svc.Filter(filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying leads")
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return ctx.JSON(http.StatusOK, leads)
}

func (api *leadApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats()
	if err != nil {
		return errors.Wrap(err, "computing lead stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *leadApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	l, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == lead.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lead by ID")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *leadApi) updateStatus(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data lead.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}

	l, err := api.svc.UpdateStatus(id, data)
	if err != nil {
		if errors.Cause(err) == lead.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lead status")
	}
	return ctx.JSON(http.StatusOK, l)
}
