package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/navmatch/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/navmatch/pkg/trace"
	"go.uber.org/zap"
)

type mapMatchAPI struct {
	responder
	mapmatchingService MapMatcherService
	log                *zap.Logger
}

func New(mapmatchingService MapMatcherService, log *zap.Logger) *mapMatchAPI {
	return &mapMatchAPI{
		responder:          responder{log: log},
		mapmatchingService: mapmatchingService,
		log:                log,
	}
}

func (api *mapMatchAPI) Routes(group *helper.RouteGroup) {
	group.GET("/profiles", api.profiles)
	group.POST("/matchTrace", api.matchTrace)
}

// profiles godoc
//
//	@Summary		tuning profiles of the map matcher
//	@Tags			mapmatch
//	@Produce		json
//	@Success		200	{object}	profilesResponse
//	@Router			/profiles [get]
func (api *mapMatchAPI) profiles(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)
	if err := writeJSON(w, http.StatusOK, envelope{"data": NewProfilesResponse(api.mapmatchingService.Profiles())},
		headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// matchTrace godoc
//
//	@Summary		match a recorded trace against a route
//	@Tags			mapmatch
//	@Accept			json
//	@Produce		json
//	@Param			body	body		matchTraceRequest	true	"route and raw fixes"
//	@Success		200		{object}	matchTraceResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		500		{object}	errorResponse
//	@Router			/matchTrace [post]
func (api *mapMatchAPI) matchTrace(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request matchTraceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	if err := validateStruct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	route, err := request.Route.ToRoute()
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	locations, path, err := api.mapmatchingService.MatchTrace(route, trace.ToGPSPoints(request.Fixes))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := writeJSON(w, http.StatusOK, envelope{"data": NewMatchTraceResponse(locations, path)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
