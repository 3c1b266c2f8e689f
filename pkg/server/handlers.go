package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/codeoc/dashboard/pkg/api"
	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
	"github.com/codeoc/dashboard/pkg/filter"
	"github.com/codeoc/dashboard/pkg/snapshot"
	"github.com/codeoc/dashboard/pkg/util/param"
)

func failureResponse(w http.ResponseWriter, code int, message string) {
	api.RespondWithJSON(code, w, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

// dataset returns the current dataset or writes the error response. A
// missing or empty export is a single 503 for every endpoint.
func (s *Server) dataset(w http.ResponseWriter, req *http.Request) (*v1.Dataset, bool) {
	ds, err := s.store.Get(req.Context())
	if err != nil {
		if errors.Is(err, v1.ErrNoData) {
			failureResponse(w, http.StatusServiceUnavailable, v1.ErrNoData.Error())
			return nil, false
		}
		log.WithError(err).Error("could not load dataset")
		failureResponse(w, http.StatusBadGateway, "could not load dataset: "+err.Error())
		return nil, false
	}
	return ds, true
}

// reportOptions starts from the server defaults and applies the identity,
// free_chats, top_n, start and end query parameters. Missing range ends
// default to the login bounds of the dataset.
func (s *Server) reportOptions(req *http.Request, ds *v1.Dataset) (api.ReportOptions, error) {
	opts := s.defaults
	values := map[string]string{}
	for _, name := range []string{"identity", "free_chats", "top_n", "start", "end"} {
		value, err := param.Read(req, name)
		if err != nil {
			return opts, err
		}
		values[name] = value
	}

	if identity := values["identity"]; identity != "" {
		opts.Identity = apitype.Identity(identity)
	}
	if freeChats := values["free_chats"]; freeChats != "" {
		include, err := strconv.ParseBool(freeChats)
		if err != nil {
			return opts, errors.Wrap(err, "invalid free_chats")
		}
		opts.IncludeFreeChats = include
	}
	if topN := values["top_n"]; topN != "" {
		n, err := strconv.Atoi(topN)
		if err != nil {
			return opts, errors.Wrap(err, "invalid top_n")
		}
		opts.TopN = n
	}

	r, err := api.ParseDateRange(values["start"], values["end"], api.LoginDateBounds(ds.Users))
	if err != nil {
		return opts, err
	}
	if r != nil {
		opts.Range = r
	}
	return opts, nil
}

func (s *Server) jsonHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
		"loaded": false,
	}
	if ds := s.store.Current(); ds != nil {
		health["loaded"] = true
		health["data_loaded_at"] = ds.LoadedAt
		health["warnings"] = len(ds.Warnings)
	}
	api.RespondWithJSON(http.StatusOK, w, health)
}

func (s *Server) jsonGlobalStats(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	opts, err := s.reportOptions(req, ds)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, api.ComputeGlobalStats(ds, api.GlobalOptions{
		IncludeFreeChats: opts.IncludeFreeChats,
		Identity:         opts.Identity,
	}))
}

func (s *Server) jsonSatisfaction(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	api.RespondWithJSON(http.StatusOK, w, api.ComputeSatisfaction(ds.Conversations))
}

func (s *Server) jsonDTCs(w http.ResponseWriter, req *http.Request) {
	s.frequencyTable(w, req, api.CountDTCs)
}

func (s *Server) jsonInternalErrorCodes(w http.ResponseWriter, req *http.Request) {
	s.frequencyTable(w, req, api.CountInternalErrorCodes)
}

func (s *Server) jsonManufacturers(w http.ResponseWriter, req *http.Request) {
	s.frequencyTable(w, req, api.CountManufacturers)
}

func (s *Server) frequencyTable(w http.ResponseWriter, req *http.Request, count func([]v1.JoinedConversation, int) []apitype.FrequencyRow) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	respondWithTable(w, req, count(ds.Conversations, 0))
}

func (s *Server) jsonModels(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	respondWithTable(w, req, api.CountModels(ds.Conversations, 0))
}

func (s *Server) jsonWorkshops(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	respondWithTable(w, req, api.WorkshopBreakdown(ds.Conversations))
}

// respondWithTable applies the filter, sortField, sort and limit query
// parameters to an aggregate table. Without a sortField the aggregate order
// is kept.
func respondWithTable[T filter.Filterable](w http.ResponseWriter, req *http.Request, rows []T) {
	rows, err := filterTable(req, rows)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, rows)
}

func filterTable[T filter.Filterable](req *http.Request, rows []T) ([]T, error) {
	filterOpts, err := filter.FilterOptionsFromRequest(req, "", apitype.SortDescending)
	if err != nil {
		return nil, err
	}
	return filter.Apply(rows, filterOpts)
}

type mostActiveResponse struct {
	Rows  []apitype.UserActivity `json:"rows"`
	Error string                 `json:"error,omitempty"`
}

// jsonMostActiveUsers answers 200 with an error field and the unfiltered rows
// when the date range is inverted.
func (s *Server) jsonMostActiveUsers(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	opts, err := s.reportOptions(req, ds)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	response := mostActiveResponse{}
	rows, err := api.MostActiveUsers(ds, api.ActivityOptions{
		Identity: opts.Identity,
		Range:    opts.Range,
	})
	if err != nil {
		var rangeErr *v1.InvalidRangeError
		if !errors.As(err, &rangeErr) {
			failureResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		response.Error = err.Error()
	}

	response.Rows, err = filterTable(req, rows)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, response)
}

func (s *Server) jsonLoginHistory(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	id := mux.Vars(req)["id"]
	for _, u := range ds.Users {
		if u.UserID == id {
			api.RespondWithJSON(http.StatusOK, w, api.FormatLoginHistory(u.LoginHistory))
			return
		}
	}
	failureResponse(w, http.StatusNotFound, (&v1.LookupError{Level: v1.LevelUser, ID: id}).Error())
}

func (s *Server) jsonReport(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	opts, err := s.reportOptions(req, ds)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	forceRefresh, _ := strconv.ParseBool(param.SafeRead(req, "forceRefresh"))
	report, err := api.CachedReport(req.Context(), s.cache, ds, opts, forceRefresh)
	if err != nil {
		if errors.Is(err, v1.ErrNoData) {
			failureResponse(w, http.StatusServiceUnavailable, v1.ErrNoData.Error())
			return
		}
		log.WithError(err).Error("could not build report")
		failureResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, report)
}

func (s *Server) jsonCompanies(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	api.RespondWithJSON(http.StatusOK, w, api.Companies(ds))
}

type drillDownResponse struct {
	apitype.DrillDown
	Error string `json:"error,omitempty"`
}

// jsonDrillDown answers 404 together with the levels that did resolve when a
// selection is unknown. The selected user's chat list takes the table
// query parameters.
func (s *Server) jsonDrillDown(w http.ResponseWriter, req *http.Request) {
	ds, ok := s.dataset(w, req)
	if !ok {
		return
	}
	query := req.URL.Query()
	view, err := api.ResolveDrillDown(ds, api.Selection{
		Company: query.Get("company"),
		UserID:  query.Get("user"),
		ChatID:  query.Get("chat"),
	})
	if view.User != nil {
		chats, filterErr := filterTable(req, view.User.Chats)
		if filterErr != nil {
			failureResponse(w, http.StatusBadRequest, filterErr.Error())
			return
		}
		view.User.Chats = chats
	}
	if err != nil {
		var lookupErr *v1.LookupError
		switch {
		case errors.As(err, &lookupErr):
			api.RespondWithJSON(http.StatusNotFound, w, drillDownResponse{DrillDown: view, Error: err.Error()})
		case errors.Is(err, v1.ErrNoData):
			failureResponse(w, http.StatusServiceUnavailable, err.Error())
		default:
			failureResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	api.RespondWithJSON(http.StatusOK, w, drillDownResponse{DrillDown: view})
}

func (s *Server) refresh(w http.ResponseWriter, req *http.Request) {
	ds, err := s.store.Refresh(req.Context())
	if err != nil {
		if errors.Is(err, v1.ErrNoData) {
			failureResponse(w, http.StatusServiceUnavailable, v1.ErrNoData.Error())
			return
		}
		log.WithError(err).Error("refresh failed")
		failureResponse(w, http.StatusBadGateway, "refresh failed: "+err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, map[string]interface{}{
		"data_loaded_at": ds.LoadedAt,
		"chats":          len(ds.Conversations),
		"users":          len(ds.Users),
	})
}

func (s *Server) jsonSnapshots(w http.ResponseWriter, req *http.Request) {
	if s.db == nil {
		failureResponse(w, http.StatusNotFound, "snapshots are not enabled")
		return
	}
	filterOpts, err := filter.FilterOptionsFromRequest(req, "", apitype.SortDescending)
	if err != nil {
		failureResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshots, err := snapshot.List(s.db, filterOpts)
	if err != nil {
		log.WithError(err).Error("could not list snapshots")
		failureResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, snapshots)
}

func (s *Server) jsonSnapshot(w http.ResponseWriter, req *http.Request) {
	if s.db == nil {
		failureResponse(w, http.StatusNotFound, "snapshots are not enabled")
		return
	}
	name := mux.Vars(req)["name"]
	snap, err := snapshot.Get(s.db, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			failureResponse(w, http.StatusNotFound, fmt.Sprintf("snapshot %q not found", name))
			return
		}
		failureResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	report, err := snapshot.Report(*snap)
	if err != nil {
		failureResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.RespondWithJSON(http.StatusOK, w, report)
}
