package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/session"
)

const cacheMaxAge = "public, max-age=300"

// Options are the dashboard settings every handler set shares.
type Options struct {
	Catalog        *pipeline.Catalog
	Sessions       *session.Manager
	Latency        *observability.LatencyRecorder
	Dims           pipeline.Dimensions
	DefaultDensity int
	MaxDensity     int
}

func (o Options) pipelineOptions(d *services.Dashboard) pipeline.Options {
	return pipeline.Options{
		Catalog:    o.Catalog,
		Countries:  d.Countries(),
		MaxDensity: o.MaxDensity,
	}
}

func (o Options) defaultState() pipeline.ViewState {
	return pipeline.DefaultViewState(o.Catalog, o.DefaultDensity)
}

// loadState returns the caller's session. A stored state that no longer
// fits the catalog or the loaded countries is replaced by the default state
// and saved back.
func (o Options) loadState(w http.ResponseWriter, r *http.Request, d *services.Dashboard, logger *slog.Logger) (string, pipeline.ViewState) {
	id, state := o.Sessions.Load(w, r)
	if err := state.Validate(o.pipelineOptions(d)); err != nil {
		requestID := observability.GetRequestID(r.Context())
		logger.Warn("resetting stale session state", "error", err, "request_id", requestID)
		state = o.defaultState()
		if err := o.Sessions.Save(r.Context(), id, state); err != nil {
			logger.Error("save session", "error", err, "request_id", requestID)
		}
	}
	return id, state
}

// actionError maps a rejected action to a validation error.
func actionError(err error) *errors.AppError {
	if stderrors.Is(err, pipeline.ErrInvalidAction) {
		return errors.ValidationWrap(err, "Invalid dashboard action").WithDetails(err.Error())
	}
	return errors.InternalWrap(err, "Failed to apply dashboard action")
}

var filterParams = []string{"metric", "country", "price", "density", "x0", "y0", "x1", "y1"}

func hasFilterParams(q url.Values) bool {
	for _, p := range filterParams {
		if q.Has(p) {
			return true
		}
	}
	return false
}

// stateFromQuery applies each filter parameter present in q to the default
// state, in the order the controls appear.
func stateFromQuery(q url.Values, opts pipeline.Options, defaults pipeline.ViewState) (pipeline.ViewState, error) {
	state := defaults
	var actions []pipeline.Action

	if q.Has("metric") {
		actions = append(actions, pipeline.Action{Type: pipeline.ChangeMetric, Metric: pipeline.Metric(q.Get("metric"))})
	}
	if q.Has("country") {
		actions = append(actions, pipeline.Action{Type: pipeline.ChangeCountry, Country: q.Get("country")})
	}
	if q.Has("price") {
		actions = append(actions, pipeline.Action{Type: pipeline.ChangePriceFilter, PriceCategory: models.PriceCategory(q.Get("price"))})
	}
	if q.Has("density") {
		density, err := strconv.Atoi(q.Get("density"))
		if err != nil {
			return state, errors.BadRequestWrap(err, "density must be an integer")
		}
		actions = append(actions, pipeline.Action{Type: pipeline.ChangeDensity, Density: density})
	}
	if q.Has("x0") || q.Has("y0") || q.Has("x1") || q.Has("y1") {
		region, err := regionFromQuery(q)
		if err != nil {
			return state, err
		}
		actions = append(actions, pipeline.Action{Type: pipeline.DrawSelection, Region: region})
	}

	for _, action := range actions {
		next, err := pipeline.Dispatch(state, action, opts)
		if err != nil {
			return state, actionError(err)
		}
		state = next
	}
	return state, nil
}

func regionFromQuery(q url.Values) (pipeline.Region, error) {
	var v [4]float64
	for i, key := range []string{"x0", "y0", "x1", "y1"} {
		f, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return pipeline.Region{}, errors.BadRequestWrap(err, fmt.Sprintf("%s must be a number", key))
		}
		v[i] = f
	}
	return pipeline.Region{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}, nil
}

// number is a JSON-safe float; missing values encode as null.
func number(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// flexInt accepts a JSON number or a numeric string, as range inputs send.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid integer %q", s)
	}
	*n = flexInt(f)
	return nil
}

func writeSVG(w http.ResponseWriter, logger *slog.Logger, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("write svg", "error", err)
	}
}
