package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	opts      Options
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, opts Options, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}
}

type actionSignals struct {
	Metric  string  `json:"metric"`
	Country string  `json:"country"`
	Price   string  `json:"price"`
	Density flexInt `json:"density"`
	X0      float64 `json:"x0"`
	Y0      float64 `json:"y0"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
}

func (s actionSignals) action(t pipeline.ActionType) pipeline.Action {
	return pipeline.Action{
		Type:          t,
		Metric:        pipeline.Metric(s.Metric),
		Country:       s.Country,
		PriceCategory: models.PriceCategory(s.Price),
		Density:       int(s.Density),
		Region:        pipeline.Region{X0: s.X0, Y0: s.Y0, X1: s.X1, Y1: s.Y1},
	}
}

type trendSignals struct {
	SKU string `json:"sku"`
	All bool   `json:"all"`
}

// patch renders each component and sends it as one element patch.
func (h *SSEHandlers) patch(r *http.Request, sse *datastar.ServerSentEventGenerator, components ...templ.Component) error {
	for _, c := range components {
		html, err := templates.RenderString(r.Context(), c)
		if err != nil {
			return err
		}
		if err := sse.PatchElements(html); err != nil {
			return err
		}
	}
	return nil
}

func (h *SSEHandlers) patchSignals(sse *datastar.ServerSentEventGenerator, signals map[string]any) {
	b, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(b); err != nil {
		h.logger.Debug("patch signals", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleAction applies one user action to the session's view state and
// patches the scatter plot, selection and notes.
func (h *SSEHandlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	actionType, ok := pipeline.ParseActionType(r.PathValue("action"))
	if !ok {
		errors.Respond(w, r, h.logger, errors.NotFound("Unknown action").WithDetails(r.PathValue("action")))
		return
	}

	var signals actionSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.Respond(w, r, h.logger, errors.BadRequestWrap(err, "Invalid signals"))
		return
	}

	id, state := h.opts.loadState(w, r, h.dashboard, h.logger)

	ctx, span := observability.StartSpan(r.Context(), "pipeline.dispatch")
	span.SetTag("action", string(actionType))
	defer func() {
		span.Finish()
		h.logger.Debug("span finished", "span", span, "request_id", requestID)
	}()

	next, err := pipeline.Dispatch(state, signals.action(actionType), h.opts.pipelineOptions(h.dashboard))
	sse := datastar.NewSSE(w, r)
	if err != nil {
		span.SetError(err)
		h.logger.Warn("action rejected", "action", actionType, "error", err, "request_id", requestID)
		if err := h.patch(r, sse, templates.FlashMessage(templates.Flash{Message: actionError(err).Details})); err != nil {
			h.logger.Error("render flash", "error", err)
		}
		h.patchSignals(sse, stateSignals(state))
		flush(w)
		return
	}

	if err := h.opts.Sessions.Save(ctx, id, next); err != nil {
		h.logger.Error("save session", "error", err, "request_id", requestID)
	}

	v, err := pipeline.BuildView(h.dashboard.Products(), next, h.opts.Catalog, h.opts.Dims)
	if err != nil {
		span.SetError(err)
		h.logger.Error("build view", "error", err, "request_id", requestID)
		if err := h.patch(r, sse, templates.FlashMessage(templates.Flash{Message: "The dashboard could not be updated"})); err != nil {
			h.logger.Error("render flash", "error", err)
		}
		flush(w)
		return
	}
	span.SetTag("points", strconv.Itoa(len(v.Series)))
	span.SetTag("selected", strconv.Itoa(len(v.Selection)))

	scatter, err := scatterView(v, uuid.NewString())
	if err != nil {
		span.SetError(err)
		h.logger.Error("lay out scatter chart", "error", err, "request_id", requestID)
		if err := h.patch(r, sse, templates.FlashMessage(templates.Flash{Message: "The dashboard could not be updated"})); err != nil {
			h.logger.Error("render flash", "error", err)
		}
		flush(w)
		return
	}

	err = h.patch(r, sse,
		templates.FlashMessage(templates.Flash{}),
		templates.ControlsPanel(controlsView(h.opts.Catalog, h.dashboard.Countries(), next, h.opts.MaxDensity)),
		templates.ScatterPanel(scatter),
		templates.SelectionPanel(selectionView(v)),
		templates.NotesPanel(notesView(v.Metric)),
	)
	if err != nil {
		h.logger.Error("render dashboard fragments", "error", err, "request_id", requestID)
		return
	}
	h.patchSignals(sse, stateSignals(next))

	flush(w)
}

func (h *SSEHandlers) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	panel := templates.PredictionsPanel(predictionsView(h.dashboard.Predictions(), uuid.NewString()))
	if err := h.patch(r, sse, panel); err != nil {
		h.logger.Error("render predictions", "error", err)
		return
	}

	flush(w)
}

func (h *SSEHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	var signals trendSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.Respond(w, r, h.logger, errors.BadRequestWrap(err, "Invalid signals"))
		return
	}

	sse := datastar.NewSSE(w, r)

	skus := h.dashboard.SKUs()
	if !signals.All && signals.SKU != "" && !slices.Contains(skus, signals.SKU) {
		if err := h.patch(r, sse, templates.FlashMessage(templates.Flash{Message: "Unknown product " + signals.SKU})); err != nil {
			h.logger.Error("render flash", "error", err)
		}
		return
	}

	panel := templates.TrendPanel(trendView(skus, signals.SKU, signals.All, uuid.NewString()))
	if err := h.patch(r, sse, templates.FlashMessage(templates.Flash{}), panel); err != nil {
		h.logger.Error("render trend", "error", err)
		return
	}

	flush(w)
}

// HandleRefreshAll re-renders every panel from the session's state.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	_, state := h.opts.loadState(w, r, h.dashboard, h.logger)

	v, err := pipeline.BuildView(h.dashboard.Products(), state, h.opts.Catalog, h.opts.Dims)
	if err != nil {
		errors.Respond(w, r, h.logger, actionError(err))
		return
	}

	version := uuid.NewString()
	scatter, err := scatterView(v, version)
	if err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to lay out scatter chart"))
		return
	}

	sse := datastar.NewSSE(w, r)
	err = h.patch(r, sse,
		templates.FlashMessage(templates.Flash{}),
		templates.ControlsPanel(controlsView(h.opts.Catalog, h.dashboard.Countries(), state, h.opts.MaxDensity)),
		templates.ScatterPanel(scatter),
		templates.SelectionPanel(selectionView(v)),
		templates.NotesPanel(notesView(v.Metric)),
		templates.PredictionsPanel(predictionsView(h.dashboard.Predictions(), version)),
		templates.TrendPanel(trendView(h.dashboard.SKUs(), "", false, version)),
	)
	if err != nil {
		h.logger.Error("render dashboard fragments", "error", err)
		return
	}
	h.patchSignals(sse, stateSignals(state))

	flush(w)
}
