package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"retail-dashboard/internal/models"
)

// ErrInvalidAction is wrapped by every error Dispatch returns.
var ErrInvalidAction = errors.New("invalid action")

type ActionType string

const (
	ChangeMetric      ActionType = "change-metric"
	ChangeCountry     ActionType = "change-country"
	ChangePriceFilter ActionType = "change-price"
	ChangeDensity     ActionType = "change-density"
	DrawSelection     ActionType = "draw-selection"
	ClearSelection    ActionType = "clear-selection"
)

// ParseActionType accepts the action names used in URLs.
func ParseActionType(s string) (ActionType, bool) {
	switch t := ActionType(s); t {
	case ChangeMetric, ChangeCountry, ChangePriceFilter, ChangeDensity, DrawSelection, ClearSelection:
		return t, true
	}
	return "", false
}

// Action is one user interaction. Only the field matching Type is read.
type Action struct {
	Type          ActionType
	Metric        Metric
	Country       string
	PriceCategory models.PriceCategory
	Density       int
	Region        Region
}

// ViewState is everything one dashboard session has chosen.
type ViewState struct {
	Filter FilterState `json:"filter"`
	Region *Region     `json:"region,omitempty"`
}

// Options constrains which states Dispatch accepts.
type Options struct {
	Catalog    *Catalog
	Countries  []string
	MaxDensity int
}

// DefaultViewState is the state of a fresh session.
func DefaultViewState(c *Catalog, density int) ViewState {
	return ViewState{
		Filter: FilterState{
			Metric:        c.Default(),
			Country:       All,
			PriceCategory: All,
			Density:       max(density, 1),
		},
	}
}

// Dispatch applies action to state and returns the resulting state. On error
// the returned state is the unchanged input.
func Dispatch(state ViewState, action Action, opts Options) (ViewState, error) {
	next := state

	switch action.Type {
	case ChangeMetric:
		if _, ok := opts.Catalog.Lookup(action.Metric); !ok {
			return state, fmt.Errorf("%w: unknown metric %q", ErrInvalidAction, action.Metric)
		}
		next.Filter.Metric = action.Metric

	case ChangeCountry:
		if action.Country != All && !slices.Contains(opts.Countries, action.Country) {
			return state, fmt.Errorf("%w: unknown country %q", ErrInvalidAction, action.Country)
		}
		next.Filter.Country = action.Country

	case ChangePriceFilter:
		if !opts.Catalog.PriceFilter() {
			return state, fmt.Errorf("%w: price filter is disabled", ErrInvalidAction)
		}
		if action.PriceCategory != All && !slices.Contains(models.PriceCategories, action.PriceCategory) {
			return state, fmt.Errorf("%w: unknown price category %q", ErrInvalidAction, action.PriceCategory)
		}
		next.Filter.PriceCategory = action.PriceCategory

	case ChangeDensity:
		if action.Density < 1 {
			return state, fmt.Errorf("%w: density must be positive, got %d", ErrInvalidAction, action.Density)
		}
		if opts.MaxDensity > 0 && action.Density > opts.MaxDensity {
			return state, fmt.Errorf("%w: density must be at most %d, got %d", ErrInvalidAction, opts.MaxDensity, action.Density)
		}
		next.Filter.Density = action.Density

	case DrawSelection:
		if !action.Region.valid() {
			return state, fmt.Errorf("%w: selection region must be finite", ErrInvalidAction)
		}
		region := action.Region.Normalize()
		if region.Empty() {
			next.Region = nil
		} else {
			next.Region = &region
		}

	case ClearSelection:
		next.Region = nil

	default:
		return state, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, action.Type)
	}

	return next, nil
}

// Validate reports whether Dispatch could have produced state under opts.
// A stored state goes stale when the catalog or the loaded countries change.
func (s ViewState) Validate(opts Options) error {
	f := s.Filter
	checks := []Action{
		{Type: ChangeMetric, Metric: f.Metric},
		{Type: ChangeCountry, Country: f.Country},
		{Type: ChangeDensity, Density: f.Density},
	}
	if f.PriceCategory != All {
		checks = append(checks, Action{Type: ChangePriceFilter, PriceCategory: f.PriceCategory})
	}
	if s.Region != nil {
		checks = append(checks, Action{Type: DrawSelection, Region: *s.Region})
	}
	for _, a := range checks {
		if _, err := Dispatch(s, a, opts); err != nil {
			return err
		}
	}
	return nil
}
