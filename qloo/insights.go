package qloo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPlaceRadius = 1000
	defaultPlaceTake   = 25
)

// PlaceQuery describes the neighbourhood whose places should be sampled.
type PlaceQuery struct {
	Location  string
	Latitude  *float64
	Longitude *float64
	Radius    int
	Tags      []string
	Take      int
}

type approach struct {
	name string
	req  InsightsRequest
}

// approaches lists query shapes from most to least specific.
func (q PlaceQuery) approaches() []approach {
	radius := q.Radius
	if radius <= 0 {
		radius = defaultPlaceRadius
	}
	take := q.Take
	if take <= 0 {
		take = defaultPlaceTake
	}
	base := InsightsRequest{FilterType: EntityPlace, Take: take, Page: 1, SortBy: "affinity"}

	var out []approach
	if q.Latitude != nil && q.Longitude != nil {
		point := base
		point.Latitude, point.Longitude, point.Radius = q.Latitude, q.Longitude, radius
		if len(q.Tags) > 0 {
			tagged := point
			tagged.Tags = q.Tags
			out = append(out, approach{name: "point_radius_tags", req: tagged})
		}
		out = append(out, approach{name: "point_radius", req: point})
	}
	if q.Location != "" {
		byName := base
		byName.LocationQuery = q.Location
		if len(q.Tags) > 0 {
			tagged := byName
			tagged.Tags = q.Tags
			out = append(out, approach{name: "location_query_tags", req: tagged})
		}
		out = append(out, approach{name: "location_query", req: byName})
	}
	return out
}

// PlaceInsights tries each query approach once, in order, and returns the
// first non-empty result. Failed approaches are logged and skipped. An error
// is returned only when every approach failed.
func (c *Client) PlaceInsights(ctx context.Context, q PlaceQuery) ([]InsightsEntity, error) {
	ctx, span := c.tracer.Start(ctx, "Client.PlaceInsights", trace.WithAttributes(
		attribute.String("qloo.location", q.Location),
	))
	defer span.End()

	approaches := q.approaches()
	if len(approaches) == 0 {
		return nil, ErrNoLocation
	}

	var errs []error
	succeeded := false
	for _, a := range approaches {
		entities, err := c.Insights(ctx, a.req)
		if err != nil {
			slog.Warn("QLOO: Insights approach failed", "approach", a.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.name, err))
			continue
		}
		succeeded = true
		if len(entities) == 0 {
			slog.Info("QLOO: Insights approach returned no entities", "approach", a.name)
			continue
		}

		slog.Info("QLOO: Insights approach succeeded", "approach", a.name, "entities", len(entities))
		span.SetAttributes(attribute.String("qloo.approach", a.name), attribute.Int("qloo.results", len(entities)))
		return entities, nil
	}

	if !succeeded {
		err := errors.Join(errs...)
		span.SetStatus(codes.Error, "all insights approaches failed")
		span.RecordError(err)
		return nil, err
	}
	return []InsightsEntity{}, nil
}
