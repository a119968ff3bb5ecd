package itinerary

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/moodroute/moodroute/internal/fanout"
)

const tracerName = "github.com/moodroute/moodroute/internal/itinerary"

// Degradation phases reported through PlannerConfig.OnDegraded.
const (
	PhaseWeather        = "weather"
	PhaseRecommendation = "recommendation"
)

// Geocoder resolves a place name to a stop.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (Location, error)
}

// Router computes the segments between consecutive stops.
type Router interface {
	Route(ctx context.Context, stops []Location, prefs *Preferences) ([]RouteSegment, error)
}

// WeatherLookup fetches current conditions and the next-day forecast for a stop.
type WeatherLookup interface {
	Lookup(ctx context.Context, loc Location) (WeatherInfo, error)
}

// SpotRecommender suggests additional stops for a mood.
type SpotRecommender interface {
	Recommend(ctx context.Context, mood string, stops []Location, current *Location) ([]RecommendedSpot, error)
}

// Degradation describes an enrichment failure that was tolerated.
type Degradation struct {
	Phase string
	// Stop is set for weather failures.
	Stop *Location
	Err  error
}

// PlannerConfig holds the collaborators of a Planner.
type PlannerConfig struct {
	Geocoder Geocoder
	Router   Router
	Weather  WeatherLookup

	// Recommender is optional; without it moods are ignored.
	Recommender SpotRecommender

	Logger zerolog.Logger

	// OnDegraded is called for every tolerated enrichment failure (optional).
	// It may be called concurrently.
	OnDegraded func(Degradation)
}

// Planner orchestrates one itinerary request. It holds no per-request state and
// is safe for concurrent use.
type Planner struct {
	geocoder    Geocoder
	router      Router
	weather     WeatherLookup
	recommender SpotRecommender
	logger      zerolog.Logger
	onDegraded  func(Degradation)
	tracer      trace.Tracer
}

// NewPlanner creates a Planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{
		geocoder:    cfg.Geocoder,
		router:      cfg.Router,
		weather:     cfg.Weather,
		recommender: cfg.Recommender,
		logger:      cfg.Logger,
		onDegraded:  cfg.OnDegraded,
		tracer:      otel.Tracer(tracerName),
	}
}

// Plan resolves the requested stops, routes between them and enriches the
// result with weather and, when a mood is given, recommendations.
//
// Geocoding and routing failures abort the call and no partial itinerary is
// returned. Weather and recommendation failures only remove the affected data.
func (p *Planner) Plan(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	if len(req.Locations) == 0 {
		return nil, InvalidInput("at least one location is required")
	}

	stops, err := p.resolveStops(ctx, req)
	if err != nil {
		return nil, err
	}

	segments, err := p.route(ctx, stops, req.Preferences)
	if err != nil {
		return nil, err
	}

	weather, spots := p.enrich(ctx, req, stops)

	resp := &RouteResponse{
		Route:   segments,
		Weather: weather,
	}
	for _, seg := range segments {
		resp.TotalDuration += seg.Duration
		resp.TotalDistance += seg.Distance
	}
	if len(spots) > 0 {
		resp.RecommendedSpots = spots
	}

	p.logger.Info().
		Int("stops", len(stops)).
		Int("segments", len(segments)).
		Int("weather", len(weather)).
		Int("recommendations", len(resp.RecommendedSpots)).
		Int("total_distance", resp.TotalDistance).
		Int("total_duration", resp.TotalDuration).
		Msg("itinerary planned")

	return resp, nil
}

// resolveStops geocodes every name concurrently and prepends the current location.
func (p *Planner) resolveStops(ctx context.Context, req RouteRequest) ([]Location, error) {
	ctx, span := p.tracer.Start(ctx, "itinerary.geocode",
		trace.WithAttributes(attribute.Int("itinerary.locations", len(req.Locations))))
	defer span.End()

	resolved, err := fanout.All(ctx, len(req.Locations), func(ctx context.Context, i int) (Location, error) {
		name := req.Locations[i]
		loc, err := p.geocoder.Resolve(ctx, name)
		if err != nil {
			p.logger.Error().Err(err).Str("location", name).Msg("failed to geocode location")
			return Location{}, NotFound("failed to find location: "+name, err)
		}
		return loc, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
		return nil, err
	}

	if req.CurrentLocation == nil {
		return resolved, nil
	}

	stops := make([]Location, 0, len(resolved)+1)
	stops = append(stops, Location{
		Name: CurrentLocationName,
		Lat:  req.CurrentLocation.Lat,
		Lng:  req.CurrentLocation.Lng,
	})
	return append(stops, resolved...), nil
}

// route computes segments over the full stop list. A single stop has no segments.
func (p *Planner) route(ctx context.Context, stops []Location, prefs *Preferences) ([]RouteSegment, error) {
	if len(stops) < 2 {
		return []RouteSegment{}, nil
	}

	ctx, span := p.tracer.Start(ctx, "itinerary.route",
		trace.WithAttributes(attribute.Int("itinerary.stops", len(stops))))
	defer span.End()

	segments, err := p.router.Route(ctx, stops, prefs)
	if err != nil {
		p.logger.Error().Err(err).Int("stops", len(stops)).Msg("failed to compute route")
		span.RecordError(err)
		span.SetStatus(codes.Error, "routing failed")
		return nil, err
	}
	return segments, nil
}

// enrich runs the weather fan-out and the recommendation call concurrently.
// Neither can fail the request.
func (p *Planner) enrich(ctx context.Context, req RouteRequest, stops []Location) ([]WeatherInfo, []RecommendedSpot) {
	ctx, span := p.tracer.Start(ctx, "itinerary.enrich")
	defer span.End()

	var (
		wg      sync.WaitGroup
		weather []WeatherInfo
		spots   []RecommendedSpot
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		weather = fanout.Settled(ctx, len(stops), func(ctx context.Context, i int) (WeatherInfo, error) {
			return p.weather.Lookup(ctx, stops[i])
		}, func(i int, err error) {
			stop := stops[i]
			p.logger.Warn().Err(err).Str("location", stop.Name).Msg("failed to get weather, omitting stop")
			p.degraded(Degradation{Phase: PhaseWeather, Stop: &stop, Err: err})
		})
	}()

	if req.Mood != "" && p.recommender != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			spots = p.recommend(ctx, req, stops)
		}()
	}

	wg.Wait()

	span.SetAttributes(
		attribute.Int("itinerary.weather", len(weather)),
		attribute.Int("itinerary.recommendations", len(spots)),
	)
	return weather, spots
}

func (p *Planner) recommend(ctx context.Context, req RouteRequest, stops []Location) []RecommendedSpot {
	var current *Location
	if req.CurrentLocation != nil {
		current = &stops[0]
	}

	spots, err := p.recommender.Recommend(ctx, req.Mood, stops, current)
	if err != nil {
		p.logger.Warn().Err(err).Str("mood", req.Mood).Msg("failed to get recommendations")
		p.degraded(Degradation{Phase: PhaseRecommendation, Err: err})
		return nil
	}
	return spots
}

func (p *Planner) degraded(d Degradation) {
	if p.onDegraded != nil {
		p.onDegraded(d)
	}
}
