package weather

import "github.com/moodroute/moodroute/internal/itinerary"

// UnknownCondition is reported when no condition rule matches.
const UnknownCondition = "Unknown"

// Extraction rules. Each field lists candidate paths in priority order and the
// first present numeric (or non-empty string) value wins; when none match the
// field is 0 or UnknownCondition. Support for a new provider schema is added by
// appending paths.
var (
	// currentContainers locate the object holding current conditions. The payload
	// root is used when none is present.
	currentContainers = []string{"current", "currently", "current_weather", "currentConditions"}

	currentRules = fieldRules{
		Temperature: []string{"temp", "temperature", "temp_c", "main.temp", "temperature.degrees"},
		Condition:   []string{"conditions.0.main", "weather.0.main", "summary", "weatherCondition.description.text"},
		Humidity:    []string{"humidity", "humidity_percent", "main.humidity", "relativeHumidity"},
		WindSpeed:   []string{"wind.speed", "wind_speed", "wind.speed.value"},
	}

	forecastRules = fieldRules{
		Temperature:   []string{"temp.day", "temp", "main.temp", "temperature", "maxTemperature.degrees", "temperature.degrees"},
		Condition:     []string{"conditions.0.main", "weather.0.main", "summary", "weatherCondition.description.text", "daytimeForecast.weatherCondition.description.text"},
		Precipitation: []string{"rain", "rain.1h", "rain.3h", "precipitation", "pop", "precipitation.qpf.quantity"},
	}

	// Forecast lists by granularity, in priority order.
	dayLists    = []string{"daily", "forecastDays"}
	seriesLists = []string{"hourly", "forecastHours", "list"}

	// timestampPaths locate an entry's time: unix seconds or RFC 3339.
	timestampPaths = []string{"dt", "time", "interval.startTime"}
)

type fieldRules struct {
	Temperature   []string
	Condition     []string
	Humidity      []string
	WindSpeed     []string
	Precipitation []string
}

// ExtractCurrent reads current conditions from a provider payload.
func ExtractCurrent(p Payload) itinerary.CurrentWeather {
	current := p
	for _, path := range currentContainers {
		if obj, ok := p.Object(path); ok {
			current = obj
			break
		}
	}

	temperature, _ := current.Number(currentRules.Temperature)
	humidity, _ := current.Number(currentRules.Humidity)
	windSpeed, _ := current.Number(currentRules.WindSpeed)

	return itinerary.CurrentWeather{
		Temperature: temperature,
		Condition:   condition(current, currentRules.Condition),
		Humidity:    humidity,
		WindSpeed:   windSpeed,
	}
}

// extractForecast reads one selected forecast entry.
func extractForecast(entry Payload) itinerary.ForecastWeather {
	temperature, _ := entry.Number(forecastRules.Temperature)
	precipitation, _ := entry.Number(forecastRules.Precipitation)

	return itinerary.ForecastWeather{
		Temperature:   temperature,
		Condition:     condition(entry, forecastRules.Condition),
		Precipitation: precipitation,
	}
}

func condition(p Payload, paths []string) string {
	if s, ok := p.String(paths); ok {
		return s
	}
	return UnknownCondition
}
