package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/mapfacade"
	"github.com/UnknownOlympus/mapdriver/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces every environment variable, e.g. MAPDRIVER_PROVIDER_API_KEY.
const envPrefix = "MAPDRIVER"

// configFileEnv points at an optional YAML file read before the environment.
const configFileEnv = "MAPDRIVER_CONFIG"

// Config holds the configuration settings for the map driver.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port for the monitoring server.
// - Selector: The container selector the map is created in.
// - Provider: Geocoding provider settings.
// - Map: Options the map is created with.
// - Animation: Marker animation settings.
// - Addresses: Addresses the demo binary places on the map.
type Config struct {
	Env       string
	Port      int
	Selector  string
	Provider  ProviderConfig
	Map       mapfacade.MapOptions
	Animation AnimationConfig
	Addresses []string
}

// ProviderConfig selects and authenticates the geocoding provider.
// There is no default API key.
type ProviderConfig struct {
	Type      string // google, googlemaps or nominatim
	APIKey    string // Required by the Google providers
	RateLimit int    // Requests per second for the SDK client
}

// AnimationConfig tunes marker movement.
type AnimationConfig struct {
	Duration time.Duration // Default MoveMarker duration
	FPS      int           // Frame loop refresh rate
}

// MustLoad loads .env, an optional YAML file named by MAPDRIVER_CONFIG and
// MAPDRIVER_* environment variables, in increasing precedence. It panics on
// values that cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, ok := os.LookupEnv(configFileEnv); ok && path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file " + path)
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("provider.rate_limit"))
	if err != nil {
		panic("failed to parse provider rate limit from configuration, must be an integer")
	}

	duration, err := time.ParseDuration(v.GetString("animation.duration"))
	if err != nil {
		panic("failed to parse animation duration from configuration")
	}

	fps, err := strconv.Atoi(v.GetString("animation.fps"))
	if err != nil {
		panic("failed to parse animation fps from configuration, must be an integer")
	}

	return &Config{
		Env:      v.GetString("env"),
		Port:     port,
		Selector: v.GetString("selector"),
		Provider: ProviderConfig{
			Type:      v.GetString("provider.type"),
			APIKey:    v.GetString("provider.api_key"),
			RateLimit: rateLimit,
		},
		Map: mustMapOptions(v),
		Animation: AnimationConfig{
			Duration: duration,
			FPS:      fps,
		},
		Addresses: listValue(v.Get("demo.addresses")),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("selector", "#map")

	v.SetDefault("provider.type", "google")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_limit", "10")

	v.SetDefault("map.center_lat", strconv.FormatFloat(mapfacade.DefaultCenter.Latitude, 'f', -1, 64))
	v.SetDefault("map.center_lng", strconv.FormatFloat(mapfacade.DefaultCenter.Longitude, 'f', -1, 64))
	v.SetDefault("map.type_id", mapfacade.MapTypeRoadmap)
	v.SetDefault("map.zoom", strconv.Itoa(mapfacade.DefaultZoom))
	v.SetDefault("map.scrollwheel", "false")
	v.SetDefault("map.max_zoom", strconv.Itoa(mapfacade.DefaultMaxZoom))

	v.SetDefault("animation.duration", "1s")
	v.SetDefault("animation.fps", "60")

	v.SetDefault("demo.addresses", "")
}

func mustMapOptions(v *viper.Viper) mapfacade.MapOptions {
	lat, err := strconv.ParseFloat(v.GetString("map.center_lat"), 64)
	if err != nil {
		panic("failed to parse map center latitude from configuration")
	}
	lng, err := strconv.ParseFloat(v.GetString("map.center_lng"), 64)
	if err != nil {
		panic("failed to parse map center longitude from configuration")
	}
	zoom, err := strconv.Atoi(v.GetString("map.zoom"))
	if err != nil {
		panic("failed to parse map zoom from configuration, must be an integer")
	}
	maxZoom, err := strconv.Atoi(v.GetString("map.max_zoom"))
	if err != nil {
		panic("failed to parse map max zoom from configuration, must be an integer")
	}
	scrollwheel, err := strconv.ParseBool(v.GetString("map.scrollwheel"))
	if err != nil {
		panic("failed to parse map scrollwheel from configuration, must be a boolean")
	}

	center := models.Coordinates{Latitude: lat, Longitude: lng}

	return mapfacade.MapOptions{
		Center:      &center,
		MapTypeID:   v.GetString("map.type_id"),
		Zoom:        &zoom,
		Scrollwheel: &scrollwheel,
		MaxZoom:     &maxZoom,
	}
}

// listValue accepts a YAML sequence or a "|"-separated string. Addresses
// contain commas, so commas cannot separate them.
func listValue(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case []string:
		items = val
	case string:
		items = strings.Split(val, "|")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
