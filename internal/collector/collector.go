package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"weather-forecast/internal/forecast"
	"weather-forecast/internal/storage"
	"weather-forecast/internal/weather"
)

// Publisher receives every successful refresh.
type Publisher interface {
	PublishCurrent(city string, current *weather.Current) error
	PublishForecast(city string, days []forecast.DailySummary) error
}

// Snapshot is the latest refresh of one favorite city.
type Snapshot struct {
	City      string                  `json:"city"`
	Current   *weather.Current        `json:"current,omitempty"`
	Days      []forecast.DailySummary `json:"days,omitempty"`
	UpdatedAt time.Time               `json:"updated_at"`
	Error     string                  `json:"error,omitempty"`
}

type Collector struct {
	client    weather.Client
	favorites storage.Favorites
	publisher Publisher
	interval  time.Duration
	enabled   bool

	mu           sync.RWMutex
	order        []string
	latest       map[string]Snapshot
	isCollecting bool
}

type Config struct {
	Client    weather.Client
	Favorites storage.Favorites
	Publisher Publisher
	Interval  time.Duration
	Enabled   bool
}

func NewCollector(cfg Config) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	return &Collector{
		client:    cfg.Client,
		favorites: cfg.Favorites,
		publisher: cfg.Publisher,
		interval:  cfg.Interval,
		enabled:   cfg.Enabled,
		latest:    make(map[string]Snapshot),
	}
}

func (c *Collector) Start(ctx context.Context) error {
	if !c.enabled {
		log.Println("Collector is disabled")
		return nil
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	log.Printf("Starting collector with interval %s", c.interval)

	// Initial collection
	c.CollectOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Collector stopped")
			c.mu.Lock()
			c.isCollecting = false
			c.mu.Unlock()
			return nil
		case <-ticker.C:
			c.CollectOnce(ctx)
		}
	}
}

// CollectOnce refreshes every favorite city in turn. A failing city is
// recorded in its snapshot and does not stop the round.
func (c *Collector) CollectOnce(ctx context.Context) {
	cities, err := c.favorites.ListFavorites()
	if err != nil {
		log.Printf("Error reading favorites: %v", err)
		cities = nil
	}

	snapshots := make(map[string]Snapshot, len(cities))
	for _, city := range cities {
		if ctx.Err() != nil {
			return
		}
		snapshots[city] = c.collectCity(ctx, city)
	}

	c.mu.Lock()
	c.order = cities
	c.latest = snapshots
	c.mu.Unlock()

	log.Printf("Collected %d favorite cities", len(cities))
}

func (c *Collector) collectCity(ctx context.Context, city string) Snapshot {
	snap := Snapshot{City: city, UpdatedAt: time.Now().UTC()}

	current, err := c.client.FetchCurrent(ctx, city)
	if err != nil {
		log.Printf("Error fetching current weather for %s: %v", city, err)
		snap.Error = err.Error()
		return snap
	}
	snap.Current = current

	samples, err := c.client.FetchForecast(ctx, city)
	if err != nil {
		log.Printf("Error fetching forecast for %s: %v", city, err)
		snap.Error = err.Error()
		return snap
	}
	snap.Days = forecast.Days(forecast.Aggregate(samples))

	if c.publisher != nil {
		if err := c.publisher.PublishCurrent(city, current); err != nil {
			log.Printf("Error publishing current weather for %s: %v", city, err)
		}
		if err := c.publisher.PublishForecast(city, snap.Days); err != nil {
			log.Printf("Error publishing forecast for %s: %v", city, err)
		}
	}

	return snap
}

// Latest returns the last round's snapshots in favorites order.
func (c *Collector) Latest() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Snapshot, 0, len(c.order))
	for _, city := range c.order {
		if snap, ok := c.latest[city]; ok {
			out = append(out, snap)
		}
	}
	return out
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}
