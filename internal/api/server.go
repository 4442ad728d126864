package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"weather-forecast/internal/collector"
	"weather-forecast/internal/forecast"
	"weather-forecast/internal/storage"
	"weather-forecast/internal/weather"

	"github.com/gin-gonic/gin"
)

// BrokerStatus reports whether the MQTT publisher is connected.
type BrokerStatus interface {
	IsConnected() bool
}

type Server struct {
	router    *gin.Engine
	server    *http.Server
	client    weather.Client
	favorites storage.Favorites
	collector *collector.Collector
	broker    BrokerStatus
	port      int
}

type ServerConfig struct {
	Port      int
	Client    weather.Client
	Favorites storage.Favorites
	// Collector and Broker are optional.
	Collector *collector.Collector
	Broker    BrokerStatus
}

type favoriteRequest struct {
	City string `json:"city" binding:"required"`
}

type forecastResponse struct {
	City string                  `json:"city"`
	Days []forecast.DailySummary `json:"days"`
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		client:    cfg.Client,
		favorites: cfg.Favorites,
		collector: cfg.Collector,
		broker:    cfg.Broker,
		port:      cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/weather/current", s.currentHandler)
		api.GET("/weather/forecast", s.forecastHandler)

		api.GET("/favorites", s.listFavoritesHandler)
		api.POST("/favorites", s.addFavoriteHandler)
		api.DELETE("/favorites/:city", s.removeFavoriteHandler)

		api.GET("/collector/latest", s.latestHandler)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	collecting := false
	if s.collector != nil {
		collecting = s.collector.IsCollecting()
	}
	mqttConnected := false
	if s.broker != nil {
		mqttConnected = s.broker.IsConnected()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"collecting":     collecting,
		"mqtt_connected": mqttConnected,
		"timestamp":      time.Now(),
	})
}

func (s *Server) currentHandler(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'city' parameter"})
		return
	}

	current, err := s.client.FetchCurrent(c.Request.Context(), city)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (s *Server) forecastHandler(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'city' parameter"})
		return
	}

	samples, err := s.client.FetchForecast(c.Request.Context(), city)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, forecastResponse{
		City: city,
		Days: forecast.Days(forecast.Aggregate(samples)),
	})
}

func (s *Server) listFavoritesHandler(c *gin.Context) {
	names, err := s.favorites.ListFavorites()
	if err != nil {
		log.Printf("Error reading favorites: %v", err)
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"favorites": names})
}

func (s *Server) addFavoriteHandler(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	added, err := s.favorites.AddFavorite(req.City)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"city": req.City, "added": added})
}

func (s *Server) removeFavoriteHandler(c *gin.Context) {
	city := c.Param("city")

	removed, err := s.favorites.RemoveFavorite(city)
	if err != nil {
		writeError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "City is not a favorite"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) latestHandler(c *gin.Context) {
	if s.collector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Collector is not running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": s.collector.Latest()})
}

func writeError(c *gin.Context, err error) {
	var (
		notFound  *weather.NotFoundError
		malformed *weather.MalformedResponseError
		transport *weather.TransportError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &malformed), errors.As(err, &transport):
		log.Printf("Upstream error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
