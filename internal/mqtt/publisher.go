package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"weather-forecast/internal/forecast"
	"weather-forecast/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

type forecastMessage struct {
	City        string                  `json:"city"`
	PublishedAt time.Time               `json:"published_at"`
	Days        []forecast.DailySummary `json:"days"`
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false, topicPrefix: cfg.TopicPrefix}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

// Slug turns a city name into a single topic level.
func Slug(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	return strings.NewReplacer(" ", "_", "/", "_", "+", "_", "#", "_").Replace(city)
}

// Topic builds {prefix}/{city}/{name}.
func (p *Publisher) Topic(city, name string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, Slug(city), name)
}

func (p *Publisher) PublishCurrent(city string, current *weather.Current) error {
	if !p.enabled || current == nil {
		return nil
	}

	topics := map[string]interface{}{
		"temperature": current.Temperature,
		"humidity":    current.Humidity,
		"wind_speed":  current.WindSpeed,
		"description": current.Description,
	}

	for name, value := range topics {
		topic := p.Topic(city, name)
		token := p.client.Publish(topic, 0, false, fmt.Sprintf("%v", value))
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	payload, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal current weather: %w", err)
	}
	return p.publishRetained(p.Topic(city, "current"), payload)
}

func (p *Publisher) PublishForecast(city string, days []forecast.DailySummary) error {
	if !p.enabled {
		return nil
	}

	payload, err := json.Marshal(forecastMessage{City: city, PublishedAt: time.Now().UTC(), Days: days})
	if err != nil {
		return fmt.Errorf("failed to marshal forecast: %w", err)
	}
	return p.publishRetained(p.Topic(city, "forecast"), payload)
}

func (p *Publisher) publishRetained(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
