package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/config"
	"github.com/smegmarip/live-recognition/internal/session"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// ErrNotConnected is returned when publishing before Connect succeeds
var ErrNotConnected = errors.New("mqtt not connected")

// MQTTEmitter publishes recognition results and session status to an MQTT
// broker
type MQTTEmitter struct {
	cfg    config.MQTTConfig
	Client mqtt.Client

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
	connected bool

	publishedTotal *prometheus.CounterVec
	errorsTotal    prometheus.Counter
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

// NewMQTTEmitter creates an emitter for cfg. Metrics are registered on reg
// when it is non-nil.
func NewMQTTEmitter(cfg config.MQTTConfig, reg prometheus.Registerer) *MQTTEmitter {
	e := &MQTTEmitter{
		cfg:       cfg,
		published: make(map[string]uint64),
	}
	if reg != nil {
		factory := promauto.With(reg)
		e.publishedTotal = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livrec_mqtt_published_total",
			Help: "Total number of MQTT messages published",
		}, []string{"topic"})
		e.errorsTotal = factory.NewCounter(prometheus.CounterOpts{
			Name: "livrec_mqtt_errors_total",
			Help: "Total number of failed MQTT publications",
		})
	}
	return e
}

// ResultsTopic is where every applied tick is published
func (e *MQTTEmitter) ResultsTopic() string {
	return e.cfg.Topic + "/results"
}

// StatusTopic holds the retained session status
func (e *MQTTEmitter) StatusTopic() string {
	return e.cfg.Topic + "/status"
}

// brokerURL adds the tcp scheme to a bare host:port
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes connection to the MQTT broker
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	if e.cfg.Username != "" {
		opts.SetUsername(e.cfg.Username)
		opts.SetPassword(e.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetWill(e.StatusTopic(), `{"status":"offline"}`, 1, true)

	opts.OnConnect = func(c mqtt.Client) {
		e.setConnected(true)
		log.Infof("MQTT connection established to %s as %s", e.cfg.Broker, e.cfg.ClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.setConnected(false)
		log.Warnf("MQTT connection lost, will auto-reconnect: %v", err)
	}

	e.Client = mqtt.NewClient(opts)
	log.Infof("Connecting to MQTT broker %s", e.cfg.Broker)

	token := e.Client.Connect()
	select {
	case <-token.Done():
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.setConnected(true)
	return nil
}

// Publish sends one applied tick outcome to the results topic
func (e *MQTTEmitter) Publish(rec session.ResultRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		e.recordError()
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return e.publish(e.ResultsTopic(), 0, false, payload)
}

// PublishStatus updates the retained session status
func (e *MQTTEmitter) PublishStatus(status session.Status) error {
	payload, err := json.Marshal(map[string]string{"status": string(status), "label": status.Label()})
	if err != nil {
		e.recordError()
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	return e.publish(e.StatusTopic(), 1, true, payload)
}

func (e *MQTTEmitter) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !e.isConnected() || e.Client == nil {
		e.recordError()
		return ErrNotConnected
	}

	token := e.Client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.recordError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.recordError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()
	if e.publishedTotal != nil {
		e.publishedTotal.WithLabelValues(topic).Inc()
	}
	log.Tracef("Published %d bytes to %s", len(payload), topic)
	return nil
}

// Watch forwards status changes from a controller listener until ctx is
// done or the channel closes
func (e *MQTTEmitter) Watch(ctx context.Context, events <-chan session.Event) {
	last := session.Status("")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != session.EventStatus || ev.Status == last {
				continue
			}
			last = ev.Status
			if err := e.PublishStatus(ev.Status); err != nil {
				log.Debugf("Failed to publish session status: %v", err)
			}
		}
	}
}

// Disconnect closes the MQTT connection
func (e *MQTTEmitter) Disconnect() {
	if e.Client != nil && e.Client.IsConnected() {
		e.Client.Disconnect(250)
		log.Info("MQTT disconnected")
	}
	e.setConnected(false)
}

// Stats returns emitter statistics
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{
		Connected: e.connected,
		Published: published,
		Errors:    e.errors,
	}
}

func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) recordError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
	if e.errorsTotal != nil {
		e.errorsTotal.Inc()
	}
}
