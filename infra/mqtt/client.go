package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kverlo/fieldday/core/jobs"
	"github.com/kverlo/fieldday/infra/logger"
	"github.com/kverlo/fieldday/internal/eventbus"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	SubmitTopic string      `json:"submit_topic"`
	StatusTopic string      `json:"status_topic"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	QoS         byte        `json:"qos"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fieldday"
	}
	if c.SubmitTopic == "" {
		c.SubmitTopic = "fieldday/jobs/submit"
	}
	if c.StatusTopic == "" {
		c.StatusTopic = "fieldday/jobs/status/+"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// pahoClient is the subset of the Paho API used by JobClient; tests
// substitute it.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// JobClient implements jobs.Client over MQTT. Submissions publish on the
// submit topic; job status updates received on the status topic fan out
// on the event bus, where the app reacts to terminal states.
type JobClient struct {
	cli     pahoClient
	cfg     Config
	bus     *eventbus.JobStatusBus
	log     logger.Logger
	backoff time.Duration
}

// NewJobClient connects to the broker and subscribes to the status topic.
func NewJobClient(cfg Config, bus *eventbus.JobStatusBus) (*JobClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt-jobs")
	jc := &JobClient{
		cfg:     cfg,
		bus:     bus,
		log:     log,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.StatusTopic, cfg.QoS, jc.onStatus); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	jc.cli = c
	return jc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (c *JobClient) onStatus(_ paho.Client, msg paho.Message) {
	var ev jobs.StatusEvent
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		c.log.Errorf("failed to decode job status: %v", err)
		return
	}
	c.log.Debugw("job status", map[string]any{
		"job_id": ev.JobID.String(),
		"kind":   string(ev.Kind),
		"state":  string(ev.State),
	})
	c.bus.Publish(ev)
}

// Submit publishes the job request, retrying with backoff on transient
// publish failures. It honors ctx for the overall attempt budget.
func (c *JobClient) Submit(ctx context.Context, req jobs.Request) (uuid.UUID, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return uuid.Nil, err
	}

	var publishErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, jobs.ErrSubmitTimeout
		}
		token := c.cli.Publish(c.cfg.SubmitTopic, c.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			c.log.Infof("submitted %s job %s", req.Kind, req.ID)
			return req.ID, nil
		}
		c.log.Warnf("publish attempt %d failed: %v", attempt+1, publishErr)
		select {
		case <-ctx.Done():
			return uuid.Nil, jobs.ErrSubmitTimeout
		case <-time.After(c.backoff):
		}
	}
	return uuid.Nil, fmt.Errorf("submit job: %w", publishErr)
}

// Close disconnects from the broker.
func (c *JobClient) Close() error {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
	return nil
}
