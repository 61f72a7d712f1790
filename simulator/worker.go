// Package simulator provides a stand-in recalculation worker for local
// development and integration tests. It consumes job submissions from
// the broker and publishes the status transitions a real planning
// backend would, without doing any route optimization.
package simulator

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kverlo/fieldday/core/jobs"
	"github.com/kverlo/fieldday/infra/logger"
	"github.com/kverlo/fieldday/infra/mqtt"
)

// Config defines the simulated worker's behavior.
type Config struct {
	MQTT mqtt.Config `json:"mqtt"`
	// DelayMS is the simulated processing time per job.
	DelayMS int `json:"delay_ms"`
	// FailKinds lists job kinds that report failure instead of success.
	FailKinds []string `json:"fail_kinds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	if c.MQTT.ClientID == "fieldday" {
		c.MQTT.ClientID = "fieldday-worker-sim"
	}
	if c.DelayMS <= 0 {
		c.DelayMS = 200
	}
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Worker consumes job submissions and publishes status transitions.
type Worker struct {
	cli   paho.Client
	pub   publisher
	cfg   Config
	log   logger.Logger
	fail  map[string]bool
	delay time.Duration
}

// NewWorker connects to the broker and subscribes to the submit topic.
func NewWorker(cfg Config) (*Worker, error) {
	cfg.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	opts, err := mqtt.NewClientOptions(cfg.MQTT)
	if err != nil {
		return nil, err
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	w := newWorker(cfg, cli)
	w.cli = cli
	if token := cli.Subscribe(cfg.MQTT.SubmitTopic, cfg.MQTT.QoS, w.onSubmit); token.Wait() && token.Error() != nil {
		cli.Disconnect(100)
		return nil, token.Error()
	}
	w.log.Infof("worker simulator consuming %s", cfg.MQTT.SubmitTopic)
	return w, nil
}

func newWorker(cfg Config, pub publisher) *Worker {
	fail := make(map[string]bool, len(cfg.FailKinds))
	for _, k := range cfg.FailKinds {
		fail[k] = true
	}
	return &Worker{
		pub:   pub,
		cfg:   cfg,
		log:   logger.New("worker-sim"),
		fail:  fail,
		delay: time.Duration(cfg.DelayMS) * time.Millisecond,
	}
}

func (w *Worker) onSubmit(_ paho.Client, msg paho.Message) {
	var req jobs.Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		w.log.Warnf("malformed submission: %v", err)
		return
	}
	go w.process(req)
}

// process walks the job through running and its terminal state.
func (w *Worker) process(req jobs.Request) {
	w.publish(jobs.StatusEvent{JobID: req.ID, RouteID: req.RouteID, Kind: req.Kind, State: jobs.StateRunning})
	time.Sleep(w.delay)

	ev := jobs.StatusEvent{JobID: req.ID, RouteID: req.RouteID, Kind: req.Kind, State: jobs.StateCompleted}
	if w.fail[string(req.Kind)] {
		ev.State = jobs.StateFailed
		ev.Error = fmt.Sprintf("simulated failure for %s", req.Kind)
	}
	w.publish(ev)
}

func (w *Worker) publish(ev jobs.StatusEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		w.log.Errorf("encode status: %v", err)
		return
	}
	topic := w.statusTopic(ev.JobID.String())
	if token := w.pub.Publish(topic, w.cfg.MQTT.QoS, false, payload); token.Wait() && token.Error() != nil {
		w.log.Errorf("publish status: %v", token.Error())
	}
}

// statusTopic resolves the wildcard status topic to the job's topic.
func (w *Worker) statusTopic(jobID string) string {
	t := w.cfg.MQTT.StatusTopic
	if len(t) > 0 && t[len(t)-1] == '+' {
		return t[:len(t)-1] + jobID
	}
	return t
}

// Close disconnects from the broker.
func (w *Worker) Close() {
	if w.cli != nil {
		w.cli.Disconnect(250)
	}
}
