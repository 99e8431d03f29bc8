package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler consumes sweep trigger messages. Cloud Scheduler publishes a
// site_sweep message on a cron, and operators can publish ad hoc runs.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	sweepJob         *SweepJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	SweepJob         *SweepJob
	Logger           zerolog.Logger
}

// JobMessage represents a worker job trigger.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Sites limits a site_sweep to the named sites. Empty means all.
	Sites []string `json:"sites,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		sweepJob:         cfg.SweepJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is
// cancelled or Receive returns an error.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch jobMsg.JobType {
	case "site_sweep":
		err = h.handleSiteSweep(ctx, jobMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleSiteSweep(ctx context.Context, msg JobMessage) error {
	job := h.sweepJob
	if len(msg.Sites) > 0 {
		job = h.scopedJob(msg.Sites)
	}

	result := job.Run(ctx)
	if result.Skipped {
		return nil
	}

	// Enough points must land for the sweep to count as a success.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many sweep failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

// scopedJob builds a sweep job restricted to the named sites.
func (h *PubSubHandler) scopedJob(names []string) *SweepJob {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	config := h.sweepJob.config
	var sites []SiteTarget
	for _, site := range config.Sites {
		if wanted[site.Name] {
			sites = append(sites, site)
		}
	}
	if len(sites) == 0 {
		h.logger.Warn().Strs("sites", names).Msg("no configured sites matched, sweeping all")
		return h.sweepJob
	}
	config.Sites = sites

	return NewSweepJob(SweepJobConfig{
		Config:     config,
		Logger:     h.logger,
		Weather:    h.sweepJob.weatherProvider,
		Vegetation: h.sweepJob.vegetationProvider,
		Soil:       h.sweepJob.soilProvider,
		Flags:      h.sweepJob.flags,
		Metrics:    h.sweepJob.prom,
	})
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// A single point is enough to verify upstream connectivity.
	config := SweepConfig{
		Sites: []SiteTarget{
			{
				Name:     "health-check",
				County:   "Uasin Gishu",
				Priority: 1,
				Points:   []Point{{Lat: 0.5143, Lon: 35.2698}}, // Eldoret
			},
		},
		Concurrency:  1,
		Timeout:      10 * time.Second,
		SweepWeather: true,
	}

	healthCheckJob := NewSweepJob(SweepJobConfig{
		Config:  config,
		Logger:  h.logger,
		Weather: h.sweepJob.weatherProvider,
		Flags:   h.sweepJob.flags,
	})

	result := healthCheckJob.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
