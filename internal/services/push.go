package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/HelieAriane/Clanimo/internal/config"
	"github.com/HelieAriane/Clanimo/internal/logging"
)

// PushMessage is the payload fanned out to a user's devices.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushResult tallies one dispatch across all targeted tokens.
type PushResult struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// SendOutcome reports one token's fate. Permanent failures mean the token is
// dead at the gateway and should be pruned; transient ones are retried on the
// next dispatch naturally.
type SendOutcome struct {
	Token     string
	OK        bool
	Permanent bool
}

// Gateway delivers a message to a batch of device tokens.
type Gateway interface {
	SendMulticast(ctx context.Context, tokens []string, msg PushMessage) ([]SendOutcome, error)
}

// NewGateway selects a gateway from config. Unknown providers fall back to
// the console gateway so a misconfigured box degrades to log lines instead of
// failing delivery paths.
func NewGateway(cfg config.PushConfig, logger *logging.Logger) Gateway {
	if cfg.Provider == "fcm" && cfg.ServerKey != "" {
		return NewFCMGateway(cfg)
	}
	return &ConsoleGateway{logger: logger}
}

// FCMGateway talks to the FCM legacy HTTP endpoint with a server key.
type FCMGateway struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewFCMGateway(cfg config.PushConfig) *FCMGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FCMGateway{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Error strings the gateway returns for tokens that will never work again.
func fcmPermanentError(code string) bool {
	switch code {
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
		return true
	}
	return false
}

func (g *FCMGateway) SendMulticast(ctx context.Context, tokens []string, msg PushMessage) ([]SendOutcome, error) {
	payload, err := json.Marshal(fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:            msg.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading push response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var parsed fcmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding push response: %w", err)
	}

	outcomes := make([]SendOutcome, len(tokens))
	for i, token := range tokens {
		outcome := SendOutcome{Token: token}
		if i < len(parsed.Results) {
			r := parsed.Results[i]
			outcome.OK = r.Error == ""
			outcome.Permanent = fcmPermanentError(r.Error)
		}
		outcomes[i] = outcome
	}
	return outcomes, nil
}

// ConsoleGateway logs instead of delivering. Used in development and as the
// fallback when no provider is configured.
type ConsoleGateway struct {
	logger *logging.Logger
}

func (g *ConsoleGateway) SendMulticast(_ context.Context, tokens []string, msg PushMessage) ([]SendOutcome, error) {
	g.logger.Info("push (console)", map[string]interface{}{
		"tokens": len(tokens),
		"title":  msg.Title,
		"body":   msg.Body,
	})
	outcomes := make([]SendOutcome, len(tokens))
	for i, token := range tokens {
		outcomes[i] = SendOutcome{Token: token, OK: true}
	}
	return outcomes, nil
}

// tokenLister and tokenPruner are the slices of the device registry the push
// path needs.
type tokenLister interface {
	ListTokens(ctx context.Context, userID string) ([]string, error)
}

type tokenPruner interface {
	DeleteByTokens(ctx context.Context, tokens []string) (int64, error)
}

// PushService fans a message out to a user's registered devices and prunes
// tokens the gateway declares dead. Delivery failure is never an error to the
// caller: a push is best effort and the result is a tally, not a verdict.
type PushService struct {
	gateway Gateway
	devices interface {
		tokenLister
		tokenPruner
	}
	timeout time.Duration
	logger  *logging.Logger
}

func NewPushService(gateway Gateway, devices *DeviceService, timeout time.Duration, logger *logging.Logger) *PushService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushService{
		gateway: gateway,
		devices: devices,
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch sends msg to every device the user has registered. A user with no
// devices yields a zero tally, not an error.
func (s *PushService) Dispatch(ctx context.Context, userID string, msg PushMessage) (PushResult, error) {
	tokens, err := s.devices.ListTokens(ctx, userID)
	if err != nil {
		return PushResult{}, err
	}
	if len(tokens) == 0 {
		return PushResult{}, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcomes, err := s.gateway.SendMulticast(sendCtx, tokens, msg)
	if err != nil {
		// A gateway outage fails every token transiently. Tokens stay
		// registered for the next dispatch.
		s.logger.Warn("push gateway error", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return PushResult{Failure: len(tokens)}, nil
	}

	result := PushResult{}
	var dead []string
	for _, o := range outcomes {
		if o.OK {
			result.Success++
			continue
		}
		result.Failure++
		if o.Permanent {
			dead = append(dead, o.Token)
		}
	}

	if len(dead) > 0 {
		if _, err := s.devices.DeleteByTokens(ctx, dead); err != nil {
			s.logger.Warn("pruning dead tokens", map[string]interface{}{
				"user_id": userID,
				"count":   len(dead),
				"error":   err.Error(),
			})
		} else {
			s.logger.Info("pruned dead push tokens", map[string]interface{}{
				"user_id": userID,
				"count":   len(dead),
			})
		}
	}
	return result, nil
}

// PushQueue runs dispatches on a bounded worker pool so notification writes
// never block on the push gateway. When the queue is full the job is dropped
// and logged; push is best effort.
type PushQueue struct {
	jobs    chan pushJob
	workers int
	timeout time.Duration
	logger  *logging.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type pushJob struct {
	run func(ctx context.Context)
}

func NewPushQueue(workers, size int, timeout time.Duration, logger *logging.Logger) *PushQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PushQueue{
		jobs:    make(chan pushJob, size),
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

func (q *PushQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *PushQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		job.run(ctx)
		cancel()
	}
}

// Enqueue schedules fn on the pool. Returns false if the queue is full.
func (q *PushQueue) Enqueue(fn func(ctx context.Context)) bool {
	select {
	case q.jobs <- pushJob{run: fn}:
		return true
	default:
		q.logger.Warn("push queue full, dropping job")
		return false
	}
}

// Stop drains the queue and waits for in-flight jobs.
func (q *PushQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}
