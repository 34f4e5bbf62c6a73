// Package coordinator decides, for every inbound batch, whether object keys are
// accumulated in the manifest or the manifest is flushed into a transfer job.
//
// Decision table, keyed by the manifest length L before the batch is applied:
//
//	manifest absent          any           write "" and continue with L = 0
//	L <  soft limit          scheduled     flush
//	L <  soft limit          notification  append keys (no keys: no-op)
//	L >= soft limit          any           flush
//
// The coordinator holds no locks. Callers must guarantee a single invocation in
// flight against a given manifest.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/jademcosta/syncbatcher/pkg/manifest"
	"github.com/jademcosta/syncbatcher/pkg/normalizer"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ManifestStore interface {
	// Read returns found == false when the manifest was never written.
	Read(ctx context.Context) (content string, found bool, err error)
	Write(ctx context.Context, content string) error
}

type TransferTrigger interface {
	Start(ctx context.Context, filterPattern string) (domain.JobHandle, error)
}

// FlushListener is told about every transfer job started. Listeners run after
// the manifest was cleared and cannot fail the invocation.
type FlushListener interface {
	OnFlush(ctx context.Context, event domain.FlushEvent)
}

type Coordinator struct {
	l                   *slog.Logger
	conf                config.CoordinatorConfig
	store               ManifestStore
	trigger             TransferTrigger
	codec               *manifest.Codec
	normalizer          *normalizer.Normalizer
	tracer              trace.Tracer
	listeners           []FlushListener
	currentTimeProvider func() time.Time
	metrics             *metricCollector
}

func New(
	l *slog.Logger, conf config.CoordinatorConfig, store ManifestStore, trigger TransferTrigger,
	norm *normalizer.Normalizer, metricRegistry *prometheus.Registry, tracer trace.Tracer,
	currentTimeProvider func() time.Time, listeners ...FlushListener,
) *Coordinator {
	return &Coordinator{
		l:                   l.With(logger.ComponentKey, "coordinator"),
		conf:                conf,
		store:               store,
		trigger:             trigger,
		codec:               manifest.NewCodec(conf.HardLimit),
		normalizer:          norm,
		tracer:              tracer,
		listeners:           listeners,
		currentTimeProvider: currentTimeProvider,
		metrics:             newMetricCollector(metricRegistry),
	}
}

// Invoke applies a batch to the manifest. Failures are returned as errors
// (*domain.TransientStoreError, *domain.TriggerSubmissionError), every other
// result is described by the Outcome.
func (c *Coordinator) Invoke(ctx context.Context, batch domain.Batch) (domain.Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.invoke",
		trace.WithAttributes(
			attribute.String("batch.kind", string(batch.Kind)),
			attribute.Int("batch.records", len(batch.Records)),
		))
	defer span.End()

	startTime := time.Now()
	outcome, err := c.invoke(ctx, batch)
	c.metrics.observeInvocation(batch.Kind, time.Since(startTime))

	if err != nil {
		c.metrics.invocationFailed(batch.Kind, failureReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.l.Error("invocation failed", logger.BatchKindKey, batch.Kind, "error", err)
		return domain.Outcome{}, err
	}

	c.metrics.invocationSucceeded(batch.Kind, outcome)
	span.SetAttributes(
		attribute.String("outcome.kind", string(outcome.Kind)),
		attribute.String("outcome.reason", outcome.Reason),
		attribute.Bool("outcome.deferred", outcome.Deferred),
	)
	c.l.Debug("invocation finished", logger.BatchKindKey, batch.Kind, "outcome", outcome.Kind,
		"reason", outcome.Reason, "keys_appended", outcome.KeysAppended,
		"tokens_flushed", outcome.TokensFlushed, "manifest_length", outcome.ManifestLength,
		"deferred", outcome.Deferred)

	return outcome, nil
}

func (c *Coordinator) invoke(ctx context.Context, batch domain.Batch) (domain.Outcome, error) {
	normalized := c.normalizer.Normalize(batch)

	raw, err := c.load(ctx)
	if err != nil {
		return domain.Outcome{}, err
	}
	c.metrics.setManifestLength(len(raw))

	if c.codec.Length(raw) >= c.conf.SoftLimit {
		outcome, err := c.flush(ctx, raw, domain.ReasonSoftLimit)
		if err != nil {
			return domain.Outcome{}, err
		}
		if normalized.Kind == domain.BatchKindNotification && len(normalized.Keys) > 0 {
			// The keys of this batch were not accumulated, the batch has to come back.
			outcome.Deferred = true
		}
		return outcome, nil
	}

	if normalized.Kind == domain.BatchKindScheduled {
		return c.flush(ctx, raw, domain.ReasonScheduled)
	}

	if len(normalized.Keys) == 0 {
		return domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonEmptyBatch, ManifestLength: len(raw)}, nil
	}

	return c.append(ctx, raw, normalized.Keys)
}

// load reads the manifest, initializing it empty when absent.
func (c *Coordinator) load(ctx context.Context) (string, error) {
	raw, found, err := c.store.Read(ctx)
	if err != nil {
		return "", &domain.TransientStoreError{Op: "read", Err: err}
	}

	if !found {
		c.l.Info("manifest not found, initializing it empty")
		err = c.store.Write(ctx, "")
		if err != nil {
			return "", &domain.TransientStoreError{Op: "initialize", Err: err}
		}
		return "", nil
	}

	return raw, nil
}

func (c *Coordinator) append(ctx context.Context, raw string, keys []string) (domain.Outcome, error) {
	tokens := c.codec.Decode(raw)
	size := 0
	for _, t := range tokens {
		size += t.EncodedLen()
	}

	appended := 0
	deferred := false
	for idx, key := range keys {
		token, err := manifest.NewToken(key)
		if err != nil {
			c.l.Warn("ignoring key that cannot be represented in the manifest", "key", key, "error", err)
			continue
		}

		if token.EncodedLen() > c.codec.HardLimit() {
			c.metrics.incOversizedKeys()
			c.l.Error("ignoring key that would not fit even an empty manifest", "key_length", len(key),
				"hard_limit", c.codec.HardLimit())
			continue
		}

		if size+token.EncodedLen() > c.codec.HardLimit() {
			deferred = true
			c.l.Warn("manifest is full, deferring the rest of the batch",
				"deferred_keys", len(keys)-idx, "manifest_length", size)
			break
		}

		tokens = append(tokens, token)
		size += token.EncodedLen()
		appended++
	}

	if appended == 0 {
		return domain.Outcome{
			Kind:           domain.OutcomeNoOp,
			Reason:         domain.ReasonEmptyBatch,
			ManifestLength: len(raw),
			Deferred:       deferred,
		}, nil
	}

	encoded, err := c.codec.Encode(tokens)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("encoding manifest: %w", err)
	}

	err = c.store.Write(ctx, encoded)
	if err != nil {
		return domain.Outcome{}, &domain.TransientStoreError{Op: "write", Err: err}
	}
	c.metrics.setManifestLength(len(encoded))
	c.metrics.addKeysAppended(appended)

	if c.conf.RecheckAfterAppend && len(encoded) >= c.conf.SoftLimit {
		outcome, err := c.flush(ctx, encoded, domain.ReasonRecheckAfterAppend)
		if err != nil {
			// The keys are persisted. Failing here would get the batch delivered
			// and appended again, the next invocation flushes instead.
			c.l.Warn("flush after append failed, keeping the appended manifest", "error", err)
			return domain.Outcome{
				Kind:           domain.OutcomeAppended,
				Reason:         domain.ReasonRecheckFlushFailed,
				KeysAppended:   appended,
				ManifestLength: len(encoded),
				Deferred:       deferred,
			}, nil
		}
		outcome.KeysAppended = appended
		outcome.Deferred = deferred
		return outcome, nil
	}

	return domain.Outcome{
		Kind:           domain.OutcomeAppended,
		KeysAppended:   appended,
		ManifestLength: len(encoded),
		Deferred:       deferred,
	}, nil
}

// flush starts one transfer job with everything in raw and clears the manifest.
// The trigger is called at most once. When it fails the manifest is untouched.
func (c *Coordinator) flush(ctx context.Context, raw string, reason string) (domain.Outcome, error) {
	tokens := c.codec.Decode(raw)
	if len(tokens) == 0 && !c.conf.FlushEmptyManifest {
		return domain.Outcome{Kind: domain.OutcomeNoOp, Reason: domain.ReasonEmptyManifest, ManifestLength: len(raw)}, nil
	}

	filterPattern := manifest.FilterPattern(tokens)
	job, err := c.trigger.Start(ctx, filterPattern)
	if err != nil {
		return domain.Outcome{}, &domain.TriggerSubmissionError{Tokens: len(tokens), Err: err}
	}
	c.l.Info("transfer job started", "job_id", job.ID, "tokens", len(tokens), "reason", reason)

	err = c.store.Write(ctx, "")
	if err != nil {
		// The job is running already. Keys left in the manifest will be
		// transferred again by the next job.
		c.l.Error("could not clear the manifest after starting a transfer job", "job_id", job.ID, "error", err)
		return domain.Outcome{}, &domain.TransientStoreError{Op: "clear", Err: err}
	}
	c.metrics.setManifestLength(0)
	c.metrics.incFlushes(reason, len(tokens))

	event := domain.FlushEvent{
		JobID:         job.ID,
		FilterPattern: filterPattern,
		Tokens:        len(tokens),
		Reason:        reason,
		FlushedAt:     c.currentTimeProvider(),
	}
	for _, listener := range c.listeners {
		listener.OnFlush(ctx, event)
	}

	return domain.Outcome{
		Kind:          domain.OutcomeFlushed,
		Reason:        reason,
		TokensFlushed: len(tokens),
		JobID:         job.ID,
	}, nil
}

// Snapshot returns the decoded current manifest without changing it.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	raw, found, err := c.store.Read(ctx)
	if err != nil {
		return Snapshot{}, &domain.TransientStoreError{Op: "read", Err: err}
	}

	snap := Snapshot{
		Found:     found,
		Length:    c.codec.Length(raw),
		SoftLimit: c.conf.SoftLimit,
		HardLimit: c.codec.HardLimit(),
	}
	for _, t := range c.codec.Decode(raw) {
		snap.Keys = append(snap.Keys, t.Key())
	}
	snap.Tokens = len(snap.Keys)

	return snap, nil
}

type Snapshot struct {
	Found     bool     `json:"found"`
	Length    int      `json:"length"`
	Tokens    int      `json:"tokens"`
	Keys      []string `json:"keys"`
	SoftLimit int      `json:"soft_limit"`
	HardLimit int      `json:"hard_limit"`
}

func failureReason(err error) string {
	var storeErr *domain.TransientStoreError
	var triggerErr *domain.TriggerSubmissionError

	switch {
	case errors.As(err, &storeErr):
		return "store"
	case errors.As(err, &triggerErr):
		return "trigger"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "context"
	default:
		return "other"
	}
}
