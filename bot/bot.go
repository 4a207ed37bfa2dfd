// Package bot runs the poll loop: fetch a snapshot, compare the present set
// against the one the live channel message was posted for, and either post a
// fresh image+caption or patch the caption in place. State is persisted only
// after a confirmed delivery so a restart never re-posts.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/plenumwatch/knesset-presence/model"
	"github.com/plenumwatch/knesset-presence/state"
	"github.com/plenumwatch/knesset-presence/telemetry"
)

// Source fetches attendance snapshots (for tests/mocks).
type Source interface {
	FetchSnapshot(ctx context.Context) (*model.Snapshot, error)
}

// Sink delivers messages to the channel.
type Sink interface {
	SendPhoto(ctx context.Context, photo []byte, caption string) (int64, error)
	EditCaption(ctx context.Context, messageID int64, caption string) error
}

// Renderer produces the presence image for a member list.
type Renderer interface {
	Render(ctx context.Context, members []model.Member) ([]byte, error)
}

// CaptionBuilder produces the caption text for a snapshot.
type CaptionBuilder interface {
	Caption(snap *model.Snapshot) (string, error)
}

// Outcome classifies one poll cycle.
type Outcome string

const (
	OutcomeChanged     Outcome = "changed"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeFailed      Outcome = "failed"
)

// Options are the externally configured knobs of the loop.
type Options struct {
	PollInterval time.Duration
	// MaxConsecutiveFailures is the ceiling after which Run gives up.
	MaxConsecutiveFailures int
}

// Status is a point-in-time view of the loop for the status endpoint.
type Status struct {
	LastCycle           time.Time `json:"last_cycle"`
	LastOutcome         Outcome   `json:"last_outcome"`
	PresentCount        int       `json:"present_count"`
	LastMessageID       int64     `json:"last_message_id"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Bot owns the loop state. Not safe for concurrent RunOnce calls; the loop is
// strictly sequential so none happen.
type Bot struct {
	src      Source
	sink     Sink
	renderer Renderer
	captions CaptionBuilder
	store    *state.Store
	opts     Options
	log      *slog.Logger

	st state.State

	statusMu sync.Mutex
	status   Status
}

// New builds a bot and loads its persisted state. A missing or corrupt state
// file just yields the empty state and a fresh first post.
func New(src Source, sink Sink, renderer Renderer, captions CaptionBuilder, store *state.Store, opts Options) *Bot {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = 3
	}
	b := &Bot{
		src:      src,
		sink:     sink,
		renderer: renderer,
		captions: captions,
		store:    store,
		opts:     opts,
		log:      slog.Default().With(slog.String("component", "bot")),
	}
	b.st = store.Load()
	b.status.LastMessageID = b.st.LastMessageID
	return b
}

// Status returns a copy of the current loop status.
func (b *Bot) Status() Status {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	return b.status
}

func (b *Bot) setStatus(outcome Outcome, presentCount, failures int) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.status = Status{
		LastCycle:           time.Now(),
		LastOutcome:         outcome,
		PresentCount:        presentCount,
		LastMessageID:       b.st.LastMessageID,
		ConsecutiveFailures: failures,
	}
}

// post renders the presence image and sends it with the caption, returning
// the new message id.
func (b *Bot) post(ctx context.Context, snap *model.Snapshot, caption string) (int64, error) {
	var (
		photo []byte
		err   error
	)
	telemetry.TimeFunc(telemetry.RenderDuration, func() {
		photo, err = b.renderer.Render(ctx, snap.Present())
	})
	if err != nil {
		return 0, fmt.Errorf("render presence image: %w", err)
	}
	id, err := b.sink.SendPhoto(ctx, photo, caption)
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	telemetry.PostsSent.Inc()
	return id, nil
}

// commit records a confirmed delivery: message id and the present set it was
// delivered for, persisted immediately. A failed save is logged only; the
// next successful cycle rewrites the whole record anyway.
func (b *Bot) commit(ctx context.Context, messageID int64, presentIDs map[int]struct{}) {
	b.st.LastMessageID = messageID
	b.st.PresentIDs = presentIDs
	if err := b.store.Save(b.st); err != nil {
		telemetry.LoggerWithCorr(ctx).Error("state save failed; a crash before the next save may double-post",
			slog.Any("err", err), slog.String("component", "bot"))
	}
}

// RunOnce executes a single poll cycle and reports its outcome.
func (b *Bot) RunOnce(ctx context.Context) (Outcome, error) {
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"))

	snap, err := b.src.FetchSnapshot(ctx)
	if err != nil {
		telemetry.FetchFailures.Inc()
		return OutcomeFetchFailed, fmt.Errorf("fetch snapshot: %w", err)
	}
	current := snap.PresentIDs()
	telemetry.SetPresentMembers(len(current))
	log.Info("snapshot fetched",
		slog.Int("present", len(current)), slog.Int("previous", len(b.st.PresentIDs)))

	caption, err := b.captions.Caption(snap)
	if err != nil {
		// Incoherent statistics must never reach the channel.
		return OutcomeFailed, fmt.Errorf("build caption: %w", err)
	}

	if state.Equal(current, b.st.PresentIDs) {
		if b.st.LastMessageID != 0 {
			if err := b.sink.EditCaption(ctx, b.st.LastMessageID, caption); err == nil {
				telemetry.CaptionEdits.Inc()
				log.Info("no change, caption patched", slog.Int64("message_id", b.st.LastMessageID))
				return OutcomeUnchanged, nil
			}
			telemetry.EditFallbacks.Inc()
			log.Warn("caption patch failed, falling back to a fresh post",
				slog.Int64("message_id", b.st.LastMessageID), slog.Any("err", err))
		} else {
			log.Info("no change but no live message, posting")
		}
		id, err := b.post(ctx, snap, caption)
		if err != nil {
			return OutcomeFailed, err
		}
		// The set is unchanged by definition here; commit keeps the state
		// invariant of id and set moving together.
		b.commit(ctx, id, current)
		log.Info("fallback post delivered", slog.Int64("message_id", id))
		return OutcomeUnchanged, nil
	}

	log.Info("change detected", slog.Int("present", len(current)))
	id, err := b.post(ctx, snap, caption)
	if err != nil {
		return OutcomeFailed, err
	}
	b.commit(ctx, id, current)
	log.Info("presence update posted", slog.Int64("message_id", id))
	return OutcomeChanged, nil
}

// Run executes poll cycles until ctx is cancelled or the consecutive-failure
// ceiling is hit. The first cycle runs immediately so a restart doesn't wait
// a full interval.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("presence bot starting",
		slog.Int64("last_message_id", b.st.LastMessageID),
		slog.Duration("interval", b.opts.PollInterval),
		slog.Int("max_failures", b.opts.MaxConsecutiveFailures))

	failures := 0
	cycle := func() error {
		corr := uuid.New().String()
		cctx := telemetry.WithCorrelation(ctx, corr)
		cctx, span := telemetry.StartSpan(cctx, "presence-bot", "poll-cycle")
		defer span.End()

		telemetry.Cycles.Inc()
		var (
			outcome Outcome
			err     error
		)
		telemetry.TimeFunc(telemetry.CycleDuration, func() {
			outcome, err = b.RunOnce(cctx)
		})
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		if err != nil {
			telemetry.CycleFailures.Inc()
			telemetry.RecordError(span, err)
			failures++
			b.setStatus(outcome, b.Status().PresentCount, failures)
			telemetry.LoggerWithCorr(cctx).Warn("cycle failed",
				slog.String("outcome", string(outcome)),
				slog.Int("consecutive_failures", failures),
				slog.Int("max", b.opts.MaxConsecutiveFailures),
				slog.Any("err", err))
			if failures >= b.opts.MaxConsecutiveFailures {
				return fmt.Errorf("giving up after %d consecutive failed cycles: %w", failures, err)
			}
			return nil
		}
		failures = 0
		telemetry.SetSpanSuccess(span)
		b.setStatus(outcome, len(b.st.PresentIDs), 0)
		return nil
	}

	if err := cycle(); err != nil {
		return err
	}
	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("presence bot stopped")
			return nil
		case <-ticker.C:
			if err := cycle(); err != nil {
				return err
			}
		}
	}
}
