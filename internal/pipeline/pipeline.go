package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/burgerquest/bot/internal/exif"
	"github.com/burgerquest/bot/internal/store"
)

// maxConcurrentDownloads bounds the parallel photo downloads within one event.
const maxConcurrentDownloads = 4

// Transport is the chat-transport collaborator boundary: fetching the pending
// update window and downloading a photo to a local file.
type Transport interface {
	FetchUpdates(ctx context.Context) ([]Message, error)
	DownloadPhoto(ctx context.Context, photo PhotoSize) (string, error)
}

// Classifier is the AI collaborator boundary: one multi-modal call per
// logical event, returning validated structured meal attributes.
type Classifier interface {
	Classify(ctx context.Context, text string, imagePaths []string) (*store.Analysis, error)
}

// Summary reports the outcome of one batch pass. Skipped counts fetched
// messages that were filtered out before enrichment (wrong chat, or part of
// an already-recorded submission).
type Summary struct {
	Fetched int
	Skipped int
	Events  int
	Logged  int
	Failed  int
}

// Pipeline runs batch passes over the pending update window. A single
// Pipeline must not run concurrent passes; the store has one writer.
type Pipeline struct {
	logger     *slog.Logger
	transport  Transport
	classifier Classifier
	store      *store.Store
	chatID     int64
}

// New creates a pipeline bound to the source chat.
func New(logger *slog.Logger, transport Transport, classifier Classifier, st *store.Store, chatID int64) *Pipeline {
	return &Pipeline{
		logger:     logger.With("component", "pipeline"),
		transport:  transport,
		classifier: classifier,
		store:      st,
		chatID:     chatID,
	}
}

// Run executes one batch pass: fetch, dedupe, group, enrich, persist.
// A failure in one event is logged and skipped without affecting the others;
// the failed event's messages stay out of the store and are retried on the
// next pass. The store is saved once, after all enrichment attempts.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	msgs, err := p.transport.FetchUpdates(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch updates: %w", err)
	}

	events := GroupMessages(msgs, p.chatID, p.store.KnownIDs())

	kept := 0
	for _, ev := range events {
		kept += len(ev.Messages)
	}
	summary := Summary{Fetched: len(msgs), Skipped: len(msgs) - kept, Events: len(events)}

	for _, ev := range events {
		record, err := p.enrich(ctx, ev)
		if err != nil {
			p.logger.Warn("Event enrichment failed, skipping", "event_key", ev.Key, "error", err)
			summary.Failed++
			continue
		}

		p.store.Append(*record)
		summary.Logged++
		p.logger.Info("Meal logged", "event_key", ev.Key, "name", record.Name, "sender", record.Sender)
	}

	if err := p.store.Save(); err != nil {
		return summary, fmt.Errorf("failed to save store: %w", err)
	}

	p.logger.Info("Pass complete",
		"fetched", summary.Fetched,
		"skipped", summary.Skipped,
		"events", summary.Events,
		"logged", summary.Logged,
		"failed", summary.Failed)
	return summary, nil
}

// enrich downloads the event's photos, classifies the combined content, and
// assembles the meal record with its provenance fields.
func (p *Pipeline) enrich(ctx context.Context, ev *Event) (*store.MealRecord, error) {
	paths, err := p.downloadPhotos(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to download photos: %w", err)
	}

	analysis, err := p.classifier.Classify(ctx, ev.CombinedText(), paths)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	rep := ev.Representative()
	sender := firstName(rep.Sender)

	record := &store.MealRecord{
		Analysis:     *analysis,
		Sender:       sender,
		MsgID:        rep.ID,
		Timestamp:    rep.SentAt.Format(time.RFC3339),
		ImagePaths:   paths,
		Participants: []string{sender},
	}

	if len(paths) > 0 {
		record.ImagePath = &paths[0]
		if loc := exif.ExtractGPS(paths[0]); loc != nil {
			record.GPS = &store.GPS{Lat: loc.Lat, Lng: loc.Lng}
		}
	}

	return record, nil
}

// downloadPhotos fetches the highest-resolution variant of every photo across
// the event's member messages. Downloads run concurrently but the returned
// paths keep member-arrival order.
func (p *Pipeline) downloadPhotos(ctx context.Context, ev *Event) ([]string, error) {
	var photos []PhotoSize
	for _, m := range ev.Messages {
		if best, ok := m.BestPhoto(); ok {
			photos = append(photos, best)
		}
	}
	if len(photos) == 0 {
		return nil, nil
	}

	paths := make([]string, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for i, photo := range photos {
		g.Go(func() error {
			path, err := p.transport.DownloadPhoto(gctx, photo)
			if err != nil {
				return fmt.Errorf("photo %s: %w", photo.FileUniqueID, err)
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// firstName reduces a sender display name to its first given name, with the
// source's fallback for messages that carry no sender at all.
func firstName(displayName string) string {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "Unknown Hunter"
	}
	return fields[0]
}
