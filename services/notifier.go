package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/storage"
)

// Notifier pushes tournament events to connected clients. *brackets.Hub
// implements it.
type Notifier interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Publish(int, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// SnapshotPublisher stores a read-only copy of a tournament's fixtures after
// each regeneration. Failures are logged, never returned.
type SnapshotPublisher interface {
	PublishFixtures(ctx context.Context, tournamentID int, matches []models.Match)
}

type noopSnapshotPublisher struct{}

func (noopSnapshotPublisher) PublishFixtures(context.Context, int, []models.Match) {}

func snapshotsOrNoop(p SnapshotPublisher) SnapshotPublisher {
	if p == nil {
		return noopSnapshotPublisher{}
	}
	return p
}

// FixtureSnapshot is the JSON document written to object storage.
type FixtureSnapshot struct {
	TournamentID int            `json:"tournament_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Matches      []models.Match `json:"matches"`
}

func SnapshotKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/fixtures.json", tournamentID)
}

type uploaderSnapshotPublisher struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewSnapshotPublisher(uploader storage.FileUploader, logger *slog.Logger) SnapshotPublisher {
	if uploader == nil {
		return noopSnapshotPublisher{}
	}
	return &uploaderSnapshotPublisher{uploader: uploader, logger: logger, now: time.Now}
}

func (p *uploaderSnapshotPublisher) PublishFixtures(ctx context.Context, tournamentID int, matches []models.Match) {
	body, err := json.Marshal(FixtureSnapshot{
		TournamentID: tournamentID,
		GeneratedAt:  p.now().UTC(),
		Matches:      matches,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode fixture snapshot", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	result, err := p.uploader.Upload(ctx, SnapshotKey(tournamentID), "application/json", bytes.NewReader(body))
	if err != nil {
		p.logger.WarnContext(ctx, "failed to publish fixture snapshot", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	p.logger.InfoContext(ctx, "fixture snapshot published",
		slog.Int("tournament_id", tournamentID),
		slog.String("location", result.Location),
		slog.Int("matches", len(matches)),
	)
}
