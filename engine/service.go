package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingokit/core"
	"lingokit/leaderboard"
)

const defaultAwardRetries = 3

// Service wires storage, the user directory, the event bus, and the scoring
// policy into the points engine API.
type Service struct {
	storage Storage
	users   UserDirectory
	bus     *EventBus
	policy  core.Policy
	board   leaderboard.Board
	retries int
	now     func() time.Time
}

// Option tunes a Service.
type Option func(*Service)

// WithBoard replaces the ranking index (default: fresh skip list).
func WithBoard(b leaderboard.Board) Option {
	return func(s *Service) {
		if b != nil {
			s.board = b
		}
	}
}

// WithAwardRetries bounds the optimistic-retry loop.
func WithAwardRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(storage Storage, users UserDirectory, bus *EventBus, policy core.Policy, opts ...Option) *Service {
	if storage == nil || bus == nil {
		panic("NewService requires non-nil storage and bus")
	}
	if users == nil {
		users = AllowAllDirectory{}
	}
	s := &Service{
		storage: storage,
		users:   users,
		bus:     bus,
		policy:  policy,
		board:   leaderboard.NewSkipList(),
		retries: defaultAwardRetries,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy exposes the active scoring policy.
func (s *Service) Policy() core.Policy { return s.policy }

// Subscribe convenience method.
func (s *Service) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *Service) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// RebuildBoard reloads the ranking index from storage. Call once at startup
// when the store already holds records.
func (s *Service) RebuildBoard(ctx context.Context) error {
	records, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}
	for _, rec := range records {
		s.board.Update(leaderboard.Entry{User: rec.UserName, Score: rec.TotalPoints, Created: rec.CreatedAt})
	}
	return nil
}

// AwardPoints runs one award transaction: validate, score, and apply the
// read-modify-write under the storage's per-key version check. Conflicts and
// transient storage failures are retried from a fresh read a bounded number
// of times; a stale delta is never reapplied blindly.
func (s *Service) AwardPoints(ctx context.Context, user core.UserID, ev core.ActivityEvent) (core.AwardResult, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.AwardResult{}, fmt.Errorf("%w: %v", core.ErrInvalidMetadata, err)
	}
	if err := ev.Validate(); err != nil {
		return core.AwardResult{}, err
	}
	if err := s.checkExists(ctx, normalized); err != nil {
		return core.AwardResult{}, err
	}

	when := ev.OccurredAt
	if when.IsZero() {
		when = s.now()
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		prev, version, err := s.storage.Get(ctx, normalized)
		if err != nil {
			lastErr = err
			continue
		}
		if version == 0 {
			prev = core.NewPointRecord(normalized, when)
		}

		next := prev.Clone()
		next.StreakDays = core.NextStreak(prev.StreakDays, prev.LastActivity, when)

		points, err := s.policy.Score(ev, next.StreakDays)
		if err != nil {
			return core.AwardResult{}, err
		}

		if next.TotalPoints, err = core.AddSafe(prev.TotalPoints, points); err != nil {
			return core.AwardResult{}, fmt.Errorf("%w: %v", core.ErrInvalidMetadata, err)
		}
		if next.AvailablePoints, err = core.AddSafe(prev.AvailablePoints, points); err != nil {
			return core.AwardResult{}, fmt.Errorf("%w: %v", core.ErrInvalidMetadata, err)
		}
		next.Level = s.policy.LevelFor(next.TotalPoints)
		next.LastActivity = when
		next.Updated = s.now()

		unlocked := core.EvaluateBadges(prev, next)
		for _, b := range unlocked {
			next.Badges[b] = struct{}{}
		}

		if _, err := s.storage.Put(ctx, normalized, next, version); err != nil {
			lastErr = err
			if errors.Is(err, core.ErrConflict) {
				continue
			}
			continue
		}

		s.board.Update(leaderboard.Entry{User: normalized, Score: next.TotalPoints, Created: next.CreatedAt})
		s.publishAward(ctx, prev, next, ev.Type, points, unlocked)

		return core.AwardResult{
			PointsAwarded:  points,
			TotalPoints:    next.TotalPoints,
			NewLevel:       next.Level,
			LeveledUp:      next.Level > prev.Level,
			StreakDays:     next.StreakDays,
			BadgesUnlocked: unlocked,
		}, nil
	}
	return core.AwardResult{}, fmt.Errorf("%w: award not applied after %d attempts: %v", core.ErrUnavailable, s.retries, lastErr)
}

func (s *Service) publishAward(ctx context.Context, prev, next core.PointRecord, activity core.ActivityType, points int64, unlocked []core.Badge) {
	events := []core.Event{core.NewPointsAwarded(next.UserName, activity, points, next.TotalPoints)}
	if next.Level > prev.Level {
		events = append(events, core.NewLevelUp(next.UserName, next.Level, next.TotalPoints))
	}
	if next.StreakDays > prev.StreakDays {
		events = append(events, core.NewStreakExtended(next.UserName, next.StreakDays))
	}
	for _, b := range unlocked {
		events = append(events, core.NewBadgeUnlocked(next.UserName, b))
	}
	s.bus.PublishAll(ctx, events...)
}

// GetUserPoints returns the points summary. A known user with no record gets
// the zero-valued summary, not an error.
func (s *Service) GetUserPoints(ctx context.Context, user core.UserID) (core.PointsSummary, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.PointsSummary{}, fmt.Errorf("%w: %v", core.ErrInvalidMetadata, err)
	}
	if err := s.checkExists(ctx, normalized); err != nil {
		return core.PointsSummary{}, err
	}
	rec, version, err := s.storage.Get(ctx, normalized)
	if err != nil {
		return core.PointsSummary{}, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	if version == 0 {
		rec = core.NewPointRecord(normalized, s.now())
	}
	return s.summarize(rec), nil
}

func (s *Service) summarize(rec core.PointRecord) core.PointsSummary {
	next, ok := s.policy.NextLevelThreshold(rec.Level)
	if !ok {
		next = rec.TotalPoints
	}
	return core.PointsSummary{
		UserName:        rec.UserName,
		TotalPoints:     rec.TotalPoints,
		AvailablePoints: rec.AvailablePoints,
		RedeemedPoints:  rec.TotalPoints - rec.AvailablePoints,
		Level:           rec.Level,
		NextLevelPoints: next,
		StreakDays:      rec.StreakDays,
		Badges:          rec.BadgeList(),
	}
}

// RedeemPoints spends from the available balance. Total points never
// decrease; redemption only narrows the available/total gap.
func (s *Service) RedeemPoints(ctx context.Context, user core.UserID, points int64, reason string) (core.PointsSummary, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.PointsSummary{}, fmt.Errorf("%w: %v", core.ErrInvalidMetadata, err)
	}
	if points <= 0 {
		return core.PointsSummary{}, fmt.Errorf("%w: redemption must be positive", core.ErrInvalidMetadata)
	}
	if err := s.checkExists(ctx, normalized); err != nil {
		return core.PointsSummary{}, err
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		rec, version, err := s.storage.Get(ctx, normalized)
		if err != nil {
			lastErr = err
			continue
		}
		if version == 0 || rec.AvailablePoints < points {
			return core.PointsSummary{}, fmt.Errorf("%w: have %d, want %d", core.ErrInsufficientPoints, rec.AvailablePoints, points)
		}
		next := rec.Clone()
		next.AvailablePoints -= points
		next.Updated = s.now()
		if _, err := s.storage.Put(ctx, normalized, next, version); err != nil {
			lastErr = err
			continue
		}
		s.bus.Publish(ctx, core.NewPointsRedeemed(normalized, points, next.AvailablePoints))
		return s.summarize(next), nil
	}
	return core.PointsSummary{}, fmt.Errorf("%w: redemption not applied after %d attempts: %v", core.ErrUnavailable, s.retries, lastErr)
}

// Leaderboard returns the top limit users plus, when requesting is set, that
// user's own standing against the full population.
func (s *Service) Leaderboard(ctx context.Context, limit int, requesting core.UserID) (core.LeaderboardView, error) {
	if limit <= 0 {
		limit = 10
	}
	view := core.LeaderboardView{TotalUsers: s.board.Len()}
	for i, e := range s.board.TopN(limit) {
		rec, version, err := s.storage.Get(ctx, e.User)
		if err != nil {
			return core.LeaderboardView{}, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
		}
		entry := core.LeaderboardEntry{
			Rank:        i + 1,
			UserName:    e.User,
			TotalPoints: e.Score,
			Badges:      []core.Badge{},
		}
		if version != 0 {
			entry.Level = rec.Level
			entry.StreakDays = rec.StreakDays
			entry.Badges = rec.BadgeList()
		}
		view.Entries = append(view.Entries, entry)
	}
	if requesting != "" {
		normalized, err := core.NormalizeUserID(requesting)
		if err == nil {
			if rank, ok := s.board.Rank(normalized); ok {
				view.UserRank = rank
				if e, ok := s.board.Get(normalized); ok {
					view.UserPoints = e.Score
				}
			}
		}
	}
	return view, nil
}

func (s *Service) checkExists(ctx context.Context, user core.UserID) error {
	ok, err := s.users.Exists(ctx, user)
	if err != nil {
		return fmt.Errorf("%w: user directory: %v", core.ErrUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUserNotFound, user)
	}
	return nil
}

func (s *Service) Close() { s.bus.Close() }
