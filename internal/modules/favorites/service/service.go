package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rivergauge-server/internal/metrics"
	"rivergauge-server/internal/modules/favorites/repository"
	"rivergauge-server/internal/modules/favorites/types"
)

// Publisher receives favorite change events. Publishing is best effort: a
// failure is logged and never fails the originating request.
type Publisher interface {
	PublishFavoriteEvent(ctx context.Context, ev types.Event) error
}

type noopPublisher struct{}

func (noopPublisher) PublishFavoriteEvent(context.Context, types.Event) error { return nil }

type Service struct {
	repository repository.FavoritesRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(repository repository.FavoritesRepository, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		publisher:  noopPublisher{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's favorites, newest first. The result is never nil.
func (s *Service) List(ctx context.Context, userID string) (out []types.Favorite, err error) {
	defer func() { s.metrics.FavoriteOp("list", err) }()

	if strings.TrimSpace(userID) == "" {
		return nil, &types.ValidationError{Field: "userId"}
	}
	favorites, err := s.repository.ListByUser(ctx, userID)
	if err != nil {
		return nil, &types.PersistenceError{Op: "list favorites", Err: err}
	}
	if favorites == nil {
		favorites = []types.Favorite{}
	}
	return favorites, nil
}

// Add stores a new favorite. An existing (user_id, site_id) pair is
// reported as types.ErrDuplicate, whether found by the lookup or by the
// store's unique constraint on insert.
func (s *Service) Add(ctx context.Context, nf types.NewFavorite) (fav types.Favorite, err error) {
	defer func() { s.metrics.FavoriteOp("add", err) }()

	existing, err := s.repository.FindByUserAndSite(ctx, nf.UserID, nf.SiteID)
	if err != nil {
		return types.Favorite{}, &types.PersistenceError{Op: "check existing favorite", Err: err}
	}
	if existing != nil {
		return types.Favorite{}, types.ErrDuplicate
	}

	fav, err = s.repository.Insert(ctx, nf)
	if err != nil {
		if errors.Is(err, types.ErrDuplicate) {
			return types.Favorite{}, types.ErrDuplicate
		}
		return types.Favorite{}, &types.PersistenceError{Op: "insert favorite", Err: err}
	}

	s.logger.Info("favorite added", "user_id", fav.UserID, "site_id", fav.SiteID, "favorite_id", fav.ID)
	s.publish(ctx, types.Event{
		Action:     types.ActionAdded,
		UserID:     fav.UserID,
		SiteID:     fav.SiteID,
		FavoriteID: strconv.FormatInt(fav.ID, 10),
	})
	return fav, nil
}

// Remove deletes the favorite with the given id. Removing an id that does
// not exist succeeds.
func (s *Service) Remove(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.FavoriteOp("remove", err) }()

	if strings.TrimSpace(id) == "" {
		return &types.ValidationError{Field: "id"}
	}
	n, err := s.repository.Delete(ctx, id)
	if err != nil {
		return &types.PersistenceError{Op: "delete favorite", Err: err}
	}

	s.logger.Info("favorite removed", "favorite_id", id, "rows", n)
	if n > 0 {
		s.publish(ctx, types.Event{Action: types.ActionRemoved, FavoriteID: id})
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev types.Event) {
	ev.EventID = uuid.New()
	ev.At = s.now().UTC()
	if err := s.publisher.PublishFavoriteEvent(ctx, ev); err != nil {
		s.logger.Warn("publish favorite event failed",
			"action", string(ev.Action),
			"favorite_id", ev.FavoriteID,
			"error", err,
		)
	}
}
