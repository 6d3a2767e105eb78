package command

import (
	"context"
	"log/slog"

	"github.com/billbuzz/billbuzz/internal/repository"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/events"
	"github.com/billbuzz/billbuzz/shared/models"
	"github.com/billbuzz/billbuzz/shared/utils"
	"github.com/billbuzz/billbuzz/shared/validation"
)

// PlaceholderName is given to users who log in without signing up.
const PlaceholderName = "BillBuzz User"

// SessionObserver follows the session lifecycle.
type SessionObserver interface {
	SessionStarted(ctx context.Context, user models.User)
	SessionEnded(ctx context.Context)
}

// SessionCommandService signs the single user in and out. There is no
// credential store: any non-empty input is accepted and a user record is
// fabricated from it.
type SessionCommandService struct {
	repo      *repository.UserRepository
	publisher EventPublisher
	observers []SessionObserver
}

func NewSessionCommandService(repo *repository.UserRepository, publisher EventPublisher) *SessionCommandService {
	return &SessionCommandService{repo: repo, publisher: publisher}
}

func (s *SessionCommandService) Observe(o SessionObserver) {
	s.observers = append(s.observers, o)
}

func (s *SessionCommandService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.User, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	return s.start(ctx, models.User{
		ID:    utils.GenerateID("usr"),
		Name:  PlaceholderName,
		Email: cmd.Email,
	}), nil
}

func (s *SessionCommandService) Signup(ctx context.Context, cmd cqrs.SignupCommand) (*models.User, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	return s.start(ctx, models.User{
		ID:      utils.GenerateID("usr"),
		Name:    cmd.Name,
		Email:   cmd.Email,
		Address: cmd.Address,
	}), nil
}

func (s *SessionCommandService) start(ctx context.Context, user models.User) *models.User {
	s.repo.Save(ctx, &user)
	if err := s.publisher.Publish(ctx, events.SessionEventsStream, events.SessionLogin, events.SessionEvent{
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		slog.Warn("failed to publish session.login event", "err", err)
	}
	for _, o := range s.observers {
		o.SessionStarted(ctx, user)
	}
	return &user
}

// Logout clears the in-memory and persisted user. Logging out twice is harmless.
func (s *SessionCommandService) Logout(ctx context.Context) {
	current := s.repo.Current()
	s.repo.Clear(ctx)
	for _, o := range s.observers {
		o.SessionEnded(ctx)
	}
	if current == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.SessionEventsStream, events.SessionLogout, events.SessionEvent{
		UserID: current.ID,
	}); err != nil {
		slog.Warn("failed to publish session.logout event", "err", err)
	}
}
