package query

import (
	"errors"

	"github.com/billbuzz/billbuzz/internal/repository"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/models"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type SessionQueryService struct {
	repo *repository.UserRepository
}

func NewSessionQueryService(repo *repository.UserRepository) *SessionQueryService {
	return &SessionQueryService{repo: repo}
}

func (s *SessionQueryService) CurrentUser(cqrs.CurrentUserQuery) (*models.User, error) {
	user := s.repo.Current()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

func (s *SessionQueryService) IsAuthenticated() bool {
	return s.repo.Current() != nil
}

// IsActive reports whether userID owns the current session.
func (s *SessionQueryService) IsActive(userID string) bool {
	user := s.repo.Current()
	return user != nil && userID != "" && user.ID == userID
}
