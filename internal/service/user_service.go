package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

var ErrUserNotFound = errors.New("user not found")

type UserService interface {
	GetUserInfo(ctx context.Context, id uuid.UUID) (*transfer.AccountOverview, error)
}

type userService struct {
	u  repository.UserRepository
	pe repository.PersonaRepository
	po repository.PostRepository
}

func NewUserService(u repository.UserRepository, pe repository.PersonaRepository, po repository.PostRepository) UserService {
	return &userService{
		u:  u,
		pe: pe,
		po: po,
	}
}

// GetUserInfo returns the user with persona and post counts.
func (s *userService) GetUserInfo(ctx context.Context, id uuid.UUID) (*transfer.AccountOverview, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	if !isExist {
		slog.Info("user not found", "user_id", id)
		return nil, ErrUserNotFound
	}

	personas, err := s.pe.ListByUserID(ctx, id)
	if err != nil {
		return nil, err
	}
	connected := 0
	for _, p := range personas {
		if p.Connected() {
			connected++
		}
	}

	posts, err := s.po.CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	return &transfer.AccountOverview{
		User:              user,
		Personas:          len(personas),
		ConnectedPersonas: connected,
		Posts:             posts,
	}, nil
}
