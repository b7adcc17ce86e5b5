package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info")
	}
	if user == nil {
		err = errors.New("user not found")
		slog.Info(err.Error())
		return nil, err
	}
	return user, nil
}
