package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/models"
	"github.com/maheshrc27/threadflow/internal/repository"
	"github.com/maheshrc27/threadflow/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type AuthService interface {
	LoginURL(state string) string
	LoginCallback(ctx context.Context, code string) (uuid.UUID, error)
}

type authService struct {
	oauth *oauth2.Config
	u     repository.UserRepository
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
		u: u,
	}
}

func (s *authService) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *authService) LoginCallback(ctx context.Context, code string) (uuid.UUID, error) {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" || s.oauth.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	userInfo, err := s.userInfo(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	user, isExist, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return uuid.Nil, err
	}

	if isExist {
		if user.GoogleID == "" {
			user.GoogleID = userInfo.ID
			user.Name = userInfo.Name
			user.ProfilePicture = userInfo.ProfilePicture
			if err := s.u.Update(ctx, user); err != nil {
				return uuid.Nil, err
			}
		}
		return user.ID, nil
	}

	userID, err := s.u.Create(ctx, &models.User{
		GoogleID:       userInfo.ID,
		Email:          userInfo.Email,
		Name:           userInfo.Name,
		ProfilePicture: userInfo.ProfilePicture,
	})
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	slog.Info("user signed up", "user_id", userID)
	return userID, nil
}

func (s *authService) userInfo(ctx context.Context, token *oauth2.Token) (*transfer.UserInfo, error) {
	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(s.oauth.TokenSource(ctx, token)))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("google account has no email")
	}

	return &transfer.UserInfo{
		ID:             info.Id,
		Name:           info.Name,
		Email:          info.Email,
		ProfilePicture: info.Picture,
	}, nil
}
