package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/models"
)

type memUsers struct {
	users map[uuid.UUID]*models.User
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, bool, error) {
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return nil, false, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) (uuid.UUID, error) {
	user.ID = uuid.New()
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func TestUserOverview(t *testing.T) {
	userID := uuid.New()
	users := &memUsers{users: map[uuid.UUID]*models.User{userID: {ID: userID, Email: "a@example.com"}}}
	personas := newMemPersonas()
	posts := newMemPosts()

	personas.add(&models.Persona{UserID: userID, AccessToken: "sealed:x"})
	personas.add(&models.Persona{UserID: userID})
	personas.add(&models.Persona{UserID: uuid.New(), AccessToken: "sealed:y"})
	posts.add(&models.Post{UserID: userID, Status: models.PostStatusDraft})
	posts.add(&models.Post{UserID: userID, Status: models.PostStatusDraft})
	posts.add(&models.Post{UserID: userID, Status: models.PostStatusFailed})

	s := NewUserService(users, personas, posts)
	got, err := s.GetUserInfo(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserInfo: %v", err)
	}
	if got.Personas != 2 || got.ConnectedPersonas != 1 {
		t.Errorf("personas = %d connected = %d", got.Personas, got.ConnectedPersonas)
	}
	if got.Posts[models.PostStatusDraft] != 2 || got.Posts[models.PostStatusFailed] != 1 {
		t.Errorf("posts = %v", got.Posts)
	}

	if _, err := s.GetUserInfo(context.Background(), uuid.New()); err != ErrUserNotFound {
		t.Errorf("missing user err = %v", err)
	}
}
