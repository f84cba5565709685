package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittracker/fittracker-bot/internal/domain"
	apperrors "github.com/fittracker/fittracker-bot/internal/errors"
	"gorm.io/gorm"
)

// memClientRepo is a stateful in-memory roster for trainer service tests.
type memClientRepo struct {
	nextID  uint
	entries map[uint]*domain.TrainerClient
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{nextID: 1, entries: make(map[uint]*domain.TrainerClient)}
}

func (m *memClientRepo) Create(ctx context.Context, client *domain.TrainerClient) error {
	// The roster table enforces (trainer_id, client_username) uniqueness
	// only for non-empty usernames; skipped usernames may repeat.
	if client.ClientUsername != "" {
		for _, c := range m.entries {
			if c.TrainerID == client.TrainerID && c.ClientUsername == client.ClientUsername {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	client.ID = m.nextID
	m.nextID++
	copied := *client
	m.entries[client.ID] = &copied
	return nil
}

func (m *memClientRepo) GetByID(ctx context.Context, id uint) (*domain.TrainerClient, error) {
	c, ok := m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memClientRepo) FindByTrainerAndUsername(ctx context.Context, trainerID uint, username string) (*domain.TrainerClient, error) {
	for _, c := range m.entries {
		if c.TrainerID == trainerID && c.ClientUsername == username {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memClientRepo) FindByLinkedUser(ctx context.Context, userID uint) (*domain.TrainerClient, error) {
	for _, c := range m.entries {
		if c.LinkedUserID != nil && *c.LinkedUserID == userID && c.Status == domain.ClientStatusActive {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memClientRepo) ListActiveByTrainer(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error) {
	var out []domain.TrainerClient
	for _, c := range m.entries {
		if c.TrainerID == trainerID && c.Status == domain.ClientStatusActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memClientRepo) CountActiveByTrainer(ctx context.Context, trainerID uint) (int64, error) {
	var count int64
	for _, c := range m.entries {
		if c.TrainerID == trainerID && c.Status == domain.ClientStatusActive {
			count++
		}
	}
	return count, nil
}

func (m *memClientRepo) Update(ctx context.Context, client *domain.TrainerClient) error {
	copied := *client
	m.entries[client.ID] = &copied
	return nil
}

func (m *memClientRepo) Archive(ctx context.Context, id uint) error {
	c, ok := m.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Status = domain.ClientStatusArchived
	return nil
}

// memUserRepo resolves users by username for linking tests.
type memUserRepo struct {
	fakeUserRepo
	byUsername map[string]*domain.User
}

// GetByUsername folds case like the postgres implementation; telegram
// usernames are case-insensitive but stored as the profile spells them.
func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for stored, u := range m.byUsername {
		if strings.EqualFold(stored, username) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "ivan", NormalizeUsername("@Ivan"))
	assert.Equal(t, "ivan", NormalizeUsername("  ivan "))
	assert.Equal(t, "", NormalizeUsername("@"))
}

func TestAddClientDuplicate(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	_, err := svc.AddClient(context.Background(), 1, "Иван Петров", "@ivan", "", "")
	require.NoError(t, err)

	_, err = svc.AddClient(context.Background(), 1, "Иван Петров", "@ivan", "", "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAdded)

	// A different trainer may add the same username
	_, err = svc.AddClient(context.Background(), 2, "Иван Петров", "@ivan", "", "")
	assert.NoError(t, err)
}

func TestAddClientReactivatesArchived(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	client, err := svc.AddClient(context.Background(), 1, "Иван", "@ivan", "", "")
	require.NoError(t, err)
	require.NoError(t, svc.ArchiveClient(context.Background(), 1, client.ID))

	revived, err := svc.AddClient(context.Background(), 1, "Иван Петров", "@ivan", "набор массы", "")
	require.NoError(t, err)
	assert.Equal(t, client.ID, revived.ID, "archived row is reactivated, not duplicated")
	assert.Equal(t, domain.ClientStatusActive, revived.Status)
	assert.Equal(t, "Иван Петров", revived.ClientName)
	assert.Equal(t, "набор массы", revived.Goal)
}

func TestAddClientFreeTierLimit(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	for i, username := range []string{"@one", "@two", "@three"} {
		_, err := svc.AddClient(context.Background(), 1, "Клиент", username, "", "")
		require.NoError(t, err, "client %d", i+1)
	}

	_, err := svc.AddClient(context.Background(), 1, "Клиент", "@four", "", "")
	assert.ErrorIs(t, err, apperrors.ErrClientLimitReached)

	// Archiving one frees a slot
	require.NoError(t, svc.ArchiveClient(context.Background(), 1, 1))
	_, err = svc.AddClient(context.Background(), 1, "Клиент", "@four", "", "")
	assert.NoError(t, err)
}

func TestAddClientAutoLinks(t *testing.T) {
	user := &domain.User{TelegramID: 555, Username: "ivan"}
	user.ID = 9

	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{byUsername: map[string]*domain.User{"ivan": user}})

	client, err := svc.AddClient(context.Background(), 1, "Иван", "@Ivan", "", "")
	require.NoError(t, err)
	require.NotNil(t, client.LinkedUserID)
	assert.Equal(t, uint(9), *client.LinkedUserID)
}

func TestLinkClient(t *testing.T) {
	user := &domain.User{TelegramID: 555, Username: "ivan"}
	user.ID = 9

	repo := newMemClientRepo()
	users := &memUserRepo{byUsername: map[string]*domain.User{"ivan": user}}
	svc := NewTrainerService(repo, users)

	client, err := svc.AddClient(context.Background(), 1, "Иван", "", "", "")
	require.NoError(t, err)
	require.Nil(t, client.LinkedUserID)

	linked, err := svc.LinkClient(context.Background(), 1, client.ID, "@Ivan")
	require.NoError(t, err)
	require.NotNil(t, linked.LinkedUserID)
	assert.Equal(t, uint(9), *linked.LinkedUserID)
	assert.Equal(t, "ivan", linked.ClientUsername)

	// Linking again to the same user is a no-op
	again, err := svc.LinkClient(context.Background(), 1, client.ID, "@ivan")
	require.NoError(t, err)
	assert.Equal(t, *linked.LinkedUserID, *again.LinkedUserID)
}

func TestAddClientTwoSkippedUsernames(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	first, err := svc.AddClient(context.Background(), 1, "Иван Петров", "", "", "")
	require.NoError(t, err)

	second, err := svc.AddClient(context.Background(), 1, "Пётр Иванов", "", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	count, err := svc.CountClients(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLinkClientMixedCaseUsername(t *testing.T) {
	user := &domain.User{TelegramID: 555, Username: "IvanPetrov"}
	user.ID = 9

	repo := newMemClientRepo()
	users := &memUserRepo{byUsername: map[string]*domain.User{"IvanPetrov": user}}
	svc := NewTrainerService(repo, users)

	client, err := svc.AddClient(context.Background(), 1, "Иван", "", "", "")
	require.NoError(t, err)

	linked, err := svc.LinkClient(context.Background(), 1, client.ID, "@IvanPetrov")
	require.NoError(t, err)
	require.NotNil(t, linked.LinkedUserID)
	assert.Equal(t, uint(9), *linked.LinkedUserID)

	// Auto-link on add resolves the profile casing too
	added, err := svc.AddClient(context.Background(), 2, "Иван", "@ivanpetrov", "", "")
	require.NoError(t, err)
	require.NotNil(t, added.LinkedUserID)
	assert.Equal(t, uint(9), *added.LinkedUserID)
}

func TestLinkClientUnknownUsername(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	client, err := svc.AddClient(context.Background(), 1, "Иван", "", "", "")
	require.NoError(t, err)

	_, err = svc.LinkClient(context.Background(), 1, client.ID, "@ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetClientOwnership(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewTrainerService(repo, &memUserRepo{})

	client, err := svc.AddClient(context.Background(), 1, "Иван", "", "", "")
	require.NoError(t, err)

	_, err = svc.GetClient(context.Background(), 2, client.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "another trainer's roster is invisible")
}
