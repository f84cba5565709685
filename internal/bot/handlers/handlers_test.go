package handlers

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/domain"
	apperrors "github.com/fittracker/fittracker-bot/internal/errors"
	"github.com/fittracker/fittracker-bot/internal/services"
)

// fakeAPI records outgoing messages instead of talking to telegram.
type fakeAPI struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent, "no message was sent")
	return f.sent[len(f.sent)-1].Text
}

func (f *fakeAPI) allText() string {
	var b strings.Builder
	for _, m := range f.sent {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// fakeUserSvc keeps users in memory keyed by telegram ID.
type fakeUserSvc struct {
	users  map[int64]*domain.User
	nextID uint
}

func newFakeUserSvc() *fakeUserSvc {
	return &fakeUserSvc{users: make(map[int64]*domain.User), nextID: 1}
}

func (f *fakeUserSvc) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	if u, ok := f.users[telegramID]; ok {
		return u, nil
	}
	u := &domain.User{TelegramID: telegramID, Username: username, FirstName: firstName, LastName: lastName, State: string(state.None)}
	u.ID = f.nextID
	f.nextID++
	f.users[telegramID] = u
	return u, nil
}

func (f *fakeUserSvc) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, ok := f.users[telegramID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserSvc) SetRole(ctx context.Context, userID uint, role string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.Role = role
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

func (f *fakeUserSvc) SetState(ctx context.Context, userID uint, st string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.State = st
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

// fakeTrainerSvc implements the roster contract with canned behavior.
type fakeTrainerSvc struct {
	clients   map[uint]*domain.TrainerClient
	nextID    uint
	addErr    error
	usernames map[string]bool
}

func newFakeTrainerSvc() *fakeTrainerSvc {
	return &fakeTrainerSvc{clients: make(map[uint]*domain.TrainerClient), nextID: 1, usernames: make(map[string]bool)}
}

func (f *fakeTrainerSvc) AddClient(ctx context.Context, trainerID uint, name, username, goal, notes string) (*domain.TrainerClient, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	norm := services.NormalizeUsername(username)
	if norm != "" && f.usernames[norm] {
		return nil, apperrors.ErrAlreadyAdded
	}
	if norm != "" {
		f.usernames[norm] = true
	}
	c := &domain.TrainerClient{TrainerID: trainerID, ClientName: name, ClientUsername: norm, Status: domain.ClientStatusActive}
	c.ID = f.nextID
	f.nextID++
	f.clients[c.ID] = c
	return c, nil
}

func (f *fakeTrainerSvc) ListClients(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error) {
	var out []domain.TrainerClient
	for _, c := range f.clients {
		if c.TrainerID == trainerID && c.Status == domain.ClientStatusActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeTrainerSvc) CountClients(ctx context.Context, trainerID uint) (int64, error) {
	clients, _ := f.ListClients(ctx, trainerID)
	return int64(len(clients)), nil
}

func (f *fakeTrainerSvc) GetClient(ctx context.Context, trainerID, clientID uint) (*domain.TrainerClient, error) {
	c, ok := f.clients[clientID]
	if !ok || c.TrainerID != trainerID {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (f *fakeTrainerSvc) ArchiveClient(ctx context.Context, trainerID, clientID uint) error {
	c, err := f.GetClient(ctx, trainerID, clientID)
	if err != nil {
		return err
	}
	c.Status = domain.ClientStatusArchived
	return nil
}

func (f *fakeTrainerSvc) LinkClient(ctx context.Context, trainerID, clientID uint, username string) (*domain.TrainerClient, error) {
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeTrainerSvc) ClientForUser(ctx context.Context, userID uint) (*domain.TrainerClient, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeTrainerSvc) TrainerForClient(ctx context.Context, clientID uint) (*domain.User, error) {
	return nil, apperrors.ErrUserNotFound
}

// fakeProgramSvc returns canned parses.
type fakeProgramSvc struct {
	parsed   *domain.Program
	parseErr error
}

func (f *fakeProgramSvc) Parse(ctx context.Context, text string) (*domain.Program, error) {
	return f.parsed, f.parseErr
}

func (f *fakeProgramSvc) SaveProgram(ctx context.Context, clientID uint, program *domain.Program) (*domain.Program, error) {
	program.ClientID = clientID
	return program, nil
}

func (f *fakeProgramSvc) ParseAndSave(ctx context.Context, clientID uint, text string) (*domain.Program, error) {
	p, err := f.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	return f.SaveProgram(ctx, clientID, p)
}

func (f *fakeProgramSvc) GetActiveProgram(ctx context.Context, clientID uint) (*domain.Program, error) {
	return nil, apperrors.ErrProgramNotFound
}

// fakeWorkoutSvc returns empty histories.
type fakeWorkoutSvc struct{}

func (f *fakeWorkoutSvc) UpsertSet(ctx context.Context, set *domain.WorkoutSet) error { return nil }
func (f *fakeWorkoutSvc) CompleteWorkout(ctx context.Context, workoutID uint, rpe *float64, feedback string) (*domain.Workout, error) {
	return nil, apperrors.ErrNotFound
}
func (f *fakeWorkoutSvc) Progress(ctx context.Context, userID, exerciseID uint) ([]domain.WorkoutSet, error) {
	return nil, nil
}
func (f *fakeWorkoutSvc) RecentCompleted(ctx context.Context, userID uint, limit int) ([]domain.Workout, error) {
	return nil, nil
}

type fixture struct {
	api     *fakeAPI
	users   *fakeUserSvc
	trainer *fakeTrainerSvc
	program *fakeProgramSvc
	scratch state.ScratchStore
	handler *UpdateHandler
}

func newFixture() *fixture {
	api := &fakeAPI{}
	users := newFakeUserSvc()
	trainer := newFakeTrainerSvc()
	program := &fakeProgramSvc{}
	scratch := state.NewManager()

	deps := Dependencies{
		UserService:    users,
		TrainerService: trainer,
		ProgramService: program,
		WorkoutService: &fakeWorkoutSvc{},
		WebAppURL:      "https://fittracker.app",
	}
	return &fixture{
		api:     api,
		users:   users,
		trainer: trainer,
		program: program,
		scratch: scratch,
		handler: NewUpdateHandler(api, deps, scratch),
	}
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	entities := []tgbotapi.MessageEntity{}
	if strings.HasPrefix(text, "/") {
		entities = append(entities, tgbotapi.MessageEntity{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])})
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: userID, UserName: "trainer", FirstName: "Олег"},
			Chat:     &tgbotapi.Chat{ID: userID},
			Text:     text,
			Entities: entities,
		},
	}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb1",
			From:    &tgbotapi.User{ID: userID, UserName: "trainer", FirstName: "Олег"},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func TestStartShowsRoleMenuForNewUser(t *testing.T) {
	f := newFixture()

	err := f.handler.Handle(context.Background(), messageUpdate(100, "/start"))
	require.NoError(t, err)
	assert.Contains(t, f.api.lastText(t), "Кто вы?")
}

func TestRoleSelectionOpensTrainerMenu(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(context.Background(), callbackUpdate(100, "role_trainer")))

	user := f.users.users[100]
	assert.Equal(t, domain.RoleTrainer, user.Role)
	assert.Contains(t, f.api.lastText(t), "Меню тренера")
}

func TestClientMenuCarriesWebAppLink(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(context.Background(), callbackUpdate(100, "role_client")))

	last := f.api.sent[len(f.api.sent)-1]
	markup, ok := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "client menu has no inline keyboard")

	var url string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.URL != nil {
				url = *btn.URL
			}
		}
	}
	assert.Equal(t, "https://fittracker.app", url)
}

func TestAddClientFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
	assert.Contains(t, f.api.lastText(t), "Введите имя клиента")

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Иван Петров")))
	assert.Contains(t, f.api.lastText(t), "Telegram-ник")

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "@ivan")))
	assert.Contains(t, f.api.allText(), "Клиент Иван Петров добавлен")

	clients, err := f.trainer.ListClients(ctx, 1)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Иван Петров", clients[0].ClientName)
	assert.Equal(t, "ivan", clients[0].ClientUsername)
	assert.Equal(t, string(state.None), f.users.users[100].State)
}

func TestAddClientRejectsBadUsernameInPlace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Иван Петров")))

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "ivan")))
	assert.Contains(t, f.api.lastText(t), "начинаться с @")
	// Still waiting for the username; a corrected reply succeeds
	assert.Equal(t, string(state.AwaitingClientUsername), f.users.users[100].State)

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "@ivan")))
	assert.Contains(t, f.api.allText(), "добавлен")
}

func TestAddClientDuplicateUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))

	for i := 0; i < 2; i++ {
		require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
		require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Иван Петров")))
		require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "@ivan")))
	}

	assert.Contains(t, f.api.allText(), "уже есть в вашем списке")
}

func TestCancelResetsState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/cancel")))

	assert.Equal(t, string(state.None), f.users.users[100].State)
	assert.Contains(t, f.api.allText(), "отменено")
}

func TestTextWithoutStateAsksForMenu(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), messageUpdate(100, "привет")))
	assert.Contains(t, f.api.lastText(t), "используйте меню")
}

func TestUnknownCallbackAsksForMenu(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.Handle(context.Background(), callbackUpdate(100, "bogus_action")))
	assert.Contains(t, f.api.lastText(t), "используйте меню")
}

func TestProgramUploadFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.program.parsed = &domain.Program{
		Name:        "Сила",
		DaysPerWeek: 1,
		Days: domain.ProgramDays{
			{Name: "День 1", Exercises: []domain.ProgramExercise{{Name: "Присед", Sets: 3, Reps: "8"}}},
		},
		Active: true,
	}

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Иван")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "skip_username")))

	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "client_parse:1")))
	assert.Equal(t, string(state.AwaitingProgramText), f.users.users[100].State)

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Присед 80x8x3")))
	assert.Contains(t, f.api.allText(), "подтвердите сохранение")

	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "program_save")))
	assert.Contains(t, f.api.allText(), "Программа сохранена")
}

func TestProgramParseFailureKeepsState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.program.parseErr = apperrors.NewMalformedCompletionError(assert.AnError)

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "/start")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "role_trainer")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "add_client")))
	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "Иван")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "skip_username")))
	require.NoError(t, f.handler.Handle(ctx, callbackUpdate(100, "client_parse:1")))

	require.NoError(t, f.handler.Handle(ctx, messageUpdate(100, "какой-то текст")))
	assert.Contains(t, f.api.lastText(t), "Не удалось разобрать программу")
	// The step survives so the trainer can resend the text
	assert.Equal(t, string(state.AwaitingProgramText), f.users.users[100].State)
}
