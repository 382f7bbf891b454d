package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nano-tts/internal/tts"
	"nano-tts/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) audios() []tgbotapi.AudioConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.AudioConfig
	for _, c := range f.sent {
		if a, ok := c.(tgbotapi.AudioConfig); ok {
			out = append(out, a)
		}
	}
	return out
}

type fakeSynth struct {
	mu     sync.Mutex
	err    error
	voices []models.Voice
	calls  []string
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{voices: []models.Voice{
		{ID: "DeepSeek", Name: "DeepSeek"},
		{ID: "A1", Name: "Alice"},
	}}
}

func (f *fakeSynth) Voices() []models.Voice { return f.voices }

func (f *fakeSynth) HasVoice(id string) bool {
	for _, v := range f.voices {
		if v.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeSynth) DefaultVoice() string { return "DeepSeek" }

func (f *fakeSynth) SynthesizeLong(ctx context.Context, text, voiceID string) ([]byte, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, voiceID)
	if f.err != nil {
		return nil, 0, f.err
	}
	return []byte("mp3:" + text), 1, nil
}

func textUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: userID, FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}}
}

func commandUpdate(userID, chatID int64, command, args string) tgbotapi.Update {
	text := "/" + command
	if args != "" {
		text += " " + args
	}
	u := textUpdate(userID, chatID, text)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return u
}

func newTestHandler() (*Handler, *fakeSender, *fakeSynth) {
	sender := &fakeSender{}
	synth := newFakeSynth()
	return NewHandler(sender, synth, 10000, zap.NewNop(), nil), sender, synth
}

func TestStartAndHelp(t *testing.T) {
	h, sender, _ := newTestHandler()

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate(1, 100, "start", "")))
	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate(1, 100, "help", "")))

	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Ann")
	assert.Contains(t, texts[1], "10000")
}

func TestTextIsSynthesizedWithDefaultVoice(t *testing.T) {
	h, sender, synth := newTestHandler()

	require.NoError(t, h.HandleUpdate(context.Background(), textUpdate(1, 100, "Привет")))

	assert.Equal(t, []string{"DeepSeek"}, synth.calls)
	audios := sender.audios()
	require.Len(t, audios, 1)
	assert.Equal(t, int64(100), audios[0].ChatID)
	assert.Equal(t, 7, audios[0].ReplyToMessageID)
	file, ok := audios[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "speech.mp3", file.Name)
	assert.Equal(t, []byte("mp3:Привет"), file.Bytes)
}

func TestVoiceSelectionIsPerChat(t *testing.T) {
	h, _, synth := newTestHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleUpdate(ctx, commandUpdate(1, 100, "voice", "A1")))
	require.NoError(t, h.HandleUpdate(ctx, textUpdate(1, 100, "one")))
	require.NoError(t, h.HandleUpdate(ctx, textUpdate(2, 200, "two")))

	assert.Equal(t, []string{"A1", "DeepSeek"}, synth.calls)
}

func TestVoiceCommandUnknownVoice(t *testing.T) {
	h, sender, synth := newTestHandler()
	ctx := context.Background()

	require.NoError(t, h.HandleUpdate(ctx, commandUpdate(1, 100, "voice", "ZZ")))
	require.NoError(t, h.HandleUpdate(ctx, textUpdate(1, 100, "hi")))

	assert.Contains(t, sender.texts()[0], "ZZ")
	assert.Equal(t, []string{"DeepSeek"}, synth.calls)
}

func TestVoiceCommandWithoutArgument(t *testing.T) {
	h, sender, _ := newTestHandler()

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate(1, 100, "voice", "")))

	assert.Contains(t, sender.texts()[0], "DeepSeek")
}

func TestVoicesCommandHasKeyboard(t *testing.T) {
	h, sender, _ := newTestHandler()

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate(1, 100, "voices", "")))

	require.Len(t, sender.sent, 1)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "A1 - Alice")
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 2)
	require.NotNil(t, keyboard.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "voice:A1", *keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestVoiceCallbackSelectsVoice(t *testing.T) {
	h, _, synth := newTestHandler()
	ctx := context.Background()

	callback := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
		Data:    "voice:A1",
	}}
	require.NoError(t, h.HandleUpdate(ctx, callback))
	require.NoError(t, h.HandleUpdate(ctx, textUpdate(1, 100, "hi")))

	assert.Equal(t, []string{"A1"}, synth.calls)
}

func TestUnknownCommand(t *testing.T) {
	h, sender, synth := newTestHandler()

	require.NoError(t, h.HandleUpdate(context.Background(), commandUpdate(1, 100, "stats", "")))

	assert.Equal(t, []string{h.messages.UnknownCommand()}, sender.texts())
	assert.Empty(t, synth.calls)
}

func TestSynthesisErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "пустой текст", err: tts.ErrTextEmpty, want: NewMessages().TextEmpty()},
		{name: "длинный текст", err: tts.ErrTextTooLong, want: NewMessages().TextTooLong(10000)},
		{name: "ошибка вендора", err: errors.New("boom"), want: NewMessages().Error("Ошибка генерации аудио, попробуйте позже")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sender, synth := newTestHandler()
			synth.err = tt.err

			require.NoError(t, h.HandleUpdate(context.Background(), textUpdate(1, 100, "text")))

			assert.Equal(t, []string{tt.want}, sender.texts())
			assert.Empty(t, sender.audios())
		})
	}
}

func TestRateLimitInHandler(t *testing.T) {
	h, sender, synth := newTestHandler()
	ctx := context.Background()

	for i := 0; i < MaxRequestsPerMinute+1; i++ {
		require.NoError(t, h.HandleUpdate(ctx, textUpdate(1, 100, "hi")))
	}

	assert.Len(t, synth.calls, MaxRequestsPerMinute)
	assert.Equal(t, []string{h.messages.RateLimited()}, sender.texts())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < MaxRequestsPerMinute; i++ {
		assert.True(t, rl.IsAllowed(1), "запрос %d", i+1)
	}
	assert.False(t, rl.IsAllowed(1), "31-й запрос в минуту должен быть отклонен")

	// Другой пользователь не затронут
	assert.True(t, rl.IsAllowed(2))

	// Через минуту лимит восстанавливается
	now = now.Add(RateLimitWindow)
	for i := 0; i < MaxRequestsPerMinute; i++ {
		assert.True(t, rl.IsAllowed(1))
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.IsAllowed(1)
	now = now.Add(2 * time.Hour)
	rl.IsAllowed(2)

	assert.Equal(t, 1, rl.Cleanup(time.Hour))
	assert.Len(t, rl.users, 1)
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, ok := store.Voice(1)
	assert.False(t, ok)

	store.SetVoice(1, "A1")
	voice, ok := store.Voice(1)
	assert.True(t, ok)
	assert.Equal(t, "A1", voice)

	now = now.Add(2 * time.Hour)
	store.SetVoice(2, "B2")

	assert.Equal(t, 1, store.Cleanup(time.Hour))
	assert.Equal(t, 1, store.Len())
	_, ok = store.Voice(1)
	assert.False(t, ok)
}

func TestCleanupJob(t *testing.T) {
	h, _, _ := newTestHandler()
	h.sessions.SetVoice(1, "A1")

	require.NoError(t, h.Cleanup(context.Background()))
	assert.Equal(t, 1, h.sessions.Len())
}
