package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"nano-tts/internal/tts"
	"nano-tts/pkg/models"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// Голоса в inline клавиатуре /voices
	maxVoiceButtons = 30
	voiceButtonsRow = 2

	voiceCallbackPrefix = "voice:"

	// Сессии и лимитеры без активности удаляются
	SessionTTL = 24 * time.Hour
)

// Sender часть BotAPI, которая нужна обработчику
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Synthesizer операции фасада синтеза, которые использует бот
type Synthesizer interface {
	Voices() []models.Voice
	HasVoice(id string) bool
	DefaultVoice() string
	SynthesizeLong(ctx context.Context, text, voiceID string) ([]byte, int, error)
}

// Recorder принимает метрики бота
type Recorder interface {
	RecordBotMessage(messageType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordBotMessage(string) {}

// Handler представляет обработчик сообщений Telegram
type Handler struct {
	bot         Sender
	tts         Synthesizer
	messages    *Messages
	logger      *zap.Logger
	metrics     Recorder
	sessions    *SessionStore // выбранный голос каждого чата
	rateLimiter *RateLimiter  // rate limiter для защиты от спама
	maxLength   int           // максимальная длина текста для озвучки
}

// NewHandler создает новый обработчик
func NewHandler(bot Sender, synthesizer Synthesizer, maxLength int, logger *zap.Logger, metrics Recorder) *Handler {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Handler{
		bot:         bot,
		tts:         synthesizer,
		messages:    NewMessages(),
		logger:      logger,
		metrics:     metrics,
		sessions:    NewSessionStore(),
		rateLimiter: NewRateLimiter(),
		maxLength:   maxLength,
	}
}

// HandleUpdate обрабатывает входящее обновление
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// Получаем ID пользователя для rate limiting
	var userID int64
	if update.Message != nil && update.Message.From != nil {
		userID = update.Message.From.ID
	} else if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userID = update.CallbackQuery.From.ID
	}

	// Проверяем rate limit
	if userID != 0 && !h.rateLimiter.IsAllowed(userID) {
		h.logger.Warn("rate limit exceeded", zap.Int64("user_id", userID))
		h.metrics.RecordBotMessage("rate_limited")
		// Для обычных сообщений отправляем предупреждение
		if update.Message != nil {
			return h.sendMessage(update.Message.Chat.ID, h.messages.RateLimited())
		}
		// Для callback просто игнорируем
		return nil
	}

	// Обрабатываем inline кнопки
	if update.CallbackQuery != nil {
		return h.handleCallbackQuery(update.CallbackQuery)
	}

	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}

	// Логируем входящее сообщение
	h.logger.Debug("получено обновление",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.Int("text_length", len([]rune(update.Message.Text))))

	h.sessions.Touch(update.Message.Chat.ID)

	// Обрабатываем команды
	if update.Message.IsCommand() {
		h.metrics.RecordBotMessage("command")
		return h.handleCommand(update.Message)
	}

	if strings.TrimSpace(update.Message.Text) == "" {
		return nil
	}

	h.metrics.RecordBotMessage("text")
	return h.handleText(ctx, update.Message)
}

// handleCommand обрабатывает команды
func (h *Handler) handleCommand(message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		name := ""
		if message.From != nil {
			name = message.From.FirstName
		}
		return h.sendMessage(message.Chat.ID, h.messages.Welcome(name))
	case "help":
		return h.sendMessage(message.Chat.ID, h.messages.Help(h.maxLength))
	case "voices":
		return h.handleVoicesCommand(message.Chat.ID)
	case "voice":
		return h.handleVoiceCommand(message.Chat.ID, strings.TrimSpace(message.CommandArguments()))
	default:
		return h.sendMessage(message.Chat.ID, h.messages.UnknownCommand())
	}
}

// handleVoicesCommand отправляет список голосов с кнопками выбора
func (h *Handler) handleVoicesCommand(chatID int64) error {
	voices := h.tts.Voices()
	msg := tgbotapi.NewMessage(chatID, h.messages.VoiceList(voices, h.chatVoice(chatID)))

	if len(voices) > 0 {
		msg.ReplyMarkup = voiceKeyboard(voices)
	}

	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки списка голосов",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return err
	}
	return nil
}

// handleVoiceCommand выбирает голос для чата
func (h *Handler) handleVoiceCommand(chatID int64, voiceID string) error {
	if voiceID == "" {
		return h.sendMessage(chatID, h.messages.VoiceUsage(h.chatVoice(chatID)))
	}
	return h.selectVoice(chatID, voiceID)
}

func (h *Handler) selectVoice(chatID int64, voiceID string) error {
	if !h.tts.HasVoice(voiceID) {
		return h.sendMessage(chatID, h.messages.VoiceUnknown(voiceID))
	}

	h.sessions.SetVoice(chatID, voiceID)
	h.logger.Info("голос выбран", zap.Int64("chat_id", chatID), zap.String("voice", voiceID))

	name := voiceID
	for _, v := range h.tts.Voices() {
		if v.ID == voiceID {
			name = v.Name
			break
		}
	}
	return h.sendMessage(chatID, h.messages.VoiceSelected(voiceID, name))
}

// handleCallbackQuery обрабатывает нажатия inline кнопок
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) error {
	if !strings.HasPrefix(callback.Data, voiceCallbackPrefix) || callback.Message == nil {
		h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
		return nil
	}

	voiceID := strings.TrimPrefix(callback.Data, voiceCallbackPrefix)
	if _, err := h.bot.Request(tgbotapi.NewCallback(callback.ID, "🎙 "+voiceID)); err != nil {
		h.logger.Warn("ошибка ответа на callback", zap.Error(err))
	}
	return h.selectVoice(callback.Message.Chat.ID, voiceID)
}

// handleText озвучивает текст выбранным голосом
func (h *Handler) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	voice := h.chatVoice(chatID)

	h.logger.Info("обработка запроса озвучки",
		zap.Int64("chat_id", chatID),
		zap.String("voice", voice),
		zap.Int("text_length", len([]rune(message.Text))))

	// Индикатор активности, ошибка не критична
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		h.logger.Debug("ошибка отправки chat action", zap.Error(err))
	}

	audioData, chunks, err := h.tts.SynthesizeLong(ctx, message.Text, voice)
	if err != nil {
		switch {
		case errors.Is(err, tts.ErrTextEmpty):
			return h.sendMessage(chatID, h.messages.TextEmpty())
		case errors.Is(err, tts.ErrTextTooLong):
			return h.sendMessage(chatID, h.messages.TextTooLong(h.maxLength))
		}
		h.logger.Error("ошибка генерации TTS", zap.Int64("chat_id", chatID), zap.Error(err))
		return h.sendErrorMessage(chatID, "Ошибка генерации аудио, попробуйте позже")
	}

	// Отправляем аудио
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{
		Name:  "speech.mp3",
		Bytes: audioData,
	})
	audio.Caption = h.messages.AudioCaption(voice, chunks)
	audio.ReplyToMessageID = message.MessageID

	if _, err := h.bot.Send(audio); err != nil {
		h.logger.Error("ошибка отправки аудио", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}

	h.logger.Info("TTS аудио отправлено",
		zap.Int64("chat_id", chatID),
		zap.String("audio_size", humanize.Bytes(uint64(len(audioData)))),
		zap.Int("chunks", chunks))
	return nil
}

// Cleanup удаляет неактивные сессии и лимитеры, подходит как задача планировщика
func (h *Handler) Cleanup(ctx context.Context) error {
	sessions := h.sessions.Cleanup(SessionTTL)
	limiters := h.rateLimiter.Cleanup(SessionTTL)
	h.logger.Debug("очистка неактивных чатов",
		zap.Int("sessions", sessions),
		zap.Int("limiters", limiters))
	return nil
}

// chatVoice голос чата или голос по умолчанию
func (h *Handler) chatVoice(chatID int64) string {
	if voice, ok := h.sessions.Voice(chatID); ok {
		return voice
	}
	return h.tts.DefaultVoice()
}

// sendMessage отправляет текстовое сообщение
func (h *Handler) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки сообщения",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return err
	}
	return nil
}

// sendErrorMessage отправляет сообщение об ошибке
func (h *Handler) sendErrorMessage(chatID int64, text string) error {
	return h.sendMessage(chatID, h.messages.Error(text))
}

// voiceKeyboard строит inline клавиатуру выбора голоса
func voiceKeyboard(voices []models.Voice) tgbotapi.InlineKeyboardMarkup {
	if len(voices) > maxVoiceButtons {
		voices = voices[:maxVoiceButtons]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range voices {
		data := voiceCallbackPrefix + v.ID
		// Telegram ограничивает callback data 64 байтами
		if len(data) > 64 {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(v.Name, data))
		if len(row) == voiceButtonsRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
