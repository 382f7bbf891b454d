package bot

import (
	"fmt"
	"strings"

	"nano-tts/pkg/models"
)

// Messages тексты ответов бота
type Messages struct{}

// NewMessages создает набор текстов
func NewMessages() *Messages {
	return &Messages{}
}

// Welcome приветствие для /start
func (m *Messages) Welcome(name string) string {
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("👋 Привет, %s!\n\n"+
		"Я озвучиваю текст голосами NanoAI. Просто пришлите сообщение, и я верну MP3.\n\n"+
		"/voices - список голосов\n"+
		"/voice <id> - выбрать голос\n"+
		"/help - справка", name)
}

// Help справка для /help
func (m *Messages) Help(maxLength int) string {
	return "🎙️ Как пользоваться:\n\n" +
		"1. Выберите голос: /voices или /voice <id>\n" +
		"2. Отправьте текст, и я пришлю аудио\n\n" +
		fmt.Sprintf("Максимальная длина текста: %d символов. ", maxLength) +
		"Разметка, ссылки и эмодзи удаляются перед озвучкой."
}

// VoiceList список голосов с отметкой текущего
func (m *Messages) VoiceList(voices []models.Voice, current string) string {
	if len(voices) == 0 {
		return "😔 Список голосов пока недоступен"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗣 Доступно голосов: %d\n\n", len(voices))
	for _, v := range voices {
		marker := "•"
		if v.ID == current {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s %s - %s\n", marker, v.ID, v.Name)
	}
	b.WriteString("\nВыбрать: /voice <id>")
	return b.String()
}

// VoiceSelected подтверждение выбора голоса
func (m *Messages) VoiceSelected(id, name string) string {
	return fmt.Sprintf("✅ Голос выбран: %s (%s)", name, id)
}

// VoiceUnknown голос не найден
func (m *Messages) VoiceUnknown(id string) string {
	return fmt.Sprintf("❌ Голос %q не найден. Список: /voices", id)
}

// VoiceUsage подсказка для /voice без аргумента
func (m *Messages) VoiceUsage(current string) string {
	return fmt.Sprintf("Текущий голос: %s\nИспользование: /voice <id>", current)
}

// UnknownCommand неизвестная команда
func (m *Messages) UnknownCommand() string {
	return "🤔 Неизвестная команда. Справка: /help"
}

// RateLimited слишком много запросов
func (m *Messages) RateLimited() string {
	return "⚠️ Слишком много запросов. Подождите минуту."
}

// TextEmpty нечего озвучивать
func (m *Messages) TextEmpty() string {
	return "🤷 После очистки в сообщении не осталось текста для озвучки"
}

// TextTooLong текст слишком длинный
func (m *Messages) TextTooLong(maxLength int) string {
	return fmt.Sprintf("📏 Текст слишком длинный. Максимум %d символов.", maxLength)
}

// Error общее сообщение об ошибке
func (m *Messages) Error(text string) string {
	return "❌ " + text
}

// AudioCaption подпись к аудио
func (m *Messages) AudioCaption(voice string, chunks int) string {
	if chunks > 1 {
		return fmt.Sprintf("🔊 %s, частей: %d", voice, chunks)
	}
	return "🔊 " + voice
}
