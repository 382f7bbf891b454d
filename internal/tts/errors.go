package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport ошибка сети, таймаут или неуспешный статус вендора
	ErrTransport = errors.New("ошибка обращения к API синтеза")
	// ErrEmptyAudio вендор вернул пустое тело
	ErrEmptyAudio = errors.New("API синтеза вернул пустое аудио")
	// ErrTextEmpty текст пуст после очистки
	ErrTextEmpty = errors.New("текст не может быть пустым")
	// ErrTextTooLong текст превышает допустимую длину
	ErrTextTooLong = errors.New("текст слишком длинный")
)

// StatusError неуспешный HTTP статус от вендора
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("неожиданный статус от API: %d, тело: %s", e.StatusCode, e.Body)
}

// Is позволяет errors.Is(err, ErrTransport) для ошибок статуса
func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}
