package models

// VoiceEntry представляет отображаемые данные голоса
type VoiceEntry struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
}

// Voice представляет голос вместе с его идентификатором
type Voice struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
}

// TTSRequest представляет запрос на синтез речи
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// VoicesResponse представляет список доступных голосов
type VoicesResponse struct {
	Voices map[string]VoiceEntry `json:"voices"`
	Count  int                   `json:"count"`
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ErrorResponse представляет ошибку в формате /api
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SpeechRequest представляет OpenAI-совместимый запрос синтеза
type SpeechRequest struct {
	Input string   `json:"input"`
	Voice string   `json:"voice"`
	Speed *float64 `json:"speed,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
}

// Model представляет голос в формате OpenAI /v1/models
type Model struct {
	ID         string   `json:"id"`
	Object     string   `json:"object"`
	Created    int64    `json:"created"`
	OwnedBy    string   `json:"owned_by"`
	Permission []string `json:"permission"`
	Root       string   `json:"root"`
	Parent     *string  `json:"parent"`
}

// ListResponse представляет OpenAI-совместимый список
type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

// APIError описывает ошибку в формате /v1
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// APIErrorResponse оборачивает APIError
type APIErrorResponse struct {
	Error APIError `json:"error"`
}

// RefreshResponse представляет результат обновления списка голосов
type RefreshResponse struct {
	Message     string `json:"message"`
	VoicesCount int    `json:"voicesCount"`
}
