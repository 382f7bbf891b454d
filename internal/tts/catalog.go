package tts

import (
	"encoding/json"
	"fmt"

	"nano-tts/pkg/models"
)

// DefaultVoiceID голос, который используется при недоступном каталоге
const DefaultVoiceID = "DeepSeek"

// Catalog неизменяемый набор голосов. Порядок совпадает с ответом вендора.
type Catalog struct {
	order   []string
	entries map[string]models.VoiceEntry
}

// NewCatalog строит каталог из списка голосов
func NewCatalog(voices []models.Voice) *Catalog {
	c := &Catalog{entries: make(map[string]models.VoiceEntry, len(voices))}
	for _, v := range voices {
		if v.ID == "" {
			continue
		}
		if _, ok := c.entries[v.ID]; !ok {
			c.order = append(c.order, v.ID)
		}
		c.entries[v.ID] = models.VoiceEntry{Name: v.Name, IconURL: v.IconURL}
	}
	return c
}

// DefaultCatalog возвращает каталог из одного синтетического голоса
func DefaultCatalog() *Catalog {
	return NewCatalog([]models.Voice{{ID: DefaultVoiceID, Name: "DeepSeek (Default)", IconURL: ""}})
}

// Len количество голосов
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get возвращает голос по идентификатору
func (c *Catalog) Get(id string) (models.VoiceEntry, bool) {
	if c == nil {
		return models.VoiceEntry{}, false
	}
	e, ok := c.entries[id]
	return e, ok
}

// First возвращает первый голос в порядке вендора
func (c *Catalog) First() (string, bool) {
	if c.Len() == 0 {
		return "", false
	}
	return c.order[0], true
}

// IDs возвращает копию идентификаторов
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Voices возвращает голоса списком
func (c *Catalog) Voices() []models.Voice {
	out := make([]models.Voice, 0, c.Len())
	for _, id := range c.IDs() {
		e := c.entries[id]
		out = append(out, models.Voice{ID: id, Name: e.Name, IconURL: e.IconURL})
	}
	return out
}

// Map возвращает копию каталога в виде map
func (c *Catalog) Map() map[string]models.VoiceEntry {
	out := make(map[string]models.VoiceEntry, c.Len())
	for _, id := range c.IDs() {
		out[id] = c.entries[id]
	}
	return out
}

// platformResponse часть ответа /api/robot/platform, которая нам нужна
type platformResponse struct {
	Data *struct {
		List []struct {
			Tag   string `json:"tag"`
			Title string `json:"title"`
			Icon  string `json:"icon"`
		} `json:"list"`
	} `json:"data"`
}

// ParseCatalog разбирает ответ вендора. Пустой список дает пустой каталог.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var resp platformResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("ошибка парсинга списка голосов: %w", err)
	}

	if resp.Data == nil {
		return NewCatalog(nil), nil
	}

	voices := make([]models.Voice, 0, len(resp.Data.List))
	for _, item := range resp.Data.List {
		voices = append(voices, models.Voice{ID: item.Tag, Name: item.Title, IconURL: item.Icon})
	}
	return NewCatalog(voices), nil
}
