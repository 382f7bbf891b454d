package tts

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceRand возвращает заданные значения по кругу
func sequenceRand(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStringHashGolden(t *testing.T) {
	ua := DefaultDeviceProfile().UserAgent

	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"a", 1589345},
		{"A", 1065025},
		{"abc", 37651568},
		{"hello world", 151502496},
		{"https://bot.n.cn", 124812755},
		{ua, 240407999},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StringHash(tt.input))
			// Чистая функция: повторный вызов дает то же значение
			assert.Equal(t, tt.want, StringHash(tt.input))
		})
	}
}

func TestStringHashSingleCharacterChange(t *testing.T) {
	base := StringHash("https://bot.n.cn")
	assert.NotEqual(t, base, StringHash("https://bot.n.co"))
	assert.NotEqual(t, base, StringHash("https://Bot.n.cn"))
}

func TestDescriptorCounterSuffix(t *testing.T) {
	d := DefaultDeviceProfile().descriptor()

	assert.True(t, strings.HasPrefix(d, "chrome1.0zh-CNWin32Mozilla/5.0"))
	// Длина префикса 162, суффикс str(1 ^ 162)
	assert.True(t, strings.HasSuffix(d, "https://bot.n.cn/chat163"))
	assert.Len(t, d, 165)
	assert.Equal(t, int64(215773637), StringHash(d))
}

func TestFingerprint(t *testing.T) {
	profile := DefaultDeviceProfile()

	auth := NewAuthenticator(profile, WithRand(sequenceRand(0.5)))
	assert.Equal(t, int64(2769213365051166267), auth.Fingerprint())

	auth = NewAuthenticator(profile, WithRand(sequenceRand(0)))
	assert.Equal(t, int64(463370356911214139), auth.Fingerprint())

	// Значение близкое к 1 дает произведение больше 2^53
	auth = NewAuthenticator(profile, WithRand(sequenceRand(0.999999)))
	assert.Equal(t, int64(4148311325746690471), auth.Fingerprint())
}

func TestRequestID(t *testing.T) {
	auth := NewAuthenticator(DefaultDeviceProfile(),
		WithRand(sequenceRand(0.5, 0.25, 0.5)),
		WithClock(fixedClock(time.UnixMilli(1700000000000))),
	)

	id := auth.RequestID()
	assert.Equal(t, "12481275527692133650511662671700", id)
	assert.Len(t, id, 32)
	assert.NotContains(t, id, ".")
}

func TestTimestampFixedOffset(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	auth := NewAuthenticator(DefaultDeviceProfile(),
		WithClock(fixedClock(time.Date(2024, 1, 2, 3, 4, 5, 0, loc))),
	)

	assert.Equal(t, "2024-01-02T03:04:05+08:00", auth.Timestamp())
}

func TestHeadersGolden(t *testing.T) {
	auth := NewAuthenticator(DefaultDeviceProfile(),
		WithRand(sequenceRand(0.5, 0.25, 0.5)),
		WithClock(fixedClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))),
	)

	// Часы фиксированы, поэтому миллисекунды берутся из той же даты
	h := auth.Headers()
	assert.Equal(t, "Web", h.DevicePlatform)
	assert.Equal(t, "2024-01-02T03:04:05+08:00", h.Timestamp)
	assert.Equal(t, "1.2", h.Version)
	assert.Equal(t, "22210ca73bf1af2ec2eace74a96ee356", h.UADigest)
	assert.Equal(t, DefaultDeviceProfile().UserAgent, h.UserAgent)

	sum := md5.Sum([]byte(h.DevicePlatform + h.Timestamp + h.Version + h.AccessToken + h.UADigest))
	assert.Equal(t, hex.EncodeToString(sum[:]), h.Signature)
}

func TestSignatureGolden(t *testing.T) {
	ua := DefaultDeviceProfile().UserAgent
	mid := "12481275527692133650511662671700"

	assert.Equal(t, "875f073d98f558fadc1056e2b5230926",
		md5Hex("Web"+"2024-01-02T03:04:05+08:00"+"1.2"+mid+md5Hex(ua)))
	assert.Equal(t, "4837997b238ac83a5a2d9a7cfa94d955",
		md5Hex("Web"+"2024-01-02T03:04:05+08:00"+"1.2"+"abcdef"+md5Hex(ua)))
}

func TestHeadersMapKeys(t *testing.T) {
	h := NewAuthenticator(DefaultDeviceProfile()).Headers()
	m := h.Map()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"device-platform", "timestamp", "access-token", "zm-token", "zm-ver", "zm-ua", "User-Agent",
	}, keys)

	for k, v := range m {
		assert.NotEmpty(t, v, k)
	}

	header := http.Header{}
	h.Apply(header)
	require.Equal(t, h.Signature, header.Get("zm-token"))
	assert.Equal(t, h.AccessToken, header.Get("access-token"))
	assert.Equal(t, h.UserAgent, header.Get("User-Agent"))
}

func TestHeadersAreRegeneratedPerCall(t *testing.T) {
	auth := NewAuthenticator(DefaultDeviceProfile())

	first := auth.Headers()
	second := auth.Headers()
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.Signature, second.Signature)
}
