package tts

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	hashMaskA = 268435455 // 0x0FFFFFFF
	hashMaskB = 266338304

	fingerprintScale = 2147483647
	requestIDLength  = 32

	devicePlatform = "Web"
	tokenVersion   = "1.2"

	// Вендор ожидает смещение +08:00 независимо от часового пояса
	timestampLayout = "2006-01-02T15:04:05"
	timestampOffset = "+08:00"
)

// Имена заголовков авторизации
const (
	HeaderDevicePlatform = "device-platform"
	HeaderTimestamp      = "timestamp"
	HeaderAccessToken    = "access-token"
	HeaderSignature      = "zm-token"
	HeaderVersion        = "zm-ver"
	HeaderUADigest       = "zm-ua"
	HeaderUserAgent      = "User-Agent"
)

// DeviceProfile описывает браузер, от имени которого идут запросы
type DeviceProfile struct {
	AppName      string
	Version      string
	Language     string
	Platform     string
	UserAgent    string
	ScreenWidth  int
	ScreenHeight int
	ColorDepth   int
	Referrer     string
	Domain       string
}

// DefaultDeviceProfile возвращает профиль веб-клиента bot.n.cn
func DefaultDeviceProfile() DeviceProfile {
	return DeviceProfile{
		AppName:      "chrome",
		Version:      "1.0",
		Language:     "zh-CN",
		Platform:     "Win32",
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		ColorDepth:   24,
		Referrer:     "https://bot.n.cn/chat",
		Domain:       "https://bot.n.cn",
	}
}

// descriptor собирает строку отпечатка устройства
func (p DeviceProfile) descriptor() string {
	var b strings.Builder
	b.WriteString(p.AppName)
	b.WriteString(p.Version)
	b.WriteString(p.Language)
	b.WriteString(p.Platform)
	b.WriteString(p.UserAgent)
	b.WriteString(strconv.Itoa(p.ScreenWidth))
	b.WriteString("x")
	b.WriteString(strconv.Itoa(p.ScreenHeight))
	b.WriteString(strconv.Itoa(p.ColorDepth))
	b.WriteString(p.Referrer)

	nt := b.String()
	n := len(nt)
	for counter := 1; counter != 0; counter-- {
		nt += strconv.Itoa(counter ^ n)
		n++
	}
	return nt
}

// StringHash считает хеш вендора, проходя UTF-16 единицы строки с конца.
// Значения должны совпадать с веб-клиентом побитово.
func StringHash(input string) int64 {
	units := utf16.Encode([]rune(input))

	var acc int64
	for i := len(units) - 1; i >= 0; i-- {
		code := int64(units[i])
		acc = ((acc << 6) & hashMaskA) + code + (code << 14)
		if mix := acc & hashMaskB; mix != 0 {
			acc ^= mix >> 21
		}
	}
	return acc
}

// AuthHeaders набор заголовков одного запроса к вендору
type AuthHeaders struct {
	DevicePlatform string
	Timestamp      string
	AccessToken    string
	Signature      string
	Version        string
	UADigest       string
	UserAgent      string
}

// Map возвращает заголовки с именами, которые ждет вендор
func (h AuthHeaders) Map() map[string]string {
	return map[string]string{
		HeaderDevicePlatform: h.DevicePlatform,
		HeaderTimestamp:      h.Timestamp,
		HeaderAccessToken:    h.AccessToken,
		HeaderSignature:      h.Signature,
		HeaderVersion:        h.Version,
		HeaderUADigest:       h.UADigest,
		HeaderUserAgent:      h.UserAgent,
	}
}

// Apply выставляет заголовки в запрос
func (h AuthHeaders) Apply(header http.Header) {
	for k, v := range h.Map() {
		header.Set(k, v)
	}
}

// Authenticator генерирует заголовки авторизации bot.n.cn.
// Секретов нет: все строится из профиля, часов и случайных чисел.
type Authenticator struct {
	profile DeviceProfile
	random  func() float64
	now     func() time.Time
}

// AuthOption настраивает Authenticator
type AuthOption func(*Authenticator)

// WithRand подменяет источник случайных чисел в [0,1)
func WithRand(random func() float64) AuthOption {
	return func(a *Authenticator) { a.random = random }
}

// WithClock подменяет часы
func WithClock(now func() time.Time) AuthOption {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator создает генератор заголовков для профиля
func NewAuthenticator(profile DeviceProfile, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		profile: profile,
		random:  rand.Float64,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Profile возвращает профиль устройства
func (a *Authenticator) Profile() DeviceProfile {
	return a.profile
}

// Fingerprint возвращает псевдослучайный отпечаток устройства.
// Произведение не превышает 2^62 и помещается в int64.
func (a *Authenticator) Fingerprint() int64 {
	seed := int64(math.Round(a.random() * fingerprintScale))
	return (seed ^ StringHash(a.profile.descriptor())) * fingerprintScale
}

// RequestID возвращает access-token (mid) длиной не больше 32 символов
func (a *Authenticator) RequestID() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(StringHash(a.profile.Domain), 10))
	b.WriteString(strconv.FormatInt(a.Fingerprint(), 10))

	millis := float64(a.now().UnixMilli()) + a.random() + a.random()
	b.WriteString(strconv.FormatFloat(millis, 'f', -1, 64))

	id := strings.ReplaceAll(b.String(), ".", "e")
	if len(id) > requestIDLength {
		id = id[:requestIDLength]
	}
	return id
}

// Timestamp возвращает локальное время с фиксированным суффиксом +08:00
func (a *Authenticator) Timestamp() string {
	return a.now().Format(timestampLayout) + timestampOffset
}

// Headers строит полный набор заголовков для одного запроса
func (a *Authenticator) Headers() AuthHeaders {
	timestamp := a.Timestamp()
	accessToken := a.RequestID()
	uaDigest := md5Hex(a.profile.UserAgent)

	return AuthHeaders{
		DevicePlatform: devicePlatform,
		Timestamp:      timestamp,
		AccessToken:    accessToken,
		Signature:      md5Hex(devicePlatform + timestamp + tokenVersion + accessToken + uaDigest),
		Version:        tokenVersion,
		UADigest:       uaDigest,
		UserAgent:      a.profile.UserAgent,
	}
}

func md5Hex(msg string) string {
	sum := md5.Sum([]byte(msg))
	return hex.EncodeToString(sum[:])
}
