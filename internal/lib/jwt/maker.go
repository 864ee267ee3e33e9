// Package jwt реализует выпуск и проверку подписанных токенов сессии.
//
// Токен несёт только идентификатор пользователя и срок действия.
// Роль и статус подписки в токен не попадают: они читаются из базы на каждом запросе.
// Списка отзыва нет, токен остаётся валидным до истечения срока.
package jwt

import (
	"errors"
	"time"
)

// DefaultTokenTTL срок жизни токена сессии.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidToken возвращается для любого непригодного токена:
	// повреждённого, просроченного или подписанного чужим ключом.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret возвращается при попытке создать Maker без ключа подписи.
	ErrEmptySecret = errors.New("jwt secret key is empty")
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя с указанным UID.
	GenerateToken(userUID string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
// Нулевой TTL заменяется на DefaultTokenTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) (*MakerImpl, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}, nil
}

// WithClock подменяет источник текущего времени. Используется в тестах.
func (j *MakerImpl) WithClock(now func() time.Time) *MakerImpl {
	j.now = now
	return j
}

// TTL возвращает срок жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
