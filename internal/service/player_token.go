package service

import (
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clue_backend/internal/game"
	"clue_backend/internal/logger"
)

// id игрока виден всем в лобби, поэтому доступ к руке и ходам
// дает только подписанный токен, выданный при входе
var ErrInvalidToken = &game.Error{Kind: game.KindProtocol, Code: "INVALID_TOKEN", Message: "invalid player token"}

type PlayerClaims struct {
	LobbyID string `json:"lobby_id"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer с пустым секретом генерирует случайный:
// токены тогда не переживают рестарт процесса
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		logger.Warn("PLAYER_TOKEN_SECRET не задан, используется случайный ключ")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: key, ttl: ttl, now: time.Now}
}

// Issue подписывает токен игрока для конкретного лобби
func (t *TokenIssuer) Issue(lobbyID, playerID string) (string, error) {
	now := t.now()
	claims := PlayerClaims{
		LobbyID: NormalizeLobbyID(lobbyID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse возвращает лобби и игрока из токена
func (t *TokenIssuer) Parse(token string) (string, string, error) {
	var claims PlayerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		logger.Debug("токен игрока отклонен", "error", err)
		return "", "", ErrInvalidToken
	}
	if claims.LobbyID == "" || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.LobbyID, claims.Subject, nil
}
