package hub

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"
)

const (
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength  = 5
	maxAttempts = 32
)

var ErrNoFreeCode = errors.New("could not find a free room code")

func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCode returns a code no live room is using. The code is not reserved.
func (h *Hub) NewCode(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		r, err := h.GetRoom(ctx, c)
		if err != nil {
			return "", err
		}
		if r == nil {
			return c, nil
		}
		h.log.Debug("collision on code, regenerating", zap.String("room", c))
	}
	return "", ErrNoFreeCode
}

// freeCode is NewCode for the loop goroutine.
func (h *Hub) freeCode() (string, error) {
	for i := 0; i < maxAttempts; i++ {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[c]; !taken {
			return c, nil
		}
	}
	return "", ErrNoFreeCode
}
