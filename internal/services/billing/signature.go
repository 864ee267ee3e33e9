package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader заголовок с подписью webhook.
const SignatureHeader = "Stripe-Signature"

var (
	// ErrInvalidSignature подпись отсутствует, повреждена или не совпадает.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrStaleSignature метка времени подписи вне допустимого окна.
	ErrStaleSignature = errors.New("webhook signature timestamp outside tolerance")
)

// Sign считает подпись в формате "t=<unix>,v1=<hex>" для payload.
func Sign(secret string, payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(secret, ts, payload)
}

func computeSignature(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет заголовок подписи. Подходит любая из схем v1,
// что позволяет провайдеру менять секрет без простоя.
func VerifySignature(header string, payload []byte, secret string, tolerance time.Duration, now time.Time) error {
	const op = "billing.VerifySignature"
	if header == "" || secret == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if ts == "" || len(candidates) == 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("%s: %w", op, ErrStaleSignature)
		}
	}

	expected := []byte(computeSignature(secret, ts, payload))
	for _, c := range candidates {
		if hmac.Equal(expected, []byte(c)) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
}
