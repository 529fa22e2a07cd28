package tetration

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Заголовки подписи запроса.
const (
	headerID        = "Id"
	headerTimestamp = "Timestamp"
	headerChecksum  = "X-Tetration-Cksum"
	headerAuth      = "Authorization"

	contentTypeJSON = "application/json"
	timestampLayout = "2006-01-02T15:04:05+0000"
)

// Credentials — пара API key/secret.
type Credentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// Validate проверяет, что заданы оба значения.
func (c Credentials) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// LoadCredentials читает файл с api_key и api_secret.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials file %s: %w", path, err)
	}

	if err := creds.Validate(); err != nil {
		return Credentials{}, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return creds, nil
}

// Signer подписывает запросы HMAC-SHA256.
//
// Подписываемая строка:
//
//	METHOD \n REQUEST_URI \n CHECKSUM \n CONTENT_TYPE \n TIMESTAMP \n
//
// где CHECKSUM — hex SHA-256 тела (пусто для запросов без тела).
type Signer struct {
	creds Credentials
	now   func() time.Time
}

// NewSigner создаёт Signer.
func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds, now: time.Now}
}

// Sign выставляет заголовки аутентификации на запрос.
func (s *Signer) Sign(req *http.Request, body []byte) {
	timestamp := s.now().UTC().Format(timestampLayout)

	checksum := ""
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		checksum = hex.EncodeToString(sum[:])
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set(headerID, s.creds.APIKey)
	req.Header.Set(headerTimestamp, timestamp)
	req.Header.Set(headerChecksum, checksum)
	req.Header.Set(headerAuth, s.signature(req.Method, req.URL.RequestURI(), checksum, timestamp))
}

func (s *Signer) signature(method, uri, checksum, timestamp string) string {
	msg := method + "\n" + uri + "\n" + checksum + "\n" + contentTypeJSON + "\n" + timestamp + "\n"

	mac := hmac.New(sha256.New, []byte(s.creds.APISecret))
	mac.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
