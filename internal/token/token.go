// Package token реализует схему подписи слотов загрузки (v2), общую со стороной-эмитентом:
// HMAC-SHA256(secret, name \x00 size \x00 content-type) в нижнем hex.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/yourname/share_lite/pkg/shareproto"
)

// Sign вычисляет токен для тройки (имя, заявленный размер, тип).
// size передаётся строкой ровно в том виде, в каком он пришёл в Content-Length.
func Sign(secret, name, size, contentType string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(name))
	_, _ = mac.Write([]byte{0})
	_, _ = mac.Write([]byte(size))
	_, _ = mac.Write([]byte{0})
	_, _ = mac.Write([]byte(contentType))

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает присланный токен с ожидаемым за постоянное время.
// Ожидаемое значение возвращается всегда, чтобы вызывающий мог залогировать расхождение.
func Verify(secret, name, size, contentType, got string) (string, bool) {
	want := Sign(secret, name, size, contentType)

	return want, hmac.Equal([]byte(want), []byte(got))
}

// Slot строит имя загрузки так же, как это делает эмитент: <uuid>/<filename>.
func Slot(filename string) string {
	filename = strings.TrimSpace(filename)
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	if filename == "" {
		filename = "file"
	}

	return uuid.NewString() + "/" + filename
}

// PutURL собирает URL для PUT: base + экранированное имя + ?v2=<token>.
func PutURL(baseURL, name, tok string) string {
	return GetURL(baseURL, name) + "?" + url.Values{shareproto.TokenParam: {tok}}.Encode()
}

// GetURL собирает URL, по которому объект будет доступен после загрузки.
func GetURL(baseURL, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segs, "/")
}
