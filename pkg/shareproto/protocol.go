// Package shareproto описывает протокол HTTP-взаимодействия шлюза загрузок с клиентами
// и с сервером-эмитентом подписанных слотов (XEP-0363, вариант v2).
package shareproto

// Параметры протокола загрузки.
const (
	// TokenParam — query-параметр с подписью слота: PUT <url>?v2=<hex hmac>.
	TokenParam = "v2"

	DefaultContentType = "application/octet-stream"
	MaxContentTypeLen  = 255

	StorePrefix = "store-"
	TypeSuffix  = "-type"
)

// Заголовки CORS, выставляемые на каждый ответ шлюза.
const (
	CORSAllowMethods = "GET, PUT, OPTIONS"
	CORSAllowHeaders = "Content-Type"
	CORSMaxAge       = "7200"
	CORSAllowOrigin  = "*"
)

// CSP запрещает исполнение отдаваемого содержимого в браузере независимо от MIME.
const ContentSecurityPolicy = "default-src 'none'"

// CSPHeaders — стандартный и два устаревших заголовка, под которыми отдаётся ContentSecurityPolicy.
var CSPHeaders = []string{
	"Content-Security-Policy",
	"X-Content-Security-Policy",
	"X-WebKit-CSP",
}
