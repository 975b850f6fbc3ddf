// Package sharehttp реализует шлюз загрузок — HTTP-бэкенд хранения для внешнего
// HTTP-аплоада XMPP-сервера (mod_http_upload_external, протокол v2). Эндпоинты под base_path:
//   - PUT {base}{name}?v2={token} — проверяет HMAC-подпись слота и однократно сохраняет тело.
//   - GET {base}{name} — отдаёт сохранённый объект с записанным при загрузке Content-Type.
//   - HEAD {base}{name} — те же заголовки без тела.
//   - OPTIONS {base}{name} — CORS preflight.
//
// Служебный роутер (NewAdmin) поднимается на отдельном адресе:
//   - GET /health — занятое место и число объектов.
//   - GET /metrics — метрики Prometheus.
package sharehttp
