// Package tetration — HTTP-клиент для management API платформы сетевой аналитики.
//
// # Обзор
//
// Клиент выполняет подписанные запросы к /openapi/v1: application scopes,
// applications, users, roles, sensors и метаданные inventory/flow.
// Каждый вызов синхронный, без retry. Ответ со статусом вне 2xx
// возвращается как *APIError.
//
// # Аутентификация
//
// Запросы подписываются HMAC-SHA256 по API key/secret (см. Signer).
// Ключи передаются напрямую или через JSON-файл с полями api_key и api_secret.
//
//	creds, err := tetration.LoadCredentials("api_credentials.json")
//	client, err := tetration.NewClient(tetration.Config{
//	    Endpoint:    "https://172.16.5.4",
//	    Credentials: creds,
//	})
//	scopes, err := client.ListScopes(ctx)
//
// Проверка TLS-сертификата включена по умолчанию, отключается только
// явным Config.Insecure.
package tetration
