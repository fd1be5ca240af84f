// Package handlers, HTTP endpoint'lerinin ince katmanıdır.
//
// Handler'lar sadece parse + service çağrısı + encode yapar —
// iş mantığı services katmanındadır.
package handlers

// contextKey, context'te değer taşımak için kullanılan key tipi.
//
// Go'da context.Value() any tip kabul eder — string key kullanmak çakışmaya
// neden olabilir. Özel bir tip tanımlayarak namespace collision'ı önleriz.
type contextKey string

// UserContextKey, auth middleware'ın context'e koyduğu *models.User'ın key'i.
const UserContextKey contextKey = "user"
