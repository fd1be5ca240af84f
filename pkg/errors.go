// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error'lar sentinel değerlerdir — service katmanı bunları fmt.Errorf("%w: ...")
// ile sarar, handler katmanı errors.Is() ile yakalayıp HTTP status'a çevirir.
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler (bkz. response.go).
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")

	// ErrInvalidSubscription, eksik endpoint veya key taşıyan push kayıt
	// isteği için döner. Boundary'de reddedilir — store'a hiç yazılmaz.
	ErrInvalidSubscription = errors.New("invalid push subscription")
)
