// Package email, uygulama genelinde email gönderimi için soyutlama katmanı sağlar.
//
// EmailSender interface'i ile email gönderim detayları soyutlanır (Dependency Inversion).
// Şu anki implementasyon Resend API kullanır. İleride farklı bir sağlayıcıya
// geçmek için sadece yeni bir implementasyon yazıp constructor'da değiştirmek yeterli.
//
// Bu paket dışarıya iki şey sunar:
// 1. EmailSender interface — service'ler buna bağımlı olur
// 2. NewResendSender constructor — main.go'da wire-up için
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend implementasyonuna değil.
type EmailSender interface {
	// SendMessageNotification, push aboneliği olmayan çevrimdışı kullanıcıya
	// okunmamış mesaj bildirimi gönderir.
	// toEmail: alıcı adresi, senderName: mesajı gönderen kullanıcının görünen adı,
	// preview: mesaj içeriğinin kısaltılmış hali, threadID: link için.
	SendMessageNotification(ctx context.Context, toEmail, senderName, preview, threadID string) error
}

// resendSender, Resend API ile email gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: noreply@lonca.app)
	appURL    string // Uygulamanın public URL'i (ör: https://lonca.app)
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici email adresi — Resend'de doğrulanmış domain altında olmalı.
// appURL: Uygulamanın public URL'i — thread link'lerinde kullanılır.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

// SendMessageNotification, yeni mesaj bildirimi email'i gönderir.
//
// Email içeriği:
// - Subject: "New message from {senderName} — lonca"
// - Body: Mesaj ön izlemesi + thread'e giden buton
// - Link format: {appURL}/threads/{threadID}
//
// preview ve senderName kullanıcı girdisidir — HTML'e gömülmeden önce
// escape edilir.
func (s *resendSender) SendMessageNotification(ctx context.Context, toEmail, senderName, preview, threadID string) error {
	threadLink := fmt.Sprintf("%s/threads/%s", s.appURL, threadID)
	safeSender := html.EscapeString(senderName)
	safePreview := html.EscapeString(preview)

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#1a1a2e;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#1a1a2e;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#16213e;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#e2e8f0;font-size:24px;margin:0 0 8px 0;">lonca</h1>
              <h2 style="color:#e2e8f0;font-size:18px;margin:0 0 24px 0;">New message from %s</h2>
              <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                %s
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#6366f1;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      Open Conversation
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#64748b;font-size:13px;line-height:1.6;margin:0;">
                You're receiving this because you were offline when the message arrived.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, safeSender, safePreview, threadLink)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("lonca <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("New message from %s — lonca", senderName),
		Html:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send message notification email: %w", err)
	}

	return nil
}
