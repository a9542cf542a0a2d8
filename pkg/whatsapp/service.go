// Archivo: pkg/whatsapp/service.go
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"property-system/pkg/config"
)

// ServiceInterface es el despachador de mensajes salientes: recibe un número
// ya normalizado (57 + 10 dígitos) y un texto libre, devuelve el id del
// mensaje o un error.
type ServiceInterface interface {
	SendTextMessage(ctx context.Context, toPhone string, text string) (string, error)
}

type Service struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewService(cfg config.WhatsAppConfig) ServiceInterface {
	return &Service{
		baseURL:       cfg.APIBaseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (s *Service) SendTextMessage(ctx context.Context, toPhone string, text string) (string, error) {
	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "text",
		Text:             textPayload{Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error serializando el mensaje: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error llamando a la API de WhatsApp: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("respuesta de WhatsApp no es JSON válido: %w", err)
	}

	if resp.StatusCode >= 300 || parsed.Error != nil {
		msg := "error desconocido"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("la API de WhatsApp respondió %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("la API de WhatsApp no devolvió id de mensaje")
	}
	return parsed.Messages[0].ID, nil
}
