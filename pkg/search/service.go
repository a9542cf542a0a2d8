// Archivo: pkg/search/service.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"property-system/pkg/config"
)

// Result es un proveedor candidato encontrado en el directorio externo.
type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ServiceInterface busca proveedores en un directorio externo por categoría y
// ubicación. Es solo enriquecimiento: la creación del ticket nunca depende de
// que esta llamada funcione.
type ServiceInterface interface {
	SearchProviders(ctx context.Context, category, department, municipality, freeText string) ([]Result, error)
}

type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewService(cfg config.SearchConfig) ServiceInterface {
	return &Service{
		baseURL:    cfg.APIBaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func (s *Service) SearchProviders(ctx context.Context, category, department, municipality, freeText string) ([]Result, error) {
	terms := []string{category, "servicio", municipality, department}
	if freeText != "" {
		terms = append(terms, freeText)
	}
	query := strings.Join(terms, " ")

	reqURL := fmt.Sprintf("%s?q=%s&count=5", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error llamando a la API de búsqueda: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("la API de búsqueda respondió %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("respuesta de búsqueda no es JSON válido: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, Result{
			Name:        r.Title,
			Description: r.Description,
			URL:         r.URL,
		})
	}
	return results, nil
}
