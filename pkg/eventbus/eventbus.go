package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event representa cualquier evento del sistema.
type Event interface {
	Name() string
}

// Listener es un manejador (suscriptor) de eventos.
type Listener func(ctx context.Context, event Event) error

type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish entrega el evento a todos los suscriptores, cada uno en su propia
// goroutine con un contexto acotado: ningún suscriptor puede bloquear la
// operación que publicó ni quedarse colgado para siempre.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventName := event.Name()
	for _, listener := range b.listeners[eventName] {
		go func(l Listener) {
			ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()

			if err := l(ctxWithTimeout, event); err != nil {
				b.logger.Error("Error en el manejador de eventos",
					zap.String("event", eventName),
					zap.Error(err),
				)
			}
		}(listener)
	}
}
