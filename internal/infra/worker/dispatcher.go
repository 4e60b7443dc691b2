package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// taskTimeout acota cuánto puede vivir una tarea en background. Dentro
// caben las llamadas a agente (30s), WhatsApp (30s) y media (60s) de un
// delivery normal.
const taskTimeout = 2 * time.Minute

// Dispatcher ejecuta tareas fire-and-forget con concurrencia acotada y
// recuperación de panics. El HTTP handler nunca espera por una tarea: el
// ACK al proveedor sale antes de que el trabajo empiece.
type Dispatcher struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewDispatcher(limit int) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{sem: semaphore.NewWeighted(int64(limit))}
}

// Dispatch agenda fn en una goroutine propia. Si el límite de
// concurrencia está copado, la tarea espera su turno en la goroutine, no
// en el caller. El context del request HTTP no se hereda: la tarea vive
// más que el request.
func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context)) {
	taskID := uuid.NewString()
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ [WORKER] Panic en tarea %s (%s): %v", name, taskID, r)
			}
		}()

		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			log.Printf("❌ [WORKER] No se pudo adquirir slot para %s (%s): %v", name, taskID, err)
			return
		}
		defer d.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()

		start := time.Now()
		log.Printf("⚙️ [WORKER] Tarea %s iniciada (%s)", name, taskID)
		fn(ctx)
		log.Printf("✅ [WORKER] Tarea %s terminada en %s (%s)", name, time.Since(start).Round(time.Millisecond), taskID)
	}()
}

// Wait bloquea hasta que terminen las tareas en vuelo. Lo usan los tests
// y el drain de shutdown; el shutdown del proceso puede igualmente
// abandonar tareas si el host mata el contenedor antes.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
