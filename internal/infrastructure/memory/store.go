// Package memory implementa el ledger en memoria: mismo contrato transaccional que el
// adaptador PostgreSQL (bloqueos por clave en orden global, escrituras todo o nada).
// Se usa en pruebas y con LEDGER_STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por los bloqueos de una transacción.
const DefaultLockTimeout = 3 * time.Second

var _ inventory.TxRunner = (*Store)(nil)

// Store datos confirmados del ledger. Las lecturas fuera de transacción ven siempre un
// estado confirmado: saldo y movimiento se publican juntos bajo mu.
type Store struct {
	mu        sync.RWMutex
	stocks    map[string]*entity.Stock
	byKey     map[entity.StockKey]string
	movements []*entity.Movement
	requests  map[string]*entity.Request
	shelters  map[string]*entity.Shelter
	daySeq    map[string]int

	locks       *keyLocks
	lockTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout cambia la espera máxima por bloqueos.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewStore construye un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		stocks:      make(map[string]*entity.Stock),
		byKey:       make(map[entity.StockKey]string),
		requests:    make(map[string]*entity.Request),
		shelters:    make(map[string]*entity.Shelter),
		daySeq:      make(map[string]int),
		locks:       newKeyLocks(),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stocks repositorio de stock fuera de transacción.
func (s *Store) Stocks() repository.StockRepository { return &stockRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Requests repositorio de solicitudes fuera de transacción.
func (s *Store) Requests() repository.RequestRepository { return &requestRepo{s: s} }

// Run adquiere los bloqueos (sin duplicados, en orden lexicográfico), ejecuta fn con
// repositorios que acumulan las escrituras y las confirma juntas si fn devuelve nil.
func (s *Store) Run(ctx context.Context, locks []entity.LockKey, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	requestRepo repository.RequestRepository,
) error) error {
	keys := slices.Clone(locks)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	release, err := s.locks.acquire(ctx, keys, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	tx := newTxState()
	if err := fn(&stockRepo{s: s, tx: tx}, &movementRepo{s: s, tx: tx}, &requestRepo{s: s, tx: tx}); err != nil {
		return err
	}
	return s.commit(tx)
}

// txState escrituras pendientes de una transacción.
type txState struct {
	stocks    map[string]*entity.Stock
	created   map[string]bool
	movements []*entity.Movement
	requests  map[string]*entity.Request
}

func newTxState() *txState {
	return &txState{
		stocks:   make(map[string]*entity.Stock),
		created:  make(map[string]bool),
		requests: make(map[string]*entity.Request),
	}
}

func (s *Store) commit(tx *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range tx.created {
		st := tx.stocks[id]
		if other, ok := s.byKey[st.Key()]; ok && other != id {
			return fmt.Errorf("commit: %w", domain.ErrDuplicateStock)
		}
	}
	for id, st := range tx.stocks {
		s.stocks[id] = st
		s.byKey[st.Key()] = id
	}
	s.movements = append(s.movements, tx.movements...)
	for id, r := range tx.requests {
		s.requests[id] = r
	}
	return nil
}

// keyLocks un mutex por clave, implementado con canales de capacidad 1 para poder
// esperar con timeout y cancelación.
type keyLocks struct {
	mu    sync.Mutex
	slots map[entity.LockKey]chan struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[entity.LockKey]chan struct{})}
}

func (l *keyLocks) slot(key entity.LockKey) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// acquire toma las claves en el orden recibido. Si alguna no se obtiene antes del timeout
// o de que se cancele ctx, libera las ya tomadas y devuelve domain.ErrBusy.
func (l *keyLocks) acquire(ctx context.Context, keys []entity.LockKey, timeout time.Duration) (func(), error) {
	held := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, key := range keys {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-timer.C:
			release()
			return nil, fmt.Errorf("bloqueo %s: %w", key, domain.ErrBusy)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("bloqueo %s: %w: %w", key, domain.ErrBusy, ctx.Err())
		}
	}
	return release, nil
}
