package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
)

// KeyedSpaceLocker is an in-process domain.SpaceLocker. Each space gets a
// one-slot semaphore that is dropped once nobody holds or waits for it.
type KeyedSpaceLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*spaceSlot
}

type spaceSlot struct {
	sem  chan struct{}
	refs int
}

// NewKeyedSpaceLocker creates a new KeyedSpaceLocker
func NewKeyedSpaceLocker() *KeyedSpaceLocker {
	return &KeyedSpaceLocker{slots: make(map[uuid.UUID]*spaceSlot)}
}

var _ domain.SpaceLocker = (*KeyedSpaceLocker)(nil)

// Lock blocks until the space is free or ctx is done
func (l *KeyedSpaceLocker) Lock(ctx context.Context, spaceID uuid.UUID) (func(), error) {
	slot := l.acquire(spaceID)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(spaceID)
		return nil, fmt.Errorf("%w: %v", domain.ErrSpaceLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.release(spaceID)
		})
	}, nil
}

// Len returns the number of spaces currently tracked
func (l *KeyedSpaceLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *KeyedSpaceLocker) acquire(spaceID uuid.UUID) *spaceSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[spaceID]
	if !ok {
		slot = &spaceSlot{sem: make(chan struct{}, 1)}
		l.slots[spaceID] = slot
	}
	slot.refs++
	return slot
}

func (l *KeyedSpaceLocker) release(spaceID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[spaceID]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(l.slots, spaceID)
	}
}
