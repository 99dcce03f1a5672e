package store

import (
	"context"
	"sync"
)

// Change describes a successful write. Key is empty when a whole assessment
// was deleted.
type Change struct {
	AssessmentID string
	Key          string
	Deleted      bool
}

// Observable wraps a Store and notifies subscribers after each successful
// document write or delete. Subscribers run synchronously on the writing
// goroutine, after the underlying write has returned.
type Observable struct {
	Store

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Change)
}

// NewObservable decorates st.
func NewObservable(st Store) *Observable {
	return &Observable{Store: st, subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observable) Subscribe(fn func(Change)) (cancel func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

func (o *Observable) publish(c Change) {
	o.mu.RLock()
	fns := make([]func(Change), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (o *Observable) PutDocument(ctx context.Context, assessmentID, key string, data []byte) error {
	if err := o.Store.PutDocument(ctx, assessmentID, key, data); err != nil {
		return err
	}
	o.publish(Change{AssessmentID: assessmentID, Key: key})
	return nil
}

func (o *Observable) DeleteDocument(ctx context.Context, assessmentID, key string) error {
	if err := o.Store.DeleteDocument(ctx, assessmentID, key); err != nil {
		return err
	}
	o.publish(Change{AssessmentID: assessmentID, Key: key, Deleted: true})
	return nil
}

func (o *Observable) DeleteAssessment(ctx context.Context, id string) error {
	if err := o.Store.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	o.publish(Change{AssessmentID: id, Deleted: true})
	return nil
}
