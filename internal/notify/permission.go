package notify

import (
	"context"
	"fmt"
	"sync"
)

// Permission mirrors the host's notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p, nil
	default:
		return "", fmt.Errorf("unknown notification permission %q", s)
	}
}

// PermissionSource is the capability the scheduler consults. A nil source
// means the capability is unavailable and only the in-app feed is used.
type PermissionSource interface {
	State() Permission
	Request(ctx context.Context) (Permission, error)
}

// PermissionStore holds the permission reported by the client. Request
// blocks until the client answers with granted or denied.
type PermissionStore struct {
	mu        sync.Mutex
	state     Permission
	decided   chan struct{}
	listeners []func(Permission)
}

func NewPermissionStore(initial Permission) *PermissionStore {
	p := &PermissionStore{state: initial, decided: make(chan struct{})}
	if initial != PermissionDefault {
		close(p.decided)
	}
	return p
}

func (p *PermissionStore) State() Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OnChange registers fn to run after every state change.
func (p *PermissionStore) OnChange(fn func(Permission)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Set records the client's answer. Setting default reopens the pending request.
func (p *PermissionStore) Set(state Permission) error {
	if _, err := ParsePermission(string(state)); err != nil {
		return err
	}

	p.mu.Lock()
	prev := p.state
	p.state = state
	if state == PermissionDefault {
		if prev != PermissionDefault {
			p.decided = make(chan struct{})
		}
	} else if prev == PermissionDefault {
		close(p.decided)
	}
	listeners := append([]func(Permission){}, p.listeners...)
	p.mu.Unlock()

	if prev != state {
		for _, fn := range listeners {
			fn(state)
		}
	}
	return nil
}

func (p *PermissionStore) Request(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	if p.state != PermissionDefault {
		state := p.state
		p.mu.Unlock()
		return state, nil
	}
	decided := p.decided
	p.mu.Unlock()

	select {
	case <-decided:
		return p.State(), nil
	case <-ctx.Done():
		return PermissionDefault, ctx.Err()
	}
}
