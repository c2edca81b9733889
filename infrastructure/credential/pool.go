// Package credential owns the API key rotation used by every YouTube Data API call.
package credential

import (
	"sync"

	"github.com/naoterumaker/youtube-transcriber/domain/model"
	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"
)

// Pool is an ordered set of credentials with a current index.
// It is safe for concurrent use; rotation is visible to every caller.
type Pool struct {
	mu    sync.Mutex
	creds []model.Credential
	index int
}

// NewPool copies creds into a new pool. An empty input fails with
// model.ErrNoCredentialsConfigured.
func NewPool(creds []model.Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, model.ErrNoCredentialsConfigured
	}
	cp := make([]model.Credential, len(creds))
	copy(cp, creds)
	return &Pool{creds: cp}, nil
}

// Size is the number of credentials.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Current returns the credential in use.
func (p *Pool) Current() (model.Credential, error) {
	cred, _, err := p.Acquire()
	return cred, err
}

// Acquire returns the current credential together with its index, for a later RotateFrom.
func (p *Pool) Acquire() (model.Credential, int, error) {
	if p == nil {
		return "", 0, model.ErrEmptyPool
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.creds) == 0 {
		return "", 0, model.ErrEmptyPool
	}
	return p.creds[p.index], p.index, nil
}

// Rotate advances to the next credential, wrapping around.
func (p *Pool) Rotate() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
}

// RotateFrom advances only if the pool still points at observed, so two
// callers failing on the same credential rotate once between them.
// It reports whether this call moved the index.
func (p *Pool) RotateFrom(observed int) bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index != observed {
		return false
	}
	p.advance()
	return true
}

func (p *Pool) advance() {
	if len(p.creds) == 0 {
		return
	}
	from := p.index
	p.index = (p.index + 1) % len(p.creds)
	logger.GetLogger().WithFields(map[string]interface{}{
		"from": from,
		"to":   p.index,
		"size": len(p.creds),
	}).Info("Rotated YouTube API credential")
}
