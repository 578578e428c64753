package dirseek

import "sync"

// ReaderPool shares Readers between goroutines. Each caller gets a Reader
// for its exclusive use; Readers returned beyond the pool's capacity are
// closed.
type ReaderPool struct {
	env     Env
	dbi     DBI
	readers chan *Reader

	// mu orders Put against Close so no reader is parked after the drain.
	mu     sync.Mutex
	closed bool
}

// NewReaderPool returns a pool keeping at most size idle readers.
func NewReaderPool(env Env, dbi DBI, size int) *ReaderPool {
	if size < 1 {
		size = 1
	}
	return &ReaderPool{env: env, dbi: dbi, readers: make(chan *Reader, size)}
}

// Get takes an idle Reader or creates one.
func (p *ReaderPool) Get() *Reader {
	select {
	case r := <-p.readers:
		return r
	default:
		return NewReader(p.env, p.dbi)
	}
}

// Put releases r and keeps it for reuse.
func (p *ReaderPool) Put(r *Reader) {
	if r == nil {
		return
	}
	r.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		r.Close()
		return
	}
	select {
	case p.readers <- r:
	default:
		// Pool is full
		r.Close()
	}
}

// FindDup runs Reader.FindDup on a pooled reader.
func (p *ReaderPool) FindDup(dir Lookup, key, val []byte) ([]byte, []byte, error) {
	r := p.Get()
	defer p.Put(r)
	return r.FindDup(dir, key, val)
}

// Find runs Reader.Find on a pooled reader.
func (p *ReaderPool) Find(dir Lookup, key []byte) ([]byte, []byte, error) {
	r := p.Get()
	defer p.Put(r)
	return r.Find(dir, key)
}

// Close closes the idle readers. Readers still held by callers are closed
// when they are put back.
func (p *ReaderPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for {
		select {
		case r := <-p.readers:
			r.Close()
		default:
			return
		}
	}
}
