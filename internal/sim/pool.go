package sim

import (
	"sync"

	"github.com/san-kum/fibersag/internal/dynamo"
)

// SnapshotPool recycles snapshot buffers for chains of a fixed size.
type SnapshotPool struct {
	pool sync.Pool
	size int
}

func NewSnapshotPool(nodes int) *SnapshotPool {
	return &SnapshotPool{
		size: nodes,
		pool: sync.Pool{
			New: func() interface{} {
				return &dynamo.Snapshot{
					Positions:  make([]dynamo.Vector2D, nodes),
					Velocities: make([]dynamo.Vector2D, nodes),
				}
			},
		},
	}
}

func (p *SnapshotPool) Get() *dynamo.Snapshot {
	return p.pool.Get().(*dynamo.Snapshot)
}

// Put returns s to the pool. Snapshots of a different size are dropped.
func (p *SnapshotPool) Put(s *dynamo.Snapshot) {
	if s == nil || cap(s.Positions) != p.size || cap(s.Velocities) != p.size {
		return
	}
	*s = dynamo.Snapshot{Positions: s.Positions[:p.size], Velocities: s.Velocities[:p.size]}
	p.pool.Put(s)
}

// GetAndCopy returns a pooled snapshot holding a copy of src.
func (p *SnapshotPool) GetAndCopy(src dynamo.Snapshot) *dynamo.Snapshot {
	dst := p.Get()
	positions := append(dst.Positions[:0], src.Positions...)
	velocities := append(dst.Velocities[:0], src.Velocities...)
	*dst = src
	dst.Positions, dst.Velocities = positions, velocities
	return dst
}
