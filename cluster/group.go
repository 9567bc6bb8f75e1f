// Package cluster runs the distributed pass: one coordinator rank that
// owns the full image and N-1 worker ranks, synchronized by exactly
// three collectives (broadcast, scatter, gather). Between collectives
// each rank works on its own disjoint row-block; there is no other
// cross-rank communication and no shared mutable state.
package cluster

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-raster/partition"
	"github.com/nvr-ai/go-raster/raster"
)

// ErrAborted is returned from a collective when the run was terminated
// group-wide. Ranks blocked inside a collective observe it instead of
// waiting on a peer that will never arrive.
var ErrAborted = errors.New("cluster: run aborted")

// header is the metadata broadcast from the coordinator before any
// pixel moves. Every rank must observe identical values; each rank then
// recomputes the identical partition table from them.
type header struct {
	width     int
	height    int
	channels  int
	newWidth  int
	newHeight int
	filter    raster.Filter
	strategy  partition.OutputStrategy
}

// group is one process group of size ranks. Rank 0 is the coordinator.
// The per-rank channels are unbuffered: every collective blocks each
// participant until its counterpart has entered the same collective.
type group struct {
	size  int
	bcast []chan header
	scat  []chan []byte
	gath  []chan []byte

	abort     chan struct{}
	abortOnce sync.Once
}

func newGroup(size int) *group {
	g := &group{
		size:  size,
		bcast: make([]chan header, size),
		scat:  make([]chan []byte, size),
		gath:  make([]chan []byte, size),
		abort: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		g.bcast[i] = make(chan header)
		g.scat[i] = make(chan []byte)
		g.gath[i] = make(chan []byte)
	}
	return g
}

// Abort terminates the run group-wide. Safe to call from any rank, any
// number of times; every rank inside or entering a collective unblocks
// with ErrAborted.
func (g *group) Abort() {
	g.abortOnce.Do(func() { close(g.abort) })
}

// broadcast delivers h from rank 0 to every rank. The coordinator
// passes the header; workers pass the zero value and receive the
// coordinator's.
func (g *group) broadcast(rank int, h header) (header, error) {
	if rank == 0 {
		for i := 1; i < g.size; i++ {
			select {
			case g.bcast[i] <- h:
			case <-g.abort:
				return header{}, ErrAborted
			}
		}
		return h, nil
	}
	select {
	case recv := <-g.bcast[rank]:
		return recv, nil
	case <-g.abort:
		return header{}, ErrAborted
	}
}

// scatter distributes full according to the counts/displs tables: one
// send per worker, with rank 0 retaining its own block locally. Workers
// pass nil tables and receive their block. Every rank gets back an
// exclusively owned copy.
func (g *group) scatter(rank int, full []byte, counts, displs []int) ([]byte, error) {
	if rank == 0 {
		for i := 1; i < g.size; i++ {
			block := append([]byte(nil), full[displs[i]:displs[i]+counts[i]]...)
			select {
			case g.scat[i] <- block:
			case <-g.abort:
				return nil, ErrAborted
			}
		}
		return append([]byte(nil), full[displs[0]:displs[0]+counts[0]]...), nil
	}
	select {
	case block := <-g.scat[rank]:
		return block, nil
	case <-g.abort:
		return nil, ErrAborted
	}
}

// gather collects every rank's local block into out at the offsets in
// displs. Only rank 0 passes out and the tables; workers send their
// block and return.
func (g *group) gather(rank int, local []byte, out []byte, counts, displs []int) error {
	if rank != 0 {
		select {
		case g.gath[rank] <- local:
			return nil
		case <-g.abort:
			return ErrAborted
		}
	}

	copy(out[displs[0]:], local)
	for i := 1; i < g.size; i++ {
		select {
		case block := <-g.gath[i]:
			if len(block) != counts[i] {
				return errors.Errorf("gather: rank %d sent %d bytes, want %d", i, len(block), counts[i])
			}
			copy(out[displs[i]:], block)
		case <-g.abort:
			return ErrAborted
		}
	}
	return nil
}
