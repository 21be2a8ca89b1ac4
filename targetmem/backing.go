package targetmem

import "github.com/rvlab/rvdbg/rvreg"

// TransportBacking adapts a debug transport's memory operations as a
// BackingStore.
type TransportBacking struct {
	transport rvreg.Transport
}

// NewTransportBacking creates a backing store over a debug transport.
func NewTransportBacking(transport rvreg.Transport) *TransportBacking {
	return &TransportBacking{transport: transport}
}

// Read fetches target memory over the debug link.
func (b *TransportBacking) Read(addr uint64, buf []byte) error {
	return b.transport.ReadMemory(addr, buf)
}

// Write stores target memory over the debug link.
func (b *TransportBacking) Write(addr uint64, data []byte) error {
	return b.transport.WriteMemory(addr, data)
}
