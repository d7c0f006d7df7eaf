package protocol

import "sync"

// ReadBufferSize fits any UDP datagram.
const ReadBufferSize = 65535

// datagramPool reuses receive buffers across the socket read loops.
var datagramPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufferSize)
		return &buf
	},
}

// GetDatagramBuffer retrieves a ReadBufferSize byte buffer from the pool.
func GetDatagramBuffer() *[]byte {
	return datagramPool.Get().(*[]byte)
}

// PutDatagramBuffer returns a buffer to the pool. Buffers of the wrong
// capacity are dropped rather than pooled.
func PutDatagramBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != ReadBufferSize {
		return
	}
	*buf = (*buf)[:ReadBufferSize]
	datagramPool.Put(buf)
}
