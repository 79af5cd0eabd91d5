package stream

// frameRing is a fixed-capacity circular buffer of multichannel frames.
// When full, writes overwrite the oldest frames. It is not safe for
// concurrent use; Inlet guards it.
type frameRing struct {
	channels   int
	capacity   int
	samples    []float64 // capacity x channels, frame-major
	timestamps []float64
	writePos   int
	readPos    int
	count      int
}

func newFrameRing(channels, capacity int) *frameRing {
	return &frameRing{
		channels:   channels,
		capacity:   capacity,
		samples:    make([]float64, channels*capacity),
		timestamps: make([]float64, capacity),
	}
}

// write appends n frames from channel-major data and returns how many
// buffered frames were overwritten to make room.
func (r *frameRing) write(data [][]float64, timestamps []float64, n int) int {
	overwritten := 0
	for i := range n {
		base := r.writePos * r.channels
		for ch := range r.channels {
			r.samples[base+ch] = data[ch][i]
		}
		r.timestamps[r.writePos] = timestamps[i]
		r.writePos = (r.writePos + 1) % r.capacity

		if r.count < r.capacity {
			r.count++
		} else {
			// Buffer full, the oldest frame is gone
			r.readPos = (r.readPos + 1) % r.capacity
			overwritten++
		}
	}
	return overwritten
}

// read consumes up to n frames into channel-major dst rows and returns how
// many were read.
func (r *frameRing) read(dst [][]float64, timestamps []float64, n int) int {
	read := 0
	for read < n && r.count > 0 {
		base := r.readPos * r.channels
		for ch := range r.channels {
			dst[ch][read] = r.samples[base+ch]
		}
		timestamps[read] = r.timestamps[r.readPos]
		r.readPos = (r.readPos + 1) % r.capacity
		r.count--
		read++
	}
	return read
}

// available returns number of frames buffered
func (r *frameRing) available() int {
	return r.count
}

// clear empties the ring and returns how many frames were discarded
func (r *frameRing) clear() int {
	n := r.count
	r.writePos = 0
	r.readPos = 0
	r.count = 0
	return n
}
