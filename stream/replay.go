package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/RyanBlaney/alpha-switch/eeg"
)

// ReplayOutlet plays a recorded EDF session back at the nominal sample rate,
// so a demo can be rehearsed without an amplifier attached.
//
// EDF signals are taken in file order and mapped onto the eeg channels of
// the layout in layout order; EDF+ annotation signals are skipped and misc
// channels replay as zeros.
type ReplayOutlet struct {
	info     Info
	data     [][]float64 // layout channels x samples
	length   int
	loop     bool
	block    time.Duration
	pos      int
	produced int64
}

// LoadReplay reads an EDF recording from path
func LoadReplay(path string, info Info, loop bool) (*ReplayOutlet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return NewReplayOutlet(bytes.NewReader(raw), info, loop)
}

// NewReplayOutlet decodes every signal of an EDF recording up front
func NewReplayOutlet(r io.ReadSeeker, info Info, loop bool) (*ReplayOutlet, error) {
	if info.Layout == nil || info.SampleRate <= 0 {
		return nil, fmt.Errorf("replay stream needs a layout and a sample rate")
	}

	labels, err := signalLabels(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording header: %w", err)
	}

	reader, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}

	picks, _, err := info.Layout.Pick(eeg.TypeEEG)
	if err != nil {
		return nil, err
	}

	var signals []int
	for i, label := range labels {
		if label != annotationsLabel {
			signals = append(signals, i)
		}
	}
	if len(signals) < len(picks) {
		return nil, fmt.Errorf("recording has %d data signals, layout needs %d",
			len(signals), len(picks))
	}

	data := make([][]float64, info.Layout.Len())
	length := -1
	for i, ch := range picks {
		signal := signals[i]
		sr, err := reader.Signal(signal)
		if err != nil {
			return nil, fmt.Errorf("recording has no signal %d for channel %s: %w",
				signal, info.Layout.Channel(ch).Name, err)
		}
		samples, err := readSignal(sr)
		if err != nil {
			return nil, fmt.Errorf("failed to read signal %d: %w", signal, err)
		}
		data[ch] = samples
		if length < 0 || len(samples) < length {
			length = len(samples)
		}
	}

	if length <= 0 {
		return nil, fmt.Errorf("recording contains no samples")
	}

	for ch := range data {
		if data[ch] == nil {
			data[ch] = make([]float64, length)
		} else {
			data[ch] = data[ch][:length]
		}
	}

	return &ReplayOutlet{
		info:   info,
		data:   data,
		length: length,
		loop:   loop,
		block:  DefaultBlockDuration,
	}, nil
}

// annotationsLabel names the EDF+ signal that carries timestamped text
// rather than samples
const annotationsLabel = "EDF Annotations"

// signalLabels reads the signal labels from the fixed-width EDF header and
// rewinds r. The edf reader keeps its parsed header private.
func signalLabels(r io.ReadSeeker) ([]string, error) {
	fixed := make([]byte, 256)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(fixed[252:256])))
	if err != nil {
		return nil, fmt.Errorf("bad signal count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("bad signal count %d", count)
	}

	raw := make([]byte, 16*count)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	labels := make([]string, count)
	for i := range labels {
		labels[i] = strings.TrimSpace(string(raw[16*i : 16*(i+1)]))
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return labels, nil
}

func readSignal(sr *edf.SignalReader) ([]float64, error) {
	var out []float64
	buf := make([]float64, 4096)
	for {
		n, err := sr.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Info implements Outlet
func (p *ReplayOutlet) Info() Info {
	return p.info
}

// Len returns the recording length in samples
func (p *ReplayOutlet) Len() int {
	return p.length
}

// Generate returns up to n next samples. Without looping it returns fewer
// once the recording is exhausted, and io.EOF when nothing is left.
func (p *ReplayOutlet) Generate(n int) ([][]float64, []float64, error) {
	if !p.loop {
		n = min(n, p.length-p.pos)
		if n <= 0 {
			return nil, nil, io.EOF
		}
	}

	data := make([][]float64, len(p.data))
	for ch := range data {
		data[ch] = make([]float64, n)
	}
	timestamps := make([]float64, n)

	for i := range n {
		for ch := range data {
			data[ch][i] = p.data[ch][p.pos]
		}
		timestamps[i] = float64(p.produced+int64(i)) / p.info.SampleRate
		p.pos++
		if p.pos == p.length && p.loop {
			p.pos = 0
		}
	}

	p.produced += int64(n)
	return data, timestamps, nil
}

// Fill pushes up to n samples immediately
func (p *ReplayOutlet) Fill(dst Pusher, n int) error {
	data, ts, err := p.Generate(n)
	if err != nil {
		return err
	}
	return dst.Push(data, ts)
}

// Run implements Outlet. It returns nil when a non-looping recording ends.
func (p *ReplayOutlet) Run(ctx context.Context, dst Pusher) error {
	err := pace(ctx, p.info.SampleRate, p.block, func(n int) error {
		return p.Fill(dst, n)
	})
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
