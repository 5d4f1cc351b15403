package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"ttsloader/internal/common/fsutil"
	"ttsloader/internal/modelerr"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

type wavCodec struct {
	name   string
	format uint16
	bits   uint16
}

func (w wavCodec) Name() string { return w.name }

type fmtChunk struct {
	Format     uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
}

// Decode reads PCM (8/16/24/32-bit) or IEEE float (32/64-bit) WAV data,
// normalizing integer samples to [-1, 1].
func (w wavCodec) Decode(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, err
	}
	return decodeWAV(data)
}

func decodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, modelerr.Format("not a RIFF/WAVE file", nil)
	}
	var (
		hdr     fmtChunk
		haveFmt bool
		body    []byte
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		start := off + 8
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-start < 16 {
				return Clip{}, modelerr.Format("short fmt chunk", nil)
			}
			if err := binary.Read(bytes.NewReader(data[start:start+16]), binary.LittleEndian, &hdr); err != nil {
				return Clip{}, modelerr.Format("fmt chunk", err)
			}
			if hdr.Format == formatExtensible && end-start >= 26 {
				hdr.Format = binary.LittleEndian.Uint16(data[start+24 : start+26])
			}
			haveFmt = true
		case "data":
			body = data[start:end]
		}
		// chunks are word aligned
		off = start + size + size%2
	}
	if !haveFmt {
		return Clip{}, modelerr.Format("missing fmt chunk", nil)
	}
	if hdr.Channels == 0 || hdr.SampleRate == 0 {
		return Clip{}, modelerr.Format(fmt.Sprintf("invalid header: channels=%d rate=%d", hdr.Channels, hdr.SampleRate), nil)
	}
	samples, err := decodeSamples(hdr, body)
	if err != nil {
		return Clip{}, err
	}
	return Clip{SampleRate: int(hdr.SampleRate), Channels: int(hdr.Channels), Samples: samples}, nil
}

func decodeSamples(h fmtChunk, body []byte) ([]float32, error) {
	width := int(h.Bits) / 8
	if width == 0 {
		return nil, modelerr.Format("zero bit depth", nil)
	}
	n := len(body) / width
	out := make([]float32, n)
	le := binary.LittleEndian
	switch {
	case h.Format == formatPCM && h.Bits == 8:
		for i := range out {
			out[i] = (float32(body[i]) - 128) / 128
		}
	case h.Format == formatPCM && h.Bits == 16:
		for i := range out {
			out[i] = float32(int16(le.Uint16(body[i*2:]))) / 32768
		}
	case h.Format == formatPCM && h.Bits == 24:
		for i := range out {
			b := body[i*3:]
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			out[i] = float32(v) / 8388608
		}
	case h.Format == formatPCM && h.Bits == 32:
		for i := range out {
			out[i] = float32(float64(int32(le.Uint32(body[i*4:]))) / 2147483648)
		}
	case h.Format == formatFloat && h.Bits == 32:
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(body[i*4:]))
		}
	case h.Format == formatFloat && h.Bits == 64:
		for i := range out {
			out[i] = float32(math.Float64frombits(le.Uint64(body[i*8:])))
		}
	default:
		return nil, modelerr.Format(fmt.Sprintf("unsupported wav encoding: format=%d bits=%d", h.Format, h.Bits), nil)
	}
	return out, nil
}

// Encode writes the clip in the codec's sample format. PCM output clamps
// samples to [-1, 1].
func (w wavCodec) Encode(path string, c Clip) error {
	b, err := w.encode(c)
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(path, b, 0o644)
}

func (w wavCodec) encode(c Clip) ([]byte, error) {
	if c.Channels <= 0 || c.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid clip: channels=%d rate=%d", c.Channels, c.SampleRate)
	}
	width := int(w.bits) / 8
	dataLen := len(c.Samples) * width
	hdr := fmtChunk{
		Format:     w.format,
		Channels:   uint16(c.Channels),
		SampleRate: uint32(c.SampleRate),
		ByteRate:   uint32(c.SampleRate * c.Channels * width),
		BlockAlign: uint16(c.Channels * width),
		Bits:       w.bits,
	}
	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, hdr)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	sample := make([]byte, width)
	for _, s := range c.Samples {
		if w.format == formatFloat {
			binary.LittleEndian.PutUint32(sample, math.Float32bits(s))
		} else {
			binary.LittleEndian.PutUint16(sample, uint16(toPCM16(s)))
		}
		buf.Write(sample)
	}
	return buf.Bytes(), nil
}

func toPCM16(s float32) int16 {
	switch {
	case s >= 1:
		return math.MaxInt16
	case s <= -1:
		return math.MinInt16
	}
	return int16(math.Round(float64(s) * 32767))
}
