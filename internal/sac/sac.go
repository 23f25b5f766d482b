// Package sac reads and writes binary SAC waveform files.
//
// Only evenly sampled time series are supported. Both byte orders are
// accepted on read; files are always written little-endian.
package sac

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/rfpick/internal/model"
)

const (
	floatWords  = 70
	intWords    = 40
	charBytes   = 192
	headerBytes = floatWords*4 + intWords*4 + charBytes

	headerVersion = 6

	// Undefined marks an unset header value.
	Undefined = -12345.0
)

// Float header word indices.
const (
	Delta = 0
	B     = 5
	E     = 6
	Stla  = 31
	Stlo  = 32
	Evla  = 35
	Evlo  = 36
	Evdp  = 38
	Mag   = 39
	User0 = 40
	User1 = 41
	Baz   = 52
	Gcarc = 53
)

// Integer header word indices.
const (
	NzYear = 0
	NzJday = 1
	NzHour = 2
	NzMin  = 3
	NzSec  = 4
	NzMsec = 5
	NVHdr  = 6
	Npts   = 9
	IFType = 15
	LEven  = 35
)

const (
	itime   = 1
	kstnmAt = 0
	kstnmSz = 8

	// chunkSamples bounds each sample read so a forged npts cannot force a
	// large allocation before the data runs out.
	chunkSamples = 1 << 16
)

// ErrUnsupported reports a SAC file the reader cannot interpret.
var ErrUnsupported = errors.New("unsupported sac file")

// Header holds the raw SAC header words.
type Header struct {
	floats [floatWords]float32
	ints   [intWords]int32
	chars  [charBytes]byte
}

// NewHeader returns a header with every value undefined.
func NewHeader() Header {
	var h Header
	for i := range h.floats {
		h.floats[i] = Undefined
	}
	for i := range h.ints {
		h.ints[i] = Undefined
	}
	for i := 0; i+8 <= charBytes; i += 8 {
		copy(h.chars[i:i+8], "-12345  ")
	}
	h.ints[NVHdr] = headerVersion
	h.ints[IFType] = itime
	h.ints[LEven] = 1
	return h
}

// Float returns a float header value, or NaN when it is undefined.
func (h *Header) Float(idx int) float64 {
	v := h.floats[idx]
	if v == Undefined {
		return math.NaN()
	}
	return float64(v)
}

// SetFloat sets a float header value.
func (h *Header) SetFloat(idx int, v float64) {
	h.floats[idx] = float32(v)
}

// Int returns an integer header value and whether it is defined.
func (h *Header) Int(idx int) (int, bool) {
	v := h.ints[idx]
	return int(v), v != Undefined
}

// SetInt sets an integer header value.
func (h *Header) SetInt(idx int, v int) {
	h.ints[idx] = int32(v)
}

// Station returns the trimmed station name.
func (h *Header) Station() string {
	name := strings.TrimRight(string(h.chars[kstnmAt:kstnmAt+kstnmSz]), " \x00")
	if name == "-12345" {
		return ""
	}
	return name
}

// SetStation sets the station name.
func (h *Header) SetStation(name string) {
	field := h.chars[kstnmAt : kstnmAt+kstnmSz]
	for i := range field {
		field[i] = ' '
	}
	copy(field, name)
}

// ReferenceTime returns the header reference time, or the zero time when the
// reference fields are undefined.
func (h *Header) ReferenceTime() time.Time {
	year, ok := h.Int(NzYear)
	if !ok {
		return time.Time{}
	}
	jday, _ := h.Int(NzJday)
	hour, _ := h.Int(NzHour)
	minute, _ := h.Int(NzMin)
	sec, _ := h.Int(NzSec)
	msec, _ := h.Int(NzMsec)
	return time.Date(year, time.January, 1, hour, minute, sec, msec*int(time.Millisecond), time.UTC).AddDate(0, 0, jday-1)
}

// SetReferenceTime stores t in the nz* header fields.
func (h *Header) SetReferenceTime(t time.Time) {
	t = t.UTC()
	h.ints[NzYear] = int32(t.Year())
	h.ints[NzJday] = int32(t.YearDay())
	h.ints[NzHour] = int32(t.Hour())
	h.ints[NzMin] = int32(t.Minute())
	h.ints[NzSec] = int32(t.Second())
	h.ints[NzMsec] = int32(t.Nanosecond() / int(time.Millisecond))
}

// File is a decoded SAC file.
type File struct {
	Header Header
	Data   []float32
}

// ReadFile decodes the SAC file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only file.
			_ = cerr
		}
	}()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	file, err := decode(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Decode reads a SAC file, detecting its byte order from the header version.
func Decode(r io.Reader) (*File, error) {
	return decode(r, -1)
}

// decode reads a SAC file of size bytes, or of unknown size when size is
// negative.
func decode(r io.Reader, size int64) (*File, error) {
	raw := make([]byte, headerBytes)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	order, err := detectOrder(raw)
	if err != nil {
		return nil, err
	}
	var file File
	for i := range file.Header.floats {
		file.Header.floats[i] = math.Float32frombits(order.Uint32(raw[i*4:]))
	}
	base := floatWords * 4
	for i := range file.Header.ints {
		file.Header.ints[i] = int32(order.Uint32(raw[base+i*4:]))
	}
	copy(file.Header.chars[:], raw[base+intWords*4:])

	if even, _ := file.Header.Int(LEven); even != 1 {
		return nil, fmt.Errorf("%w: unevenly sampled data", ErrUnsupported)
	}
	npts, ok := file.Header.Int(Npts)
	if !ok || npts < 0 {
		return nil, fmt.Errorf("%w: invalid npts", ErrUnsupported)
	}
	if size >= 0 && int64(npts)*4 > size-headerBytes {
		return nil, fmt.Errorf("%w: npts %d exceeds file size %d", ErrUnsupported, npts, size)
	}
	data, err := readSamples(r, order, npts)
	if err != nil {
		return nil, err
	}
	file.Data = data
	return &file, nil
}

func readSamples(r io.Reader, order binary.ByteOrder, n int) ([]float32, error) {
	data := make([]float32, 0, min(n, chunkSamples))
	buf := make([]float32, min(n, chunkSamples))
	for len(data) < n {
		chunk := buf[:min(n-len(data), len(buf))]
		if err := binary.Read(r, order, chunk); err != nil {
			return nil, fmt.Errorf("read %d samples: %w", n, err)
		}
		data = append(data, chunk...)
	}
	return data, nil
}

func detectOrder(raw []byte) (binary.ByteOrder, error) {
	at := floatWords*4 + NVHdr*4
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		v := int32(order.Uint32(raw[at:]))
		if v > 0 && v <= 20 {
			return order, nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognized header version", ErrUnsupported)
}

// WriteFile encodes file to path.
func WriteFile(path string, file *File) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, file); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes file in little-endian byte order. Npts and E are derived from
// the data.
func Encode(w io.Writer, file *File) error {
	h := file.Header
	h.ints[Npts] = int32(len(file.Data))
	if delta := h.Float(Delta); !math.IsNaN(delta) && len(file.Data) > 0 {
		if b := h.Float(B); !math.IsNaN(b) {
			h.SetFloat(E, b+delta*float64(len(file.Data)-1))
		}
	}
	if err := binary.Write(w, binary.LittleEndian, h.floats); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.ints); err != nil {
		return err
	}
	if _, err := w.Write(h.chars[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, file.Data)
}

// Trace converts the file into the receiver-function trace model. The ray
// parameter and Gaussian width are read from user0 and user1.
func (f *File) Trace() model.Trace {
	h := &f.Header
	samples := make([]float64, len(f.Data))
	for i, v := range f.Data {
		samples[i] = float64(v)
	}
	begin := h.Float(B)
	start := h.ReferenceTime()
	if !start.IsZero() && !math.IsNaN(begin) {
		start = start.Add(time.Duration(begin * float64(time.Second)))
	}
	return model.Trace{
		Station:     h.Station(),
		Samples:     samples,
		Delta:       h.Float(Delta),
		Begin:       begin,
		End:         h.Float(E),
		StartTime:   start,
		StationLat:  h.Float(Stla),
		StationLon:  h.Float(Stlo),
		EventLat:    h.Float(Evla),
		EventLon:    h.Float(Evlo),
		EventDepth:  h.Float(Evdp),
		Magnitude:   h.Float(Mag),
		Distance:    h.Float(Gcarc),
		Backazimuth: h.Float(Baz),
		RayParam:    h.Float(User0),
		GaussWidth:  h.Float(User1),
	}
}
