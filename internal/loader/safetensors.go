// Package loader reads model checkpoints in the safetensors format and
// produces float32 state dicts ready for the model converters.
//
// Format: 8 bytes little-endian header size, a JSON header mapping tensor
// names to dtype/shape/offsets, then the raw tensor data.
package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

const maxHeaderSize = 100 * 1024 * 1024

// TensorInfo describes one tensor in a safetensors header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

type header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

func (h *header) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if metadata, ok := raw["__metadata__"]; ok {
		if err := json.Unmarshal(metadata, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	h.Tensors = make(map[string]TensorInfo, len(raw))
	for name, value := range raw {
		if name == "__metadata__" {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %q: %w", name, err)
		}
		h.Tensors[name] = info
	}
	return nil
}

// SafeTensorsReader reads tensors from a single safetensors file. Half
// precision tensors (F16, BF16) are widened to float32 on load.
type SafeTensorsReader struct {
	file       *os.File
	header     header
	dataOffset int64
}

// NewSafeTensorsReader opens a safetensors file and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("invalid header size %d", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	return &SafeTensorsReader{
		file:       file,
		header:     h,
		dataOffset: int64(8 + headerSize),
	}, nil
}

func (r *SafeTensorsReader) Close() error {
	return r.file.Close()
}

// Metadata returns the optional __metadata__ map.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the names of all tensors in the file.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	return names
}

func (r *SafeTensorsReader) readData(name string) (TensorInfo, []byte, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return info, nil, fmt.Errorf("tensor %q not found", name)
	}
	size := info.DataOffsets[1] - info.DataOffsets[0]
	if size < 0 {
		return info, nil, fmt.Errorf("invalid data offsets for tensor %q", name)
	}
	if _, err := r.file.Seek(r.dataOffset+info.DataOffsets[0], io.SeekStart); err != nil {
		return info, nil, fmt.Errorf("failed to seek to tensor %q: %w", name, err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return info, nil, fmt.Errorf("failed to read tensor %q: %w", name, err)
	}
	return info, data, nil
}

// LoadTensor reads one tensor, widening half precision to float32 and
// narrowing I64 ids to int32.
func (r *SafeTensorsReader) LoadTensor(name string, device tensor.Device) (*tensor.Tensor, error) {
	info, data, err := r.readData(name)
	if err != nil {
		return nil, err
	}
	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %q: %w", name, err)
	}

	switch info.DType {
	case "F32":
		out, err := tensor.New(shape, tensor.Float32, device)
		if err != nil {
			return nil, err
		}
		dst := out.AsFloat32()
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil

	case "F16":
		out, err := tensor.New(shape, tensor.Float32, device)
		if err != nil {
			return nil, err
		}
		dst := out.AsFloat32()
		for i := range dst {
			dst[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
		return out, nil

	case "BF16":
		out, err := tensor.New(shape, tensor.Float32, device)
		if err != nil {
			return nil, err
		}
		copy(out.AsFloat32(), bfloat16.DecodeFloat32(data))
		return out, nil

	case "I32":
		out, err := tensor.New(shape, tensor.Int32, device)
		if err != nil {
			return nil, err
		}
		dst := out.AsInt32()
		for i := range dst {
			dst[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil

	case "I64":
		out, err := tensor.New(shape, tensor.Int32, device)
		if err != nil {
			return nil, err
		}
		dst := out.AsInt32()
		for i := range dst {
			dst[i] = int32(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported dtype %q for tensor %q", info.DType, name)
	}
}

// LoadStateDict reads every tensor of the file.
func (r *SafeTensorsReader) LoadStateDict(device tensor.Device) (map[string]*tensor.Tensor, error) {
	stateDict := make(map[string]*tensor.Tensor, len(r.header.Tensors))
	for name := range r.header.Tensors {
		t, err := r.LoadTensor(name, device)
		if err != nil {
			return nil, err
		}
		stateDict[name] = t
	}
	return stateDict, nil
}

// shardIndex is the model.safetensors.index.json layout of sharded
// checkpoints.
type shardIndex struct {
	WeightMap map[string]string `json:"weight_map"`
}

// LoadCheckpoint loads a state dict from either a single safetensors file
// or a sharded checkpoint index.
func LoadCheckpoint(path string, device tensor.Device) (map[string]*tensor.Tensor, error) {
	if filepath.Ext(path) != ".json" {
		r, err := NewSafeTensorsReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.LoadStateDict(device)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint index: %w", err)
	}
	var index shardIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint index: %w", err)
	}

	shards := make(map[string]struct{})
	for _, shard := range index.WeightMap {
		shards[shard] = struct{}{}
	}
	stateDict := make(map[string]*tensor.Tensor)
	dir := filepath.Dir(path)
	for shard := range shards {
		r, err := NewSafeTensorsReader(filepath.Join(dir, shard))
		if err != nil {
			return nil, err
		}
		part, err := r.LoadStateDict(device)
		closeErr := r.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
		for name, t := range part {
			stateDict[name] = t
		}
	}
	return stateDict, nil
}
