package mcu

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"rtcuptime/protocol"
)

const identifyChunk = 40

var ErrBadIdentify = errors.New("identify response out of order")

// Dictionary is the firmware self-description returned by identify
type Dictionary struct {
	Version   string            `json:"version"`
	Config    map[string]string `json:"config"`
	Commands  map[string]int    `json:"commands"`
	Responses map[string]int    `json:"responses"`
}

// ConfigUint returns a numeric firmware constant
func (d *Dictionary) ConfigUint(name string) (uint32, error) {
	v, ok := d.Config[name]
	if !ok {
		return 0, fmt.Errorf("constant %s not in dictionary", name)
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("constant %s: %w", name, err)
	}
	return uint32(n), nil
}

// Identify downloads and decodes the firmware dictionary
func (m *MCU) Identify(ctx context.Context) (*Dictionary, error) {
	var blob []byte
	for {
		offset := uint32(len(blob))
		var chunk []byte
		err := m.exchange(ctx, protocol.CmdIdentify, protocol.RspIdentify,
			[]uint32{offset, identifyChunk}, func(data []byte) error {
				got, err := protocol.DecodeVLQUint(&data)
				if err != nil {
					return err
				}
				if got != offset {
					return fmt.Errorf("offset %d, want %d: %w", got, offset, ErrBadIdentify)
				}
				b, err := protocol.DecodeVLQBytes(&data)
				chunk = append(chunk, b...)
				return err
			})
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		blob = append(blob, chunk...)
	}
	return ParseDictionary(blob)
}

// ParseDictionary decodes a zlib-compressed JSON dictionary
func ParseDictionary(blob []byte) (*Dictionary, error) {
	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}

	d := &Dictionary{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	return d, nil
}
