package core

import (
	"sync"

	"rtcuptime/tinycompress"
)

// Constant is a firmware constant exposed to the host
type Constant struct {
	Name  string
	Value string
}

// Dictionary describes the firmware to the host: version, constants and the
// format of every command and response. The host fetches it zlib-compressed
// through the identify command.
type Dictionary struct {
	mu        sync.Mutex
	reg       *CommandRegistry
	version   string
	constants []Constant
	cached    []byte
}

var globalDictionary = NewDictionary(globalRegistry)

// NewDictionary creates a dictionary over a command registry
func NewDictionary(reg *CommandRegistry) *Dictionary {
	return &Dictionary{
		reg:     reg,
		version: "rtcuptime-0.1.0",
	}
}

// GetGlobalDictionary returns the dictionary served by the firmware
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// RegisterConstant sets a constant in the global dictionary
func RegisterConstant(name, value string) {
	globalDictionary.AddConstant(name, value)
}

// AddConstant sets a constant, replacing an existing one of the same name
func (d *Dictionary) AddConstant(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.constants {
		if d.constants[i].Name == name {
			if d.constants[i].Value != value {
				d.constants[i].Value = value
				d.cached = nil
			}
			return
		}
	}
	d.constants = append(d.constants, Constant{Name: name, Value: value})
	d.cached = nil
}

// SetVersion sets the firmware version string
func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

// Invalidate drops the cached encoding, e.g. after registering commands
func (d *Dictionary) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

// Data returns the compressed dictionary, building it on first use
func (d *Dictionary) Data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached == nil {
		d.cached = tinycompress.Compress(d.buildJSON())
		DebugPrintln("[DICT] built, " + utoa(uint32(len(d.cached))) + " bytes")
	}
	return d.cached
}

// Chunk returns up to count bytes of the compressed dictionary at offset.
// An empty chunk marks the end.
func (d *Dictionary) Chunk(offset uint32, count uint32) []byte {
	data := d.Data()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + count
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return data[offset:end]
}

// buildJSON renders the dictionary. Built by hand: encoding/json is heavy on
// small targets and every string here is a plain identifier.
func (d *Dictionary) buildJSON() []byte {
	out := make([]byte, 0, 512)
	out = append(out, `{"version":"`...)
	out = append(out, d.version...)
	out = append(out, `","config":{`...)
	for i, c := range d.constants {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, c.Name...)
		out = append(out, `":"`...)
		out = append(out, c.Value...)
		out = append(out, '"')
	}

	var commands, responses []byte
	for _, cmd := range d.reg.Commands() {
		entry := make([]byte, 0, 64)
		entry = append(entry, '"')
		entry = append(entry, cmd.Name...)
		if cmd.Format != "" {
			entry = append(entry, ' ')
			entry = append(entry, cmd.Format...)
		}
		entry = append(entry, `":`...)
		entry = append(entry, utoa(uint32(cmd.ID))...)

		if cmd.Handler != nil {
			commands = appendMember(commands, entry)
		} else {
			responses = appendMember(responses, entry)
		}
	}

	out = append(out, `},"commands":{`...)
	out = append(out, commands...)
	out = append(out, `},"responses":{`...)
	out = append(out, responses...)
	out = append(out, "}}"...)
	return out
}

func appendMember(list, entry []byte) []byte {
	if len(list) > 0 {
		list = append(list, ',')
	}
	return append(list, entry...)
}
