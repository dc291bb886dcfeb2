package core

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
	"testing"

	"rtcuptime/protocol"
)

// fetchDictionary reads the dictionary through identify commands
func fetchDictionary(t *testing.T, h *commandHarness) []byte {
	t.Helper()
	var blob []byte
	for {
		h.deliver(protocol.CmdIdentify, uint32(len(blob)), identifyChunkMax)

		var chunk []byte
		data := h.out.Result()
		for len(data) > 0 {
			frame, n, err := protocol.NextFrame(data)
			if err != nil {
				t.Fatalf("Bad frame in output: %v", err)
			}
			data = data[n:]
			p := frame.Payload
			if len(p) == 0 {
				continue
			}
			var id, offset uint32
			if err := protocol.DecodeVLQUints(&p, &id, &offset); err != nil {
				t.Fatalf("Bad identify_response: %v", err)
			}
			if uint16(id) != protocol.RspIdentify || offset != uint32(len(blob)) {
				t.Fatalf("Unexpected response id=%d offset=%d", id, offset)
			}
			if chunk, err = protocol.DecodeVLQBytes(&p); err != nil {
				t.Fatalf("Bad identify data: %v", err)
			}
			chunk = append([]byte(nil), chunk...)
		}
		h.out.Reset()

		if len(chunk) == 0 {
			return blob
		}
		if len(chunk) > identifyChunkMax {
			t.Fatalf("Chunk of %d bytes exceeds %d", len(chunk), identifyChunkMax)
		}
		blob = append(blob, chunk...)
	}
}

func TestIdentifyDictionary(t *testing.T) {
	h := newCommandHarness(t)
	blob := fetchDictionary(t, h)

	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("Dictionary is not a zlib stream: %v", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}

	var dict struct {
		Version   string            `json:"version"`
		Config    map[string]string `json:"config"`
		Commands  map[string]int    `json:"commands"`
		Responses map[string]int    `json:"responses"`
	}
	if err := json.Unmarshal(raw, &dict); err != nil {
		t.Fatalf("Dictionary is not valid JSON: %v\n%s", err, raw)
	}

	if dict.Config["CLOCK_FREQ"] != "32768" || dict.Config["RTC_CHANNELS"] != "4" || dict.Config["RTC_WIDTH"] != "24" {
		t.Errorf("Unexpected config %v", dict.Config)
	}
	if id := dict.Commands["alarm_set channel=%c clock=%u interval=%u"]; id != int(protocol.CmdAlarmSet) {
		t.Errorf("alarm_set id = %d, want %d", id, protocol.CmdAlarmSet)
	}
	if id := dict.Responses["alarm_fired channel=%c clock=%u"]; id != int(protocol.RspAlarmFired) {
		t.Errorf("alarm_fired id = %d, want %d", id, protocol.RspAlarmFired)
	}
	if _, ok := dict.Commands["config clock_freq=%u channels=%c width=%c"]; ok {
		t.Error("Response listed as a command")
	}
}

func TestDictionaryConstantInvalidatesCache(t *testing.T) {
	reg := NewCommandRegistry()
	d := NewDictionary(reg)
	d.AddConstant("A", "1")
	first := d.Data()

	d.AddConstant("A", "1")
	if &d.Data()[0] != &first[0] {
		t.Error("Unchanged constant rebuilt the dictionary")
	}

	d.AddConstant("A", "2")
	if bytes.Equal(d.Data(), first) {
		t.Error("Changed constant did not rebuild the dictionary")
	}
}

func TestDictionaryChunkBounds(t *testing.T) {
	d := NewDictionary(NewCommandRegistry())
	size := uint32(len(d.Data()))

	if got := d.Chunk(size-2, 10); len(got) != 2 {
		t.Errorf("Tail chunk has %d bytes, want 2", len(got))
	}
	if got := d.Chunk(size, 10); len(got) != 0 {
		t.Errorf("Chunk past end has %d bytes", len(got))
	}
}
