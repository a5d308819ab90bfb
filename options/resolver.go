package options

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/t2bot/media-converter/common"
)

// Payload is the batch options document: original file name to a loosely typed options record.
type Payload map[string]json.RawMessage

// Item is anything the resolver can attach a configuration to.
type Item interface {
	OriginalName() string
	MediaKind() common.Kind
}

type Resolved map[Item]ConversionConfig

// Parse never fails. Anything that is not a JSON object becomes an empty payload.
func Parse(raw []byte) Payload {
	p := make(Payload)
	if len(bytes.TrimSpace(raw)) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return make(Payload)
	}
	return p
}

type Resolver struct {
	MaxDimension int
}

func NewResolver(maxDimension int) *Resolver {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Resolver{MaxDimension: maxDimension}
}

func Resolve(payload Payload, items []Item) Resolved {
	return NewResolver(DefaultMaxDimension).Resolve(payload, items)
}

// Resolve produces a configuration for every item, falling back to defaults where the payload has
// nothing usable. Items sharing an original name share the entry.
func (r *Resolver) Resolve(payload Payload, items []Item) Resolved {
	resolved := make(Resolved, len(items))
	for _, item := range items {
		fields := entryFields(payload, item.OriginalName())
		switch item.MediaKind() {
		case common.KindAudio:
			resolved[item] = r.audio(fields)
		default:
			resolved[item] = r.image(fields)
		}
	}
	return resolved
}

func (r *Resolver) image(fields map[string]json.RawMessage) ImageConfig {
	c := DefaultImageConfig()
	if q, ok := number(fields["quality"]); ok && !math.IsNaN(q) {
		c.Quality = int(math.Round(clamp(q, MinQuality, MaxQuality)))
	}
	c.Width = r.dimension(fields["width"])
	c.Height = r.dimension(fields["height"])
	return c
}

func (r *Resolver) dimension(raw json.RawMessage) int {
	v, ok := number(raw)
	if !ok || math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > float64(r.MaxDimension) {
		return r.MaxDimension
	}
	d := int(math.Round(v))
	if d < 1 {
		return 0
	}
	return d
}

func (r *Resolver) audio(fields map[string]json.RawMessage) AudioConfig {
	c := DefaultAudioConfig()
	if b, ok := parseBitrate(fields["bitrate"]); ok {
		c.Bitrate = b
	}
	if ch, ok := parseChannels(fields["channels"]); ok {
		c.Channels = ch
	}
	if s, ok := number(fields["speed"]); ok && !math.IsNaN(s) {
		c.Speed = clamp(s, MinSpeed, MaxSpeed)
	}
	return c
}

func entryFields(payload Payload, name string) map[string]json.RawMessage {
	raw, ok := payload[name]
	if !ok {
		return nil
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

// number accepts a JSON number or a string holding one.
func number(raw json.RawMessage) (float64, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	s, ok := text(raw)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func text(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseBitrate(raw json.RawMessage) (Bitrate, bool) {
	var kbps float64
	if s, ok := text(raw); ok {
		s = strings.TrimSuffix(strings.ToLower(s), "k")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", false
		}
		kbps = f
	} else if f, ok := number(raw); ok {
		kbps = f
	} else {
		return "", false
	}

	if kbps >= 1000 {
		kbps /= 1000
	}
	switch kbps {
	case 128:
		return Bitrate128, true
	case 192:
		return Bitrate192, true
	case 320:
		return Bitrate320, true
	}
	return "", false
}

func parseChannels(raw json.RawMessage) (Channels, bool) {
	if s, ok := text(raw); ok {
		switch strings.ToLower(s) {
		case "mono", "1":
			return Mono, true
		case "stereo", "2":
			return Stereo, true
		}
		return 0, false
	}
	if f, ok := number(raw); ok {
		switch f {
		case 1:
			return Mono, true
		case 2:
			return Stereo, true
		}
	}
	return 0, false
}

func clamp(v float64, min float64, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
