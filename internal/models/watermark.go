package models

import (
	"encoding/json"
	"strconv"
)

// WatermarkAsset is the overlay fetched from the blob store for one request.
type WatermarkAsset struct {
	Key       string
	SourceURL string
	Data      []byte
	Width     int
	Height    int
}

// NoWatermark is returned by the resolver when the pipeline must continue
// without an overlay.
var NoWatermark = &WatermarkAsset{}

func (a *WatermarkAsset) Present() bool {
	return a != nil && len(a.Data) > 0
}

type AnchorMode string

const (
	AnchorCorner AnchorMode = "corner"
	AnchorCenter AnchorMode = "center"
)

type Anchor struct {
	Mode    AnchorMode
	OffsetX int
	OffsetY int
}

// CompositingDirective carries the overlay parameters shared by both strategies.
type CompositingDirective struct {
	Strategy string
	Opacity  float64
	Scale    float64
	Width    int
	Height   int
	Anchor   Anchor
}

// Coordinate is an absolute pixel offset or a percentage anchor resolved by
// the hosting service against each rendered variant.
type Coordinate struct {
	Value   int
	Percent bool
}

func (c Coordinate) String() string {
	if c.Percent {
		return strconv.Itoa(c.Value) + "%"
	}
	return strconv.Itoa(c.Value)
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c.Percent {
		return json.Marshal(c.String())
	}
	return json.Marshal(c.Value)
}

// DrawInstruction is the remote compositing directive sent as upload metadata.
type DrawInstruction struct {
	URL     string     `json:"url"`
	Opacity float64    `json:"opacity"`
	Width   int        `json:"width"`
	X       Coordinate `json:"x"`
	Y       Coordinate `json:"y"`
}
