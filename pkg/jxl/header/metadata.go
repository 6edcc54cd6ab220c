package header

import (
	"fmt"
)

// maxExtraChannels bounds num_extra_channels
const maxExtraChannels = 256

// BitDepth describes the sample representation of a channel
type BitDepth struct {
	FloatSample   bool   `json:"floatSample"`
	BitsPerSample uint32 `json:"bitsPerSample"`
	ExponentBits  uint32 `json:"exponentBits"`
}

// DefaultBitDepth is 8-bit integer samples
func DefaultBitDepth() BitDepth {
	return BitDepth{BitsPerSample: 8}
}

var (
	intBitsDist   = [4]Distribution{Val(8), Val(10), Val(12), BitsOffset(6, 1)}
	floatBitsDist = [4]Distribution{Val(32), Val(16), Val(24), BitsOffset(6, 1)}
)

func readBitDepth(br *BitReader) (BitDepth, error) {
	var d BitDepth
	var err error
	if d.FloatSample, err = br.ReadBool(); err != nil {
		return d, err
	}
	if !d.FloatSample {
		if d.BitsPerSample, err = br.U32(intBitsDist[0], intBitsDist[1], intBitsDist[2], intBitsDist[3]); err != nil {
			return d, err
		}
		return d, d.validate()
	}
	if d.BitsPerSample, err = br.U32(floatBitsDist[0], floatBitsDist[1], floatBitsDist[2], floatBitsDist[3]); err != nil {
		return d, err
	}
	exp, err := br.ReadBits(4)
	if err != nil {
		return d, err
	}
	d.ExponentBits = exp + 1
	return d, d.validate()
}

func (d BitDepth) validate() error {
	if !d.FloatSample {
		if d.BitsPerSample < 1 || d.BitsPerSample > 31 {
			return fmt.Errorf("%w: %d bits per sample", ErrInvalidHeader, d.BitsPerSample)
		}
		return nil
	}
	if d.ExponentBits < 2 || d.ExponentBits > 8 {
		return fmt.Errorf("%w: %d exponent bits", ErrInvalidHeader, d.ExponentBits)
	}
	if d.BitsPerSample < d.ExponentBits+3 || d.BitsPerSample-d.ExponentBits-1 > 23 {
		return fmt.Errorf("%w: %d bit float with %d exponent bits", ErrInvalidHeader, d.BitsPerSample, d.ExponentBits)
	}
	return nil
}

// ExtraChannelType identifies the role of an extra channel
type ExtraChannelType uint32

const (
	ExtraChannelAlpha         ExtraChannelType = 0
	ExtraChannelDepth         ExtraChannelType = 1
	ExtraChannelSpotColor     ExtraChannelType = 2
	ExtraChannelSelectionMask ExtraChannelType = 3
	ExtraChannelBlack         ExtraChannelType = 4
	ExtraChannelCFA           ExtraChannelType = 5
	ExtraChannelThermal       ExtraChannelType = 6
	ExtraChannelUnknown       ExtraChannelType = 15
	ExtraChannelOptional      ExtraChannelType = 16
)

// String returns the extra channel type name
func (t ExtraChannelType) String() string {
	switch t {
	case ExtraChannelAlpha:
		return "Alpha"
	case ExtraChannelDepth:
		return "Depth"
	case ExtraChannelSpotColor:
		return "SpotColor"
	case ExtraChannelSelectionMask:
		return "SelectionMask"
	case ExtraChannelBlack:
		return "Black"
	case ExtraChannelCFA:
		return "CFA"
	case ExtraChannelThermal:
		return "Thermal"
	case ExtraChannelUnknown:
		return "Unknown"
	case ExtraChannelOptional:
		return "Optional"
	default:
		return fmt.Sprintf("Reserved%d", uint32(t)-7)
	}
}

// ExtraChannel describes one channel beyond the color channels
type ExtraChannel struct {
	Type            ExtraChannelType `json:"type"`
	BitDepth        BitDepth         `json:"bitDepth"`
	DimShift        uint32           `json:"dimShift"`
	Name            string           `json:"name,omitempty"`
	AlphaAssociated bool             `json:"alphaAssociated,omitempty"`
	SpotColor       [4]float32       `json:"spotColor,omitempty"`
	CFAChannel      uint32           `json:"cfaChannel,omitempty"`
}

// DefaultAlphaChannel is the all_default extra channel: 8-bit unassociated alpha
func DefaultAlphaChannel() ExtraChannel {
	return ExtraChannel{Type: ExtraChannelAlpha, BitDepth: DefaultBitDepth()}
}

func (e ExtraChannel) isDefault() bool {
	return e == DefaultAlphaChannel()
}

var (
	dimShiftDist   = [4]Distribution{Val(0), Val(3), Val(4), BitsOffset(3, 1)}
	nameLenDist    = [4]Distribution{Val(0), Bits(4), BitsOffset(5, 16), BitsOffset(10, 48)}
	cfaChannelDist = [4]Distribution{Val(1), Bits(2), BitsOffset(4, 3), BitsOffset(8, 19)}
)

func readExtraChannel(br *BitReader) (ExtraChannel, error) {
	allDefault, err := br.ReadBool()
	if err != nil || allDefault {
		return DefaultAlphaChannel(), err
	}
	var e ExtraChannel
	t, err := br.Enum()
	if err != nil {
		return e, err
	}
	if t > uint32(ExtraChannelOptional) || (t > uint32(ExtraChannelThermal) && t < uint32(ExtraChannelUnknown)) {
		return e, fmt.Errorf("%w: extra channel type %d", ErrInvalidHeader, t)
	}
	e.Type = ExtraChannelType(t)
	if e.BitDepth, err = readBitDepth(br); err != nil {
		return e, err
	}
	if e.DimShift, err = br.U32(dimShiftDist[0], dimShiftDist[1], dimShiftDist[2], dimShiftDist[3]); err != nil {
		return e, err
	}
	nameLen, err := br.U32(nameLenDist[0], nameLenDist[1], nameLenDist[2], nameLenDist[3])
	if err != nil {
		return e, err
	}
	name := make([]byte, nameLen)
	for i := range name {
		c, err := br.ReadBits(8)
		if err != nil {
			return e, err
		}
		name[i] = byte(c)
	}
	e.Name = string(name)
	switch e.Type {
	case ExtraChannelAlpha:
		if e.AlphaAssociated, err = br.ReadBool(); err != nil {
			return e, err
		}
	case ExtraChannelSpotColor:
		for i := range e.SpotColor {
			if e.SpotColor[i], err = br.F16(); err != nil {
				return e, err
			}
		}
	case ExtraChannelCFA:
		if e.CFAChannel, err = br.U32(cfaChannelDist[0], cfaChannelDist[1], cfaChannelDist[2], cfaChannelDist[3]); err != nil {
			return e, err
		}
	}
	return e, nil
}

// ColorSpace is the color model of the decoded image
type ColorSpace uint32

const (
	ColorSpaceRGB     ColorSpace = 0
	ColorSpaceGray    ColorSpace = 1
	ColorSpaceXYB     ColorSpace = 2
	ColorSpaceUnknown ColorSpace = 3
)

// String returns the color space name
func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceGray:
		return "Gray"
	case ColorSpaceXYB:
		return "XYB"
	default:
		return "Unknown"
	}
}

// MarshalText renders the color space by name
func (c ColorSpace) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by String
func (c *ColorSpace) UnmarshalText(text []byte) error {
	for _, cs := range []ColorSpace{ColorSpaceRGB, ColorSpaceGray, ColorSpaceXYB, ColorSpaceUnknown} {
		if cs.String() == string(text) {
			*c = cs
			return nil
		}
	}
	return fmt.Errorf("%w: color space %q", ErrInvalidHeader, text)
}

// Enumerated color encoding values (ISO/IEC 18181-1 Annex E / H.273)
const (
	WhitePointD65    uint32 = 1
	WhitePointCustom uint32 = 2
	WhitePointE      uint32 = 10
	WhitePointDCI    uint32 = 11

	PrimariesSRGB   uint32 = 1
	PrimariesCustom uint32 = 2
	Primaries2100   uint32 = 9
	PrimariesP3     uint32 = 11

	TransferBT709   uint32 = 1
	TransferUnknown uint32 = 2
	TransferLinear  uint32 = 8
	TransferSRGB    uint32 = 13
	TransferPQ      uint32 = 16
	TransferDCI     uint32 = 17
	TransferHLG     uint32 = 18

	IntentPerceptual uint32 = 0
	IntentRelative   uint32 = 1
	IntentSaturation uint32 = 2
	IntentAbsolute   uint32 = 3
)

// CIExy is a chromaticity coordinate scaled by 1e6
type CIExy struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// ColorEncoding describes how color samples are to be interpreted
type ColorEncoding struct {
	WantICC          bool       `json:"wantICC"`
	ColorSpace       ColorSpace `json:"colorSpace"`
	WhitePoint       uint32     `json:"whitePoint,omitempty"`
	White            CIExy      `json:"white"`
	Primaries        uint32     `json:"primaries,omitempty"`
	Red              CIExy      `json:"red"`
	Green            CIExy      `json:"green"`
	Blue             CIExy      `json:"blue"`
	HaveGamma        bool       `json:"haveGamma,omitempty"`
	Gamma            uint32     `json:"gamma,omitempty"` // scaled by 1e7
	TransferFunction uint32     `json:"transferFunction,omitempty"`
	RenderingIntent  uint32     `json:"renderingIntent"`
}

// DefaultColorEncoding is sRGB
func DefaultColorEncoding() ColorEncoding {
	return ColorEncoding{
		ColorSpace:       ColorSpaceRGB,
		WhitePoint:       WhitePointD65,
		Primaries:        PrimariesSRGB,
		TransferFunction: TransferSRGB,
		RenderingIntent:  IntentRelative,
	}
}

func (c ColorEncoding) hasWhitePoint() bool {
	return !c.WantICC && c.ColorSpace != ColorSpaceXYB
}

func (c ColorEncoding) hasPrimaries() bool {
	return c.hasWhitePoint() && c.ColorSpace != ColorSpaceGray
}

func (c ColorEncoding) hasTransfer() bool {
	return !c.WantICC && c.ColorSpace != ColorSpaceXYB
}

var xyDist = [4]Distribution{Bits(19), BitsOffset(19, 524288), BitsOffset(20, 1048576), BitsOffset(21, 2097152)}

func readCIExy(br *BitReader) (CIExy, error) {
	var c CIExy
	x, err := br.U32(xyDist[0], xyDist[1], xyDist[2], xyDist[3])
	if err != nil {
		return c, err
	}
	y, err := br.U32(xyDist[0], xyDist[1], xyDist[2], xyDist[3])
	if err != nil {
		return c, err
	}
	return CIExy{X: unpackSigned(x), Y: unpackSigned(y)}, nil
}

func unpackSigned(v uint32) int32 {
	if v&1 == 1 {
		return -int32(v>>1) - 1
	}
	return int32(v >> 1)
}

func packSigned(v int32) uint32 {
	if v < 0 {
		return uint32(-(v+1))<<1 | 1
	}
	return uint32(v) << 1
}

func validEnum(v uint32, allowed ...uint32) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func readColorEncoding(br *BitReader) (ColorEncoding, error) {
	allDefault, err := br.ReadBool()
	if err != nil || allDefault {
		return DefaultColorEncoding(), err
	}
	c := DefaultColorEncoding()
	if c.WantICC, err = br.ReadBool(); err != nil {
		return c, err
	}
	cs, err := br.Enum()
	if err != nil {
		return c, err
	}
	if cs > uint32(ColorSpaceUnknown) {
		return c, fmt.Errorf("%w: color space %d", ErrInvalidHeader, cs)
	}
	c.ColorSpace = ColorSpace(cs)
	if c.hasWhitePoint() {
		if c.WhitePoint, err = br.Enum(); err != nil {
			return c, err
		}
		if !validEnum(c.WhitePoint, WhitePointD65, WhitePointCustom, WhitePointE, WhitePointDCI) {
			return c, fmt.Errorf("%w: white point %d", ErrInvalidHeader, c.WhitePoint)
		}
		if c.WhitePoint == WhitePointCustom {
			if c.White, err = readCIExy(br); err != nil {
				return c, err
			}
		}
	}
	if c.hasPrimaries() {
		if c.Primaries, err = br.Enum(); err != nil {
			return c, err
		}
		if !validEnum(c.Primaries, PrimariesSRGB, PrimariesCustom, Primaries2100, PrimariesP3) {
			return c, fmt.Errorf("%w: primaries %d", ErrInvalidHeader, c.Primaries)
		}
		if c.Primaries == PrimariesCustom {
			for _, p := range []*CIExy{&c.Red, &c.Green, &c.Blue} {
				if *p, err = readCIExy(br); err != nil {
					return c, err
				}
			}
		}
	}
	if c.hasTransfer() {
		if c.HaveGamma, err = br.ReadBool(); err != nil {
			return c, err
		}
		if c.HaveGamma {
			if c.Gamma, err = br.ReadBits(24); err != nil {
				return c, err
			}
			if c.Gamma == 0 || c.Gamma > 10_000_000 {
				return c, fmt.Errorf("%w: gamma %d", ErrInvalidHeader, c.Gamma)
			}
		} else {
			if c.TransferFunction, err = br.Enum(); err != nil {
				return c, err
			}
			if !validEnum(c.TransferFunction, TransferBT709, TransferUnknown, TransferLinear, TransferSRGB, TransferPQ, TransferDCI, TransferHLG) {
				return c, fmt.Errorf("%w: transfer function %d", ErrInvalidHeader, c.TransferFunction)
			}
		}
	}
	if !c.WantICC {
		if c.RenderingIntent, err = br.Enum(); err != nil {
			return c, err
		}
		if c.RenderingIntent > IntentAbsolute {
			return c, fmt.Errorf("%w: rendering intent %d", ErrInvalidHeader, c.RenderingIntent)
		}
	}
	return c, nil
}

// ToneMapping carries the HDR display hints
type ToneMapping struct {
	IntensityTarget      float32 `json:"intensityTarget"`
	MinNits              float32 `json:"minNits"`
	RelativeToMaxDisplay bool    `json:"relativeToMaxDisplay"`
	LinearBelow          float32 `json:"linearBelow"`
}

// DefaultToneMapping targets 255 nits
func DefaultToneMapping() ToneMapping {
	return ToneMapping{IntensityTarget: 255}
}

func readToneMapping(br *BitReader) (ToneMapping, error) {
	allDefault, err := br.ReadBool()
	if err != nil || allDefault {
		return DefaultToneMapping(), err
	}
	var t ToneMapping
	if t.IntensityTarget, err = br.F16(); err != nil {
		return t, err
	}
	if t.IntensityTarget <= 0 {
		return t, fmt.Errorf("%w: intensity target %v", ErrInvalidHeader, t.IntensityTarget)
	}
	if t.MinNits, err = br.F16(); err != nil {
		return t, err
	}
	if t.MinNits < 0 || t.MinNits > t.IntensityTarget {
		return t, fmt.Errorf("%w: min nits %v", ErrInvalidHeader, t.MinNits)
	}
	if t.RelativeToMaxDisplay, err = br.ReadBool(); err != nil {
		return t, err
	}
	if t.LinearBelow, err = br.F16(); err != nil {
		return t, err
	}
	if t.LinearBelow < 0 || (t.RelativeToMaxDisplay && t.LinearBelow > 1) {
		return t, fmt.Errorf("%w: linear below %v", ErrInvalidHeader, t.LinearBelow)
	}
	return t, nil
}

// ImageMetadata is the codestream-level image description that follows
// the SizeHeader
type ImageMetadata struct {
	Orientation         uint32           `json:"orientation"`
	IntrinsicSize       *SizeHeader      `json:"intrinsicSize,omitempty"`
	Preview             *PreviewHeader   `json:"preview,omitempty"`
	Animation           *AnimationHeader `json:"animation,omitempty"`
	BitDepth            BitDepth         `json:"bitDepth"`
	Modular16BitBuffers bool             `json:"modular16BitBuffers"`
	ExtraChannels       []ExtraChannel   `json:"extraChannels,omitempty"`
	XYBEncoded          bool             `json:"xybEncoded"`
	Color               ColorEncoding    `json:"color"`
	ToneMapping         ToneMapping      `json:"toneMapping"`
	Extensions          uint64           `json:"extensions,omitempty"`
}

// DefaultImageMetadata is the metadata an all_default header stands for
func DefaultImageMetadata() *ImageMetadata {
	return &ImageMetadata{
		Orientation:         1,
		BitDepth:            DefaultBitDepth(),
		Modular16BitBuffers: true,
		XYBEncoded:          true,
		Color:               DefaultColorEncoding(),
		ToneMapping:         DefaultToneMapping(),
	}
}

func (m *ImageMetadata) hasExtraFields() bool {
	return m.Orientation != 1 || m.IntrinsicSize != nil || m.Preview != nil ||
		m.Animation != nil || m.ToneMapping != DefaultToneMapping()
}

// IsDefault reports whether m can be written as all_default
func (m *ImageMetadata) IsDefault() bool {
	return !m.hasExtraFields() && m.BitDepth == DefaultBitDepth() && m.Modular16BitBuffers &&
		len(m.ExtraChannels) == 0 && m.XYBEncoded && m.Color == DefaultColorEncoding() &&
		m.Extensions == 0
}

// Alpha returns the first alpha extra channel, if any
func (m *ImageMetadata) Alpha() (ExtraChannel, bool) {
	for _, ec := range m.ExtraChannels {
		if ec.Type == ExtraChannelAlpha {
			return ec, true
		}
	}
	return ExtraChannel{}, false
}

var numExtraDist = [4]Distribution{Val(0), Val(1), BitsOffset(4, 2), BitsOffset(12, 1)}

// ReadImageMetadata reads an ImageMetadata bundle, skipping extension payloads
func ReadImageMetadata(br *BitReader) (*ImageMetadata, error) {
	m := DefaultImageMetadata()
	allDefault, err := br.ReadBool()
	if err != nil || allDefault {
		return m, err
	}
	extraFields, err := br.ReadBool()
	if err != nil {
		return m, err
	}
	if extraFields {
		o, err := br.ReadBits(3)
		if err != nil {
			return m, err
		}
		m.Orientation = o + 1
		if ok, err := br.ReadBool(); err != nil {
			return m, err
		} else if ok {
			s, err := ReadSizeHeader(br)
			if err != nil {
				return m, err
			}
			m.IntrinsicSize = &s
		}
		if ok, err := br.ReadBool(); err != nil {
			return m, err
		} else if ok {
			p, err := ReadPreviewHeader(br)
			if err != nil {
				return m, err
			}
			m.Preview = &p
		}
		if ok, err := br.ReadBool(); err != nil {
			return m, err
		} else if ok {
			a, err := ReadAnimationHeader(br)
			if err != nil {
				return m, err
			}
			m.Animation = &a
		}
	}
	if m.BitDepth, err = readBitDepth(br); err != nil {
		return m, err
	}
	if m.Modular16BitBuffers, err = br.ReadBool(); err != nil {
		return m, err
	}
	numExtra, err := br.U32(numExtraDist[0], numExtraDist[1], numExtraDist[2], numExtraDist[3])
	if err != nil {
		return m, err
	}
	if numExtra > maxExtraChannels {
		return m, fmt.Errorf("%w: %d extra channels", ErrInvalidHeader, numExtra)
	}
	for i := uint32(0); i < numExtra; i++ {
		ec, err := readExtraChannel(br)
		if err != nil {
			return m, err
		}
		m.ExtraChannels = append(m.ExtraChannels, ec)
	}
	if m.XYBEncoded, err = br.ReadBool(); err != nil {
		return m, err
	}
	if m.Color, err = readColorEncoding(br); err != nil {
		return m, err
	}
	if extraFields {
		if m.ToneMapping, err = readToneMapping(br); err != nil {
			return m, err
		}
	}
	if m.Extensions, err = br.U64(); err != nil {
		return m, err
	}
	var extBits uint64
	for i := 0; i < 64; i++ {
		if m.Extensions&(1<<i) == 0 {
			continue
		}
		n, err := br.U64()
		if err != nil {
			return m, err
		}
		if extBits+n < extBits {
			return m, fmt.Errorf("%w: extension length overflow", ErrInvalidHeader)
		}
		extBits += n
	}
	return m, br.Skip(extBits)
}
