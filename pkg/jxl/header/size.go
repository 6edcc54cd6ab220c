package header

import "fmt"

// aspect ratios selectable by the 3-bit ratio field, index 0 means explicit
var aspectRatios = [8][2]uint64{
	{0, 0},
	{1, 1},
	{12, 10},
	{4, 3},
	{3, 2},
	{16, 9},
	{5, 4},
	{2, 1},
}

// SizeHeader holds the image dimensions in pixels
type SizeHeader struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

var sizeDist = [4]Distribution{BitsOffset(9, 1), BitsOffset(13, 1), BitsOffset(18, 1), BitsOffset(30, 1)}

// ReadSizeHeader reads a SizeHeader bundle
func ReadSizeHeader(br *BitReader) (SizeHeader, error) {
	var s SizeHeader
	small, err := br.ReadBool()
	if err != nil {
		return s, err
	}
	if small {
		v, err := br.ReadBits(5)
		if err != nil {
			return s, err
		}
		s.Height = (v + 1) * 8
	} else {
		if s.Height, err = br.U32(sizeDist[0], sizeDist[1], sizeDist[2], sizeDist[3]); err != nil {
			return s, err
		}
	}
	ratio, err := br.ReadBits(3)
	if err != nil {
		return s, err
	}
	if ratio != 0 {
		s.Width = applyRatio(s.Height, ratio)
		return s, nil
	}
	if small {
		v, err := br.ReadBits(5)
		if err != nil {
			return s, err
		}
		s.Width = (v + 1) * 8
		return s, nil
	}
	s.Width, err = br.U32(sizeDist[0], sizeDist[1], sizeDist[2], sizeDist[3])
	return s, err
}

// WriteSizeHeader writes s using the small encoding when possible
func WriteSizeHeader(bw *BitWriter, s SizeHeader) error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidHeader, s.Width, s.Height)
	}
	small := s.Height%8 == 0 && s.Height <= 256
	ratio := findRatio(s.Width, s.Height)
	if ratio == 0 {
		small = small && s.Width%8 == 0 && s.Width <= 256
	}
	bw.WriteBool(small)
	if small {
		bw.WriteBits(s.Height/8-1, 5)
	} else if err := bw.WriteU32(s.Height, sizeDist[0], sizeDist[1], sizeDist[2], sizeDist[3]); err != nil {
		return err
	}
	bw.WriteBits(ratio, 3)
	if ratio != 0 {
		return nil
	}
	if small {
		bw.WriteBits(s.Width/8-1, 5)
		return nil
	}
	return bw.WriteU32(s.Width, sizeDist[0], sizeDist[1], sizeDist[2], sizeDist[3])
}

func applyRatio(height, ratio uint32) uint32 {
	r := aspectRatios[ratio]
	return uint32(uint64(height) * r[0] / r[1])
}

func findRatio(width, height uint32) uint32 {
	for i := uint32(1); i < uint32(len(aspectRatios)); i++ {
		if applyRatio(height, i) == width {
			return i
		}
	}
	return 0
}

// PreviewHeader holds the dimensions of the embedded preview frame
type PreviewHeader struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

var (
	previewDiv8Dist = [4]Distribution{Val(16), Val(32), BitsOffset(5, 1), BitsOffset(9, 33)}
	previewDist     = [4]Distribution{BitsOffset(6, 1), BitsOffset(8, 65), BitsOffset(10, 321), BitsOffset(12, 1345)}
)

// ReadPreviewHeader reads a PreviewHeader bundle
func ReadPreviewHeader(br *BitReader) (PreviewHeader, error) {
	var p PreviewHeader
	div8, err := br.ReadBool()
	if err != nil {
		return p, err
	}
	dim := func() (uint32, error) {
		if div8 {
			v, err := br.U32(previewDiv8Dist[0], previewDiv8Dist[1], previewDiv8Dist[2], previewDiv8Dist[3])
			return v * 8, err
		}
		return br.U32(previewDist[0], previewDist[1], previewDist[2], previewDist[3])
	}
	if p.Height, err = dim(); err != nil {
		return p, err
	}
	ratio, err := br.ReadBits(3)
	if err != nil {
		return p, err
	}
	if ratio != 0 {
		p.Width = applyRatio(p.Height, ratio)
		return p, nil
	}
	p.Width, err = dim()
	return p, err
}

// WritePreviewHeader writes p
func WritePreviewHeader(bw *BitWriter, p PreviewHeader) error {
	div8 := p.Width%8 == 0 && p.Height%8 == 0
	bw.WriteBool(div8)
	dim := func(v uint32) error {
		if div8 {
			return bw.WriteU32(v/8, previewDiv8Dist[0], previewDiv8Dist[1], previewDiv8Dist[2], previewDiv8Dist[3])
		}
		return bw.WriteU32(v, previewDist[0], previewDist[1], previewDist[2], previewDist[3])
	}
	if err := dim(p.Height); err != nil {
		return err
	}
	ratio := findRatio(p.Width, p.Height)
	bw.WriteBits(ratio, 3)
	if ratio != 0 {
		return nil
	}
	return dim(p.Width)
}

// AnimationHeader holds the animation timing parameters
type AnimationHeader struct {
	TicksPerSecondNumerator   uint32 `json:"tpsNumerator"`
	TicksPerSecondDenominator uint32 `json:"tpsDenominator"`
	NumLoops                  uint32 `json:"numLoops"`
	HaveTimecodes             bool   `json:"haveTimecodes"`
}

var (
	tpsNumDist   = [4]Distribution{Val(100), Val(1000), BitsOffset(10, 1), BitsOffset(30, 1)}
	tpsDenDist   = [4]Distribution{Val(1), Val(1001), BitsOffset(8, 1), BitsOffset(10, 1)}
	numLoopsDist = [4]Distribution{Val(0), Bits(3), Bits(16), Bits(32)}
)

// ReadAnimationHeader reads an AnimationHeader bundle
func ReadAnimationHeader(br *BitReader) (AnimationHeader, error) {
	var a AnimationHeader
	var err error
	if a.TicksPerSecondNumerator, err = br.U32(tpsNumDist[0], tpsNumDist[1], tpsNumDist[2], tpsNumDist[3]); err != nil {
		return a, err
	}
	if a.TicksPerSecondDenominator, err = br.U32(tpsDenDist[0], tpsDenDist[1], tpsDenDist[2], tpsDenDist[3]); err != nil {
		return a, err
	}
	if a.NumLoops, err = br.U32(numLoopsDist[0], numLoopsDist[1], numLoopsDist[2], numLoopsDist[3]); err != nil {
		return a, err
	}
	a.HaveTimecodes, err = br.ReadBool()
	return a, err
}

// WriteAnimationHeader writes a
func WriteAnimationHeader(bw *BitWriter, a AnimationHeader) error {
	if err := bw.WriteU32(a.TicksPerSecondNumerator, tpsNumDist[0], tpsNumDist[1], tpsNumDist[2], tpsNumDist[3]); err != nil {
		return err
	}
	if err := bw.WriteU32(a.TicksPerSecondDenominator, tpsDenDist[0], tpsDenDist[1], tpsDenDist[2], tpsDenDist[3]); err != nil {
		return err
	}
	if err := bw.WriteU32(a.NumLoops, numLoopsDist[0], numLoopsDist[1], numLoopsDist[2], numLoopsDist[3]); err != nil {
		return err
	}
	bw.WriteBool(a.HaveTimecodes)
	return nil
}
