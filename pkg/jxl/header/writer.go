package header

import "fmt"

// Signature is the two byte marker that starts a bare codestream
var Signature = [2]byte{0xFF, 0x0A}

// EncodeHeaders returns the signature, SizeHeader and ImageMetadata of a
// codestream, zero padded to a byte boundary. It is the inverse of
// ParseHeaders and is used to build test streams and container payloads.
func EncodeHeaders(size SizeHeader, m *ImageMetadata) ([]byte, error) {
	if m == nil {
		m = DefaultImageMetadata()
	}
	bw := NewBitWriter()
	bw.WriteBits(uint32(Signature[0]), 8)
	bw.WriteBits(uint32(Signature[1]), 8)
	if err := WriteSizeHeader(bw, size); err != nil {
		return nil, err
	}
	if err := WriteImageMetadata(bw, m); err != nil {
		return nil, err
	}
	bw.Align()
	return bw.Bytes(), nil
}

// WriteImageMetadata writes m, using all_default when possible
func WriteImageMetadata(bw *BitWriter, m *ImageMetadata) error {
	if m.IsDefault() {
		bw.WriteBool(true)
		return nil
	}
	bw.WriteBool(false)
	extraFields := m.hasExtraFields()
	bw.WriteBool(extraFields)
	if extraFields {
		if m.Orientation < 1 || m.Orientation > 8 {
			return fmt.Errorf("%w: orientation %d", ErrInvalidHeader, m.Orientation)
		}
		bw.WriteBits(m.Orientation-1, 3)
		bw.WriteBool(m.IntrinsicSize != nil)
		if m.IntrinsicSize != nil {
			if err := WriteSizeHeader(bw, *m.IntrinsicSize); err != nil {
				return err
			}
		}
		bw.WriteBool(m.Preview != nil)
		if m.Preview != nil {
			if err := WritePreviewHeader(bw, *m.Preview); err != nil {
				return err
			}
		}
		bw.WriteBool(m.Animation != nil)
		if m.Animation != nil {
			if err := WriteAnimationHeader(bw, *m.Animation); err != nil {
				return err
			}
		}
	}
	if err := writeBitDepth(bw, m.BitDepth); err != nil {
		return err
	}
	bw.WriteBool(m.Modular16BitBuffers)
	if err := bw.WriteU32(uint32(len(m.ExtraChannels)), numExtraDist[0], numExtraDist[1], numExtraDist[2], numExtraDist[3]); err != nil {
		return err
	}
	for _, ec := range m.ExtraChannels {
		if err := writeExtraChannel(bw, ec); err != nil {
			return err
		}
	}
	bw.WriteBool(m.XYBEncoded)
	if err := writeColorEncoding(bw, m.Color); err != nil {
		return err
	}
	if extraFields {
		if err := writeToneMapping(bw, m.ToneMapping); err != nil {
			return err
		}
	}
	if m.Extensions != 0 {
		return fmt.Errorf("%w: writing extensions is not supported", ErrInvalidHeader)
	}
	bw.WriteU64(0)
	return nil
}

func writeBitDepth(bw *BitWriter, d BitDepth) error {
	if err := d.validate(); err != nil {
		return err
	}
	bw.WriteBool(d.FloatSample)
	if !d.FloatSample {
		return bw.WriteU32(d.BitsPerSample, intBitsDist[0], intBitsDist[1], intBitsDist[2], intBitsDist[3])
	}
	if err := bw.WriteU32(d.BitsPerSample, floatBitsDist[0], floatBitsDist[1], floatBitsDist[2], floatBitsDist[3]); err != nil {
		return err
	}
	bw.WriteBits(d.ExponentBits-1, 4)
	return nil
}

func writeExtraChannel(bw *BitWriter, e ExtraChannel) error {
	if e.isDefault() {
		bw.WriteBool(true)
		return nil
	}
	bw.WriteBool(false)
	if err := bw.WriteEnum(uint32(e.Type)); err != nil {
		return err
	}
	if err := writeBitDepth(bw, e.BitDepth); err != nil {
		return err
	}
	if err := bw.WriteU32(e.DimShift, dimShiftDist[0], dimShiftDist[1], dimShiftDist[2], dimShiftDist[3]); err != nil {
		return err
	}
	if err := bw.WriteU32(uint32(len(e.Name)), nameLenDist[0], nameLenDist[1], nameLenDist[2], nameLenDist[3]); err != nil {
		return err
	}
	for i := 0; i < len(e.Name); i++ {
		bw.WriteBits(uint32(e.Name[i]), 8)
	}
	switch e.Type {
	case ExtraChannelAlpha:
		bw.WriteBool(e.AlphaAssociated)
	case ExtraChannelSpotColor:
		for _, v := range e.SpotColor {
			if err := bw.WriteF16(v); err != nil {
				return err
			}
		}
	case ExtraChannelCFA:
		return bw.WriteU32(e.CFAChannel, cfaChannelDist[0], cfaChannelDist[1], cfaChannelDist[2], cfaChannelDist[3])
	}
	return nil
}

func writeCIExy(bw *BitWriter, c CIExy) error {
	if err := bw.WriteU32(packSigned(c.X), xyDist[0], xyDist[1], xyDist[2], xyDist[3]); err != nil {
		return err
	}
	return bw.WriteU32(packSigned(c.Y), xyDist[0], xyDist[1], xyDist[2], xyDist[3])
}

func writeColorEncoding(bw *BitWriter, c ColorEncoding) error {
	if c == DefaultColorEncoding() {
		bw.WriteBool(true)
		return nil
	}
	bw.WriteBool(false)
	bw.WriteBool(c.WantICC)
	if err := bw.WriteEnum(uint32(c.ColorSpace)); err != nil {
		return err
	}
	if c.hasWhitePoint() {
		if err := bw.WriteEnum(c.WhitePoint); err != nil {
			return err
		}
		if c.WhitePoint == WhitePointCustom {
			if err := writeCIExy(bw, c.White); err != nil {
				return err
			}
		}
	}
	if c.hasPrimaries() {
		if err := bw.WriteEnum(c.Primaries); err != nil {
			return err
		}
		if c.Primaries == PrimariesCustom {
			for _, p := range []CIExy{c.Red, c.Green, c.Blue} {
				if err := writeCIExy(bw, p); err != nil {
					return err
				}
			}
		}
	}
	if c.hasTransfer() {
		bw.WriteBool(c.HaveGamma)
		if c.HaveGamma {
			bw.WriteBits(c.Gamma, 24)
		} else if err := bw.WriteEnum(c.TransferFunction); err != nil {
			return err
		}
	}
	if !c.WantICC {
		return bw.WriteEnum(c.RenderingIntent)
	}
	return nil
}

func writeToneMapping(bw *BitWriter, t ToneMapping) error {
	if t == DefaultToneMapping() {
		bw.WriteBool(true)
		return nil
	}
	bw.WriteBool(false)
	for _, v := range []float32{t.IntensityTarget, t.MinNits} {
		if err := bw.WriteF16(v); err != nil {
			return err
		}
	}
	bw.WriteBool(t.RelativeToMaxDisplay)
	return bw.WriteF16(t.LinearBelow)
}
