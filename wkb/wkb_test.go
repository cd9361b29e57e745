package wkb_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/internal/rastertest"
	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/wkb"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func randomDocument(rng *rand.Rand, typ pixel.Type, bands int, nodata bool) *wkb.Document {
	width, height := 1+rng.IntN(12), 1+rng.IntN(12)
	code, _ := typ.PackCode()
	doc := &wkb.Document{
		Width:        width,
		Height:       height,
		SRID:         []int{0, 4326, 3857, 3086}[rng.IntN(4)],
		GeoTransform: raster.GeoTransform{rng.Float64() * 1e6, rng.Float64(), 0.1, rng.Float64() * -1e6, -0.2, -rng.Float64()},
	}
	for range bands {
		data := make([]byte, width*height*code.Width())
		for i := range data {
			data[i] = byte(rng.UintN(256))
		}
		band := wkb.Band{Type: typ, Data: data}
		if nodata {
			band.HasNodata = true
			limit := 100
			if bits := typ.Bits(); bits < 8 {
				limit = 1 << bits
			}
			band.Nodata = float64(rng.IntN(limit))
		}
		doc.Bands = append(doc.Bands, band)
	}
	return doc
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	types := []pixel.Type{
		pixel.Type1BB, pixel.Type2BUI, pixel.Type4BUI, pixel.Type8BSI, pixel.Type8BUI,
		pixel.Type16BSI, pixel.Type16BUI, pixel.Type32BSI, pixel.Type32BUI, pixel.Type32BF, pixel.Type64BF,
	}
	for _, typ := range types {
		for _, bands := range []int{1, 2, 8} {
			for _, nodata := range []bool{false, true} {
				t.Run(fmt.Sprintf("%v/%d/%v", typ, bands, nodata), func(t *testing.T) {
					doc := randomDocument(rng, typ, bands, nodata)

					text, err := wkb.Encode(doc)
					require.NoError(t, err)
					require.Equal(t, strings.ToUpper(text), text)

					decoded, err := wkb.Decode(text)
					require.NoError(t, err)
					if diff := cmp.Diff(doc, decoded); diff != "" {
						t.Errorf("Decode(Encode(doc)) mismatch (-want +got):\n%v", diff)
					}
				})
			}
		}
	}
}

func TestDecodeSample(t *testing.T) {
	doc, err := wkb.Decode(rastertest.Sample8BUI)
	require.NoError(t, err)

	want := &wkb.Document{
		Width:        2,
		Height:       2,
		SRID:         4326,
		GeoTransform: raster.GeoTransform{10, 1, 0, 20, 0, -1},
		Bands: []wkb.Band{
			{Type: pixel.Type8BUI, HasNodata: true, Nodata: 0, Data: []byte{1, 2, 3, 4}},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%v", diff)
	}

	text, err := wkb.Encode(doc)
	require.NoError(t, err)
	require.Equal(t, rastertest.Sample8BUI, text)

	lower, err := wkb.Decode(strings.ToLower(rastertest.Sample8BUI))
	require.NoError(t, err)
	require.Equal(t, doc, lower)
}

func TestNodataPadding(t *testing.T) {
	doc, err := wkb.Decode(rastertest.Sample8BUIPadded, wkb.WithNodataPadding())
	require.NoError(t, err)
	require.False(t, doc.Bands[0].HasNodata)
	require.Equal(t, []byte{1, 2, 3, 4}, doc.Bands[0].Data)

	text, err := wkb.Encode(doc, wkb.WithNodataPadding())
	require.NoError(t, err)
	require.Equal(t, rastertest.Sample8BUIPadded, text)

	// Without padding the slot is read as the first pixel.
	_, err = wkb.Decode(rastertest.Sample8BUIPadded)
	require.ErrorIs(t, err, wkb.ErrMalformedData)

	// A flagged band is laid out the same way in both modes.
	flagged, err := wkb.Decode(rastertest.Sample8BUI, wkb.WithNodataPadding())
	require.NoError(t, err)
	require.True(t, flagged.Bands[0].HasNodata)
}

func TestNodataFlagByte(t *testing.T) {
	doc := &wkb.Document{
		Width:  1,
		Height: 1,
		Bands:  []wkb.Band{{Type: pixel.Type32BSI, HasNodata: true, Nodata: -32, Data: []byte{32, 0, 0, 0}}},
	}
	data, err := wkb.EncodeBinary(doc)
	require.NoError(t, err)
	require.Equal(t, byte(71), data[wkb.HeaderLength])

	decoded, err := wkb.DecodeBinary(data)
	require.NoError(t, err)
	require.Equal(t, pixel.Type32BSI, decoded.Bands[0].Type)
	require.True(t, decoded.Bands[0].HasNodata)

	doc.Bands[0].HasNodata = false
	data, err = wkb.EncodeBinary(doc)
	require.NoError(t, err)
	require.Equal(t, byte(7), data[wkb.HeaderLength])
	require.Len(t, data, wkb.HeaderLength+1+4)
}

func TestSignedNodata(t *testing.T) {
	doc := &wkb.Document{
		Width:  10,
		Height: 10,
		Bands: []wkb.Band{{
			Type:      pixel.Type32BSI,
			HasNodata: true,
			Nodata:    -32,
			Data:      bytes.Repeat([]byte{32, 0, 0, 0}, 100),
		}},
	}
	text, err := wkb.Encode(doc)
	require.NoError(t, err)
	require.Equal(t, "47E0FFFFFF", text[2*wkb.HeaderLength:2*wkb.HeaderLength+10])
	require.Len(t, text, 2*(wkb.HeaderLength+1+4+400))

	decoded, err := wkb.Decode(text)
	require.NoError(t, err)
	require.Equal(t, -32.0, decoded.Bands[0].Nodata)
	require.Equal(t, doc.Bands[0].Data, decoded.Bands[0].Data)
}

func TestUnsignedNodataSignFixup(t *testing.T) {
	for _, typ := range []pixel.Type{pixel.Type32BUI, pixel.Type16BUI, pixel.Type8BUI} {
		t.Run(typ.String(), func(t *testing.T) {
			code, err := typ.PackCode()
			require.NoError(t, err)
			doc := &wkb.Document{
				Width:  10,
				Height: 10,
				Bands: []wkb.Band{{
					Type:      typ,
					HasNodata: true,
					Nodata:    -32,
					Data:      bytes.Repeat([]byte{32}, 100*code.Width()),
				}},
			}
			text, err := wkb.Encode(doc)
			require.NoError(t, err)

			decoded, err := wkb.Decode(text)
			require.NoError(t, err)
			require.Equal(t, 32.0, decoded.Bands[0].Nodata)
			require.Equal(t, doc.Bands[0].Data, decoded.Bands[0].Data)
		})
	}
}

func TestNodataOverflow(t *testing.T) {
	doc := &wkb.Document{
		Width:  1,
		Height: 1,
		Bands:  []wkb.Band{{Type: pixel.Type8BUI, HasNodata: true, Nodata: 300, Data: []byte{0}}},
	}
	_, err := wkb.Encode(doc)
	require.ErrorIs(t, err, codec.ErrEncoding)
}

func TestSubByteNodataOverflow(t *testing.T) {
	cases := []struct {
		typ    pixel.Type
		nodata float64
	}{
		{pixel.Type1BB, 5},
		{pixel.Type1BB, -3.5},
		{pixel.Type2BUI, 4},
		{pixel.Type2BUI, -4},
		{pixel.Type4BUI, 16},
	}
	for _, c := range cases {
		doc := &wkb.Document{
			Width:  1,
			Height: 1,
			Bands:  []wkb.Band{{Type: c.typ, HasNodata: true, Nodata: c.nodata, Data: []byte{0}}},
		}
		_, err := wkb.Encode(doc)
		require.ErrorIsf(t, err, codec.ErrEncoding, "%v nodata %v", c.typ, c.nodata)
	}

	doc := &wkb.Document{
		Width:  1,
		Height: 1,
		Bands: []wkb.Band{
			{Type: pixel.Type2BUI, HasNodata: true, Nodata: 3, Data: []byte{1}},
			{Type: pixel.Type4BUI, HasNodata: true, Nodata: 15, Data: []byte{2}},
		},
	}
	text, err := wkb.Encode(doc)
	require.NoError(t, err)
	decoded, err := wkb.Decode(text)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, decoded); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%v", diff)
	}
}

func TestInconsistentBandTypes(t *testing.T) {
	doc := &wkb.Document{
		Width:  1,
		Height: 1,
		Bands: []wkb.Band{
			{Type: pixel.Type32BSI, Data: make([]byte, 4)},
			{Type: pixel.Type32BSI, Data: make([]byte, 4)},
		},
	}
	data, err := wkb.EncodeBinary(doc)
	require.NoError(t, err)

	// Patch the second band's type byte to 32BUI.
	second := wkb.HeaderLength + 1 + 4
	require.Equal(t, byte(7), data[second])
	data[second] = byte(pixel.Type32BUI)

	_, err = wkb.DecodeBinary(data)
	require.Truef(t, errors.Is(err, wkb.ErrInconsistentBandTypes), "%v", err)

	doc.Bands[1].Type = pixel.Type32BUI
	_, err = wkb.EncodeBinary(doc)
	require.Truef(t, errors.Is(err, wkb.ErrInconsistentBandTypes), "%v", err)
}

func TestSameEngineTypeBands(t *testing.T) {
	// 8BUI and 4BUI are both held as Byte by the engine.
	doc := &wkb.Document{
		Width:  1,
		Height: 1,
		Bands: []wkb.Band{
			{Type: pixel.Type8BUI, Data: []byte{200}},
			{Type: pixel.Type4BUI, Data: []byte{15}},
		},
	}
	text, err := wkb.Encode(doc)
	require.NoError(t, err)
	decoded, err := wkb.Decode(text)
	require.NoError(t, err)
	require.Equal(t, doc, decoded)
}

func TestEmptyRaster(t *testing.T) {
	doc := &wkb.Document{Width: 5, Height: 5, SRID: 4326, GeoTransform: raster.GeoTransform{0, 1, 0, 0, 0, -1}, Bands: []wkb.Band{}}
	text, err := wkb.Encode(doc)
	require.NoError(t, err)
	require.Len(t, text, 2*wkb.HeaderLength)

	decoded, err := wkb.Decode(text)
	require.NoError(t, err)
	require.Equal(t, doc, decoded)
}

func TestDecodeErrors(t *testing.T) {
	valid := rastertest.Sample8BUI
	header := valid[:2*wkb.HeaderLength]

	twoBands := "0100000200" + valid[10:]

	cases := []struct {
		name string
		text string
		want error
	}{
		{"OddHex", valid[:len(valid)-1], codec.ErrDecoding},
		{"BadHex", "ZZ" + valid[2:], codec.ErrDecoding},
		{"ShortHeader", header[:100], wkb.ErrMalformedData},
		{"BigEndian", "00" + valid[2:], wkb.ErrUnsupportedVersion},
		{"Version", "010100" + valid[6:], wkb.ErrUnsupportedVersion},
		{"TruncatedPixels", valid[:len(valid)-2], wkb.ErrMalformedData},
		{"TruncatedNodata", header + "44", wkb.ErrMalformedData},
		{"MissingBand", twoBands, wkb.ErrMalformedData},
		{"ExtraBand", valid + "0401020304", wkb.ErrMalformedData},
		{"UnknownType", header + "0901020304", pixel.ErrUnsupportedPixelType},
		{"EndType", header + "0D01020304", pixel.ErrUnsupportedPixelType},
		{"OfflineFlag", header + "8401020304", pixel.ErrUnsupportedPixelType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := wkb.Decode(tc.text)
			require.Nil(t, doc)
			require.Truef(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  *wkb.Document
		want error
	}{
		{"Width", &wkb.Document{Width: 70000, Height: 1}, codec.ErrEncoding},
		{"SRID", &wkb.Document{Width: 1, Height: 1, SRID: 1 << 40}, codec.ErrEncoding},
		{"DataSize", &wkb.Document{Width: 2, Height: 1, Bands: []wkb.Band{{Type: pixel.Type16BUI, Data: []byte{1, 2}}}}, codec.ErrEncoding},
		{"PixelType", &wkb.Document{Width: 1, Height: 1, Bands: []wkb.Band{{Type: 9, Data: []byte{1}}}}, pixel.ErrUnsupportedPixelType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := wkb.Encode(tc.doc)
			require.Truef(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}
