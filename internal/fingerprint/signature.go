package fingerprint

import (
	"encoding/binary"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Options configures Signature. The zero value uses the production FFT
// transform and a block size of 4.
type Options struct {
	BlockSize     int // canonical values: 1 or 4; 0 means 4
	Approximation bool
}

// Signature computes the perceptual signature of a canvas: a 2D
// frequency-domain magnitude transform of each color channel,
// partitioned into blocks, normalized, and serialized as
// (channels:u32=3, blocks:u32=N) followed by 3*N little-endian f64
// values in channel-major order (all R block values, then G, then B).
func Signature(canvas [][3]float64, width, height int, opts Options) ([]byte, error) {
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = 4
	}
	if width%blockSize != 0 || height%blockSize != 0 {
		return nil, newErr(KindShapeMismatch, "canvas %dx%d not divisible by block size %d", width, height, blockSize)
	}

	var magnitudes [3][]float64
	for ch := 0; ch < 3; ch++ {
		plane := extractChannel(canvas, width, height, ch)
		if opts.Approximation {
			magnitudes[ch] = blockVarianceMagnitude(plane, width, height)
		} else {
			magnitudes[ch] = fft2DMagnitude(plane, width, height)
		}
	}

	blocksW := width / blockSize
	blocksH := height / blockSize
	numBlocks := blocksW * blocksH

	vectors := make([][]float64, 3)
	for ch := 0; ch < 3; ch++ {
		vectors[ch] = make([]float64, numBlocks)
		idx := 0
		for by := 0; by < blocksH; by++ {
			for bx := 0; bx < blocksW; bx++ {
				sum := 0.0
				for y := by * blockSize; y < (by+1)*blockSize; y++ {
					for x := bx * blockSize; x < (bx+1)*blockSize; x++ {
						sum += magnitudes[ch][y*width+x]
					}
				}
				vectors[ch][idx] = math.Sqrt(sum)
				idx++
			}
		}
		normalize(vectors[ch])
	}

	buf := make([]byte, 8+3*numBlocks*8)
	binary.LittleEndian.PutUint32(buf[0:4], 3)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(numBlocks))
	pos := 8
	for ch := 0; ch < 3; ch++ {
		for _, v := range vectors[ch] {
			binary.LittleEndian.PutUint64(buf[pos:pos+8], math.Float64bits(v))
			pos += 8
		}
	}
	return buf, nil
}

func extractChannel(canvas [][3]float64, width, height, ch int) []float64 {
	plane := make([]float64, width*height)
	for i, px := range canvas {
		plane[i] = px[ch]
	}
	return plane
}

// fft2DMagnitude applies a separable 2D discrete Fourier transform (row
// FFT then column FFT) and returns the per-pixel magnitude map.
func fft2DMagnitude(plane []float64, width, height int) []float64 {
	rowFFT := fourier.NewCmplxFFT(width)
	colFFT := fourier.NewCmplxFFT(height)

	complexPlane := make([]complex128, width*height)
	for i, v := range plane {
		complexPlane[i] = complex(v, 0)
	}

	row := make([]complex128, width)
	for y := 0; y < height; y++ {
		copy(row, complexPlane[y*width:(y+1)*width])
		coeff := rowFFT.Coefficients(nil, row)
		copy(complexPlane[y*width:(y+1)*width], coeff)
	}

	col := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = complexPlane[y*width+x]
		}
		coeff := colFFT.Coefficients(nil, col)
		for y := 0; y < height; y++ {
			complexPlane[y*width+x] = coeff[y]
		}
	}

	mag := make([]float64, width*height)
	for i, v := range complexPlane {
		mag[i] = cmplx.Abs(v)
	}
	return mag
}

// blockVarianceMagnitude is the documented fallback when a true FFT is
// unavailable: local variance over a 3x3 neighborhood stands in for
// frequency-domain energy. It is an approximation, not a transform, and
// exists solely so Signature can run without the gonum dependency at
// the call site.
func blockVarianceMagnitude(plane []float64, width, height int) []float64 {
	out := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, sumSq, n := 0.0, 0.0, 0.0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= height || nx < 0 || nx >= width {
						continue
					}
					v := plane[ny*width+nx]
					sum += v
					sumSq += v * v
					n++
				}
			}
			mean := sum / n
			out[y*width+x] = sumSq/n - mean*mean
		}
	}
	return out
}

func normalize(v []float64) {
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}

// Distance computes the similarity distance between two signatures of
// equal shape: the sum of per-channel Euclidean norms of the
// difference vectors. Smaller means more similar; identical inputs
// yield 0.
func Distance(a, b []byte) (float64, error) {
	aCh, aN, aVecs, err := decodeSignature(a)
	if err != nil {
		return 0, err
	}
	bCh, bN, bVecs, err := decodeSignature(b)
	if err != nil {
		return 0, err
	}
	if aCh != bCh || aN != bN {
		return 0, newErr(KindShapeMismatch, "signature shapes differ: (%d,%d) vs (%d,%d)", aCh, aN, bCh, bN)
	}

	total := 0.0
	for ch := 0; ch < int(aCh); ch++ {
		sumSq := 0.0
		for i := range aVecs[ch] {
			d := aVecs[ch][i] - bVecs[ch][i]
			sumSq += d * d
		}
		total += math.Sqrt(sumSq)
	}
	return total, nil
}

func decodeSignature(buf []byte) (channels uint32, blocks uint32, vectors [][]float64, err error) {
	if len(buf) < 8 {
		return 0, 0, nil, newErr(KindShapeMismatch, "signature too short for header")
	}
	channels = binary.LittleEndian.Uint32(buf[0:4])
	blocks = binary.LittleEndian.Uint32(buf[4:8])
	want := 8 + int(channels)*int(blocks)*8
	if len(buf) != want {
		return 0, 0, nil, newErr(KindShapeMismatch, "signature length %d does not match header (want %d)", len(buf), want)
	}
	vectors = make([][]float64, channels)
	pos := 8
	for ch := uint32(0); ch < channels; ch++ {
		vectors[ch] = make([]float64, blocks)
		for i := uint32(0); i < blocks; i++ {
			vectors[ch][i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			pos += 8
		}
	}
	return channels, blocks, vectors, nil
}
