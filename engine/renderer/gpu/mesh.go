package gpu

type VertexAttribute uint8

const (
	Float1 VertexAttribute = iota + 1
	Float2
	Float3
	Float4
)

func (a VertexAttribute) Components() int {
	return int(a)
}

// MeshData is interleaved float vertex data with an optional index list.
type MeshData struct {
	Layout   []VertexAttribute
	Vertices []float32
	Indices  []uint32
}

// Stride is the number of floats per vertex.
func (d *MeshData) Stride() int {
	n := 0
	for _, a := range d.Layout {
		n += a.Components()
	}
	return n
}

func (d *MeshData) VertexCount() int {
	stride := d.Stride()
	if stride == 0 {
		return 0
	}
	return len(d.Vertices) / stride
}

// DrawCount is the number of vertices a draw call consumes.
func (d *MeshData) DrawCount() int {
	if len(d.Indices) > 0 {
		return len(d.Indices)
	}
	return d.VertexCount()
}

var (
	// LayoutPNU is position, normal and texture coordinates.
	LayoutPNU = []VertexAttribute{Float3, Float3, Float2}
	// LayoutPU is position and texture coordinates.
	LayoutPU = []VertexAttribute{Float3, Float2}
)

// QuadData is a width x height quad centered on the origin facing +Z.
func QuadData(width, height float32) *MeshData {
	w, h := width/2, height/2
	return &MeshData{
		Layout: LayoutPNU,
		Vertices: []float32{
			-w, -h, 0, 0, 0, 1, 0, 0,
			w, -h, 0, 0, 0, 1, 1, 0,
			w, h, 0, 0, 0, 1, 1, 1,
			-w, h, 0, 0, 0, 1, 0, 1,
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

// CubeData is an axis aligned box centered on the origin with outward
// normals. Each face maps the full texture.
func CubeData(width, height, depth float32) *MeshData {
	w, h, d := width/2, height/2, depth/2
	faces := []struct {
		normal [3]float32
		corner [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-w, -h, d}, {w, -h, d}, {w, h, d}, {-w, h, d}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{w, -h, -d}, {-w, -h, -d}, {-w, h, -d}, {w, h, -d}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-w, -h, -d}, {-w, -h, d}, {-w, h, d}, {-w, h, -d}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{w, -h, d}, {w, -h, -d}, {w, h, -d}, {w, h, d}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-w, h, d}, {w, h, d}, {w, h, -d}, {-w, h, -d}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-w, -h, -d}, {w, -h, -d}, {w, -h, d}, {-w, -h, d}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	data := &MeshData{
		Layout:   LayoutPNU,
		Vertices: make([]float32, 0, len(faces)*4*8),
		Indices:  make([]uint32, 0, len(faces)*6),
	}
	for i, f := range faces {
		for c, p := range f.corner {
			data.Vertices = append(data.Vertices, p[0], p[1], p[2], f.normal[0], f.normal[1], f.normal[2], uvs[c][0], uvs[c][1])
		}
		base := uint32(i * 4)
		data.Indices = append(data.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return data
}
