package gpu

import "fmt"

// Role is the semantic of one render target attachment.
type Role uint8

const (
	RoleColor Role = iota
	RolePosition
	RoleNormal
	RoleDepth
	RoleStencil
	RoleDepthStencil
)

// Name is the role name used to publish sampled outputs.
func (r Role) Name() string {
	switch r {
	case RoleColor:
		return "color"
	case RolePosition:
		return "position"
	case RoleNormal:
		return "normal"
	case RoleDepth:
		return "depth"
	case RoleStencil:
		return "stencil"
	case RoleDepthStencil:
		return "depthStencil"
	}
	return fmt.Sprintf("role(%d)", r)
}

// IsColor reports whether the role occupies a color slot of a framebuffer.
func (r Role) IsColor() bool {
	return r == RoleColor || r == RolePosition || r == RoleNormal
}

func ParseRole(s string) (Role, error) {
	for r := RoleColor; r <= RoleDepthStencil; r++ {
		if r.Name() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown attachment role %q", s)
}

// Storage selects between a sampled texture and storage only memory.
type Storage uint8

const (
	StorageTexture Storage = iota
	// StorageOpaque attachments can be drawn into but never sampled.
	StorageOpaque
)

type Precision uint8

const (
	PrecisionInt8 Precision = iota
	PrecisionFloat32
)

func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "", "int8":
		return PrecisionInt8, nil
	case "float32":
		return PrecisionFloat32, nil
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}

// AttachmentSpec describes one slot of a render target.
type AttachmentSpec struct {
	Role      Role
	Storage   Storage
	Precision Precision
}

func (s AttachmentSpec) Sampled() bool {
	return s.Storage == StorageTexture
}

func (s AttachmentSpec) String() string {
	storage := "texture"
	if s.Storage == StorageOpaque {
		storage = "opaque"
	}
	precision := "int8"
	if s.Precision == PrecisionFloat32 {
		precision = "float32"
	}
	return fmt.Sprintf("%s/%s/%s", s.Role.Name(), storage, precision)
}

var (
	ColorTexture        = AttachmentSpec{Role: RoleColor, Storage: StorageTexture, Precision: PrecisionInt8}
	ColorFloatTexture   = AttachmentSpec{Role: RoleColor, Storage: StorageTexture, Precision: PrecisionFloat32}
	PositionTexture     = AttachmentSpec{Role: RolePosition, Storage: StorageTexture, Precision: PrecisionFloat32}
	NormalTexture       = AttachmentSpec{Role: RoleNormal, Storage: StorageTexture, Precision: PrecisionFloat32}
	DepthTexture        = AttachmentSpec{Role: RoleDepth, Storage: StorageTexture, Precision: PrecisionFloat32}
	DepthStencilOpaque  = AttachmentSpec{Role: RoleDepthStencil, Storage: StorageOpaque, Precision: PrecisionInt8}
	DepthStencilTexture = AttachmentSpec{Role: RoleDepthStencil, Storage: StorageTexture, Precision: PrecisionInt8}
)
