package vulkan

const (
	// MAX_FRAMES_IN_FLIGHT is the number of frames recorded ahead of the GPU.
	MAX_FRAMES_IN_FLIGHT = 2
	// MAX_DRAWS_PER_FRAME bounds the descriptor sets allocated per frame.
	MAX_DRAWS_PER_FRAME = 1024
	// UNIFORM_RING_SIZE is the per frame uniform staging size in bytes.
	UNIFORM_RING_SIZE = 1 << 20
	// MIN_UNIFORM_BLOCK is the range bound for programs without uniforms.
	MIN_UNIFORM_BLOCK = 16

	BINDING_UNIFORMS uint32 = 0
	BINDING_TEXTURES uint32 = 1
)
