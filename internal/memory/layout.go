package memory

import "aya/internal/word"

// Canonical device sizes and address ranges (§6's memory-map table; exact
// ranges are implementation-defined, but ordering — tile, sprite descriptors,
// program, background, UI, interrupt vector, input, stack — is not).
const (
	TileMemorySize        = 0x4000 // 16KiB of 8x8 palette-indexed tiles
	SpriteDescriptorCount = 40
	SpriteDescriptorSize  = 16 // tile_idx, x, y, flags, ... padded to 16 bytes
	SpriteMemorySize      = SpriteDescriptorCount * SpriteDescriptorSize
	ProgramMemorySize     = 0x4000
	BackgroundTilesWide   = 32
	BackgroundTilesHigh   = 30
	BackgroundMemorySize  = BackgroundTilesWide * BackgroundTilesHigh
	UIMemorySize          = BackgroundTilesWide * BackgroundTilesHigh
	InterruptVectorCount  = 16
	InterruptMemorySize   = InterruptVectorCount * 2
	InputMemorySize       = 1
	StackMemorySize       = 0x1000
)

const (
	TileMemoryStart = word.Word(0x0000)
	TileMemoryEnd   = TileMemoryStart + TileMemorySize - 1

	SpriteMemoryStart = TileMemoryEnd + 1
	SpriteMemoryEnd   = SpriteMemoryStart + SpriteMemorySize - 1

	ProgramMemoryStart = SpriteMemoryEnd + 1
	ProgramMemoryEnd   = ProgramMemoryStart + ProgramMemorySize - 1

	BackgroundMemoryStart = ProgramMemoryEnd + 1
	BackgroundMemoryEnd   = BackgroundMemoryStart + BackgroundMemorySize - 1

	UIMemoryStart = BackgroundMemoryEnd + 1
	UIMemoryEnd   = UIMemoryStart + UIMemorySize - 1

	InterruptMemoryStart = UIMemoryEnd + 1
	InterruptMemoryEnd   = InterruptMemoryStart + InterruptMemorySize - 1

	InputMemoryStart = InterruptMemoryEnd + 1
	InputMemoryEnd   = InputMemoryStart + InputMemorySize - 1

	StackMemoryStart = InputMemoryEnd + 1
	StackMemoryEnd   = StackMemoryStart + StackMemorySize - 1
)

// Interrupt names an entry in the interrupt vector table, indexed by the low
// byte of an `int` instruction's literal operand or raised by the host loop
// between instruction batches.
type Interrupt byte

const (
	// AfterFrame fires once per rendered frame, after the input bitmask has
	// been latched and before it is cleared for the next frame.
	AfterFrame Interrupt = 0
)

// VectorAddress returns the interrupt-vector-table address holding iv's
// 16-bit target, used by both Console setup and the CPU's `int` handling.
func VectorAddress(iv Interrupt) word.Word {
	return InterruptMemoryStart + word.Word(iv)*2
}

// Console is the standard device layout wired together the way
// aya-console/src/lib.rs's setup_memory does: one LinearDevice per region,
// mapped into a single MemoryMapper with program memory Direct-mapped (so
// the loader and the CPU's IP agree on addresses) and everything else
// Remap-mapped.
type Console struct {
	Mapper  *MemoryMapper
	Tile    *LinearDevice
	Sprite  *LinearDevice
	Program *LinearDevice
	BG      *LinearDevice
	UI      *LinearDevice
	Vectors *LinearDevice
	Input   *LinearDevice
	Stack   *LinearDevice
}

// NewConsole builds the standard memory map, seeding tile memory from
// sprites and program memory from code (both may be shorter than their
// device's fixed size; the remainder stays zeroed).
func NewConsole(code, sprites []byte) *Console {
	// Program memory is Direct-mapped (the loader and the CPU's IP must agree
	// on the same absolute addresses, per §4.J), so unlike every Remap device
	// its backing array must be sized to the absolute address it's read at,
	// not just its logical capacity.
	programBacking := make([]byte, int(ProgramMemoryEnd)+1)
	copy(programBacking[int(ProgramMemoryStart):], code)

	c := &Console{
		Tile:    NewLinearDeviceFrom(TileMemorySize, sprites),
		Sprite:  NewLinearDevice(SpriteMemorySize),
		Program: &LinearDevice{bytes: programBacking},
		BG:      NewLinearDevice(BackgroundMemorySize),
		UI:      NewLinearDevice(UIMemorySize),
		Vectors: NewLinearDevice(InterruptMemorySize),
		Input:   NewLinearDevice(InputMemorySize),
		Stack:   NewLinearDevice(StackMemorySize),
	}

	c.Mapper = NewMemoryMapper()
	c.Mapper.Map(c.Tile, TileMemoryStart, TileMemoryEnd, Remap)
	c.Mapper.Map(c.Sprite, SpriteMemoryStart, SpriteMemoryEnd, Remap)
	c.Mapper.Map(c.Program, ProgramMemoryStart, ProgramMemoryEnd, Direct)
	c.Mapper.Map(c.BG, BackgroundMemoryStart, BackgroundMemoryEnd, Remap)
	c.Mapper.Map(c.UI, UIMemoryStart, UIMemoryEnd, Remap)
	c.Mapper.Map(c.Vectors, InterruptMemoryStart, InterruptMemoryEnd, Remap)
	c.Mapper.Map(c.Input, InputMemoryStart, InputMemoryEnd, Remap)
	c.Mapper.Map(c.Stack, StackMemoryStart, StackMemoryEnd, Remap)
	return c
}
