package pmbus

// BlockMax is the largest payload a PMBus block transfer may carry.
const BlockMax = 255

// BlockTransfer issues variable-length block transactions against a device.
type BlockTransfer interface {
	// ReadBlock reads the block register cmd and returns its payload without
	// the length prefix.
	ReadBlock(cmd byte) ([]byte, error)
	// WriteReadBlock writes req to cmd and returns the block read back.
	WriteReadBlock(cmd byte, req []byte) ([]byte, error)
}

// WordReader is implemented by transfers that can also read 16-bit registers.
type WordReader interface {
	ReadWord(cmd byte) (uint16, error)
}

// WordWriter is implemented by transfers that can also write 16-bit registers.
type WordWriter interface {
	WriteWord(cmd byte, v uint16) error
}
