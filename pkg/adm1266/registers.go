package adm1266

// ADM1266 manufacturer-specific PMBus commands
const (
	RegPDIOConfig   = 0xD4
	RegGoCommand    = 0xD8
	RegReadState    = 0xD9
	RegReadBlackbox = 0xDE
	RegGPIOConfig   = 0xE1
	RegBlackboxInfo = 0xE6
	RegPDIOStatus   = 0xE9
	RegGPIOStatus   = 0xEA
)

const (
	NumGPIO  = 9
	NumPDIO  = 16
	NumLines = NumGPIO + NumPDIO

	// BlackboxRecordSize is the size of one blackbox fault record.
	BlackboxRecordSize = 64

	// DefaultAddress is the 7-bit address of an ADM1266 with ADDR strapped low.
	DefaultAddress = 0x40

	// goCommandMask keeps the state index bits of GO_COMMAND.
	goCommandMask = 0x1F

	// pdioSelectAll asks PDIO_CONFIG for every pin at once.
	pdioSelectAll = 0xFF
)
