package packet

// Client → server opcodes.
const (
	CJoin    byte = 0x01 // account name + password, match join
	CCommand byte = 0x02 // one simulation command
	CPing    byte = 0x03
)

// Server → client opcodes.
const (
	SJoinOK   byte = 0x81 // assigned player id
	SJoinFail byte = 0x82 // reason string
	SSnapshot byte = 0x83 // full world state
	SGameOver byte = 0x84 // winner player id
	SPong     byte = 0x85
)
