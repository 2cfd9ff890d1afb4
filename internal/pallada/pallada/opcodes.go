package pallada

// OpCode представляет код операции (инструкцию)
type OpCode byte

// Константы опкодов.
//
// Порядок операндов: первым снимается вершина стека (a), затем следующий (b).
// Бинарные операции вычисляют b <op> a, то есть "PUSH x, PUSH y, SUB" дает x - y.
const (
	// Остановка выполнения
	STOP OpCode = 0x00

	// Арифметические операции (по модулю 2^256)
	ADD OpCode = 0x01 // b + a
	SUB OpCode = 0x02 // b - a
	MUL OpCode = 0x03 // b * a
	DIV OpCode = 0x04 // b / a, 0 если a == 0
	MOD OpCode = 0x05 // b % a, 0 если a == 0

	// Логические операции
	AND OpCode = 0x10
	OR  OpCode = 0x11
	XOR OpCode = 0x12
	NOT OpCode = 0x13
	SHL OpCode = 0x14 // value(b) << shift(a)
	SHR OpCode = 0x15 // value(b) >> shift(a)

	// Операции сравнения (результат 1 или 0)
	LT     OpCode = 0x20 // b < a
	GT     OpCode = 0x21 // b > a
	EQ     OpCode = 0x22
	ISZERO OpCode = 0x23

	POP OpCode = 0x30

	DUP1 OpCode = 0x40
	DUP2 OpCode = 0x41
	DUP3 OpCode = 0x42
	DUP4 OpCode = 0x43

	SWAP1 OpCode = 0x50
	SWAP2 OpCode = 0x51
	SWAP3 OpCode = 0x52
	SWAP4 OpCode = 0x53

	// Операции с памятью
	MLOAD  OpCode = 0x60 // offset -> value
	MSTORE OpCode = 0x61 // offset, value -> memory[offset:offset+32]

	// PUSH операции
	PUSH1  OpCode = 0x70
	PUSH2  OpCode = 0x71
	PUSH4  OpCode = 0x72
	PUSH8  OpCode = 0x73
	PUSH16 OpCode = 0x74
	PUSH32 OpCode = 0x75

	// Управление потоком
	JUMP     OpCode = 0x80 // dest
	JUMPI    OpCode = 0x81 // cond, dest (переход если cond != 0)
	JUMPDEST OpCode = 0x82
	PC       OpCode = 0x83
	RETURN   OpCode = 0x84 // offset, size
	REVERT   OpCode = 0x85 // offset, size

	// Блокчейн-опкоды (контекст выполнения)
	ADDRESS      OpCode = 0x90
	CALLER       OpCode = 0x91
	CALLVALUE    OpCode = 0x92
	CALLDATALOAD OpCode = 0x93 // offset -> data[offset:offset+32]
	CALLDATASIZE OpCode = 0x94
	CALLDATACOPY OpCode = 0x95 // destOffset, offset, size
	SLOAD        OpCode = 0x96 // key -> value
	SSTORE       OpCode = 0x97 // key, value
	CALL         OpCode = 0x98 // gas, address, value, inOffset, inSize, outOffset, outSize -> success
	BALANCE      OpCode = 0x99 // address -> balance
	SELFBALANCE  OpCode = 0x9A
	CODESIZE     OpCode = 0x9B
	CODECOPY     OpCode = 0x9C // destOffset, offset, size
	GAS          OpCode = 0x9D

	// События: offset, size, topic1..topicN
	LOG0 OpCode = 0xA0
	LOG1 OpCode = 0xA1
	LOG2 OpCode = 0xA2
	LOG3 OpCode = 0xA3
)

var opNames = map[OpCode]string{
	STOP: "STOP",
	ADD:  "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", MOD: "MOD",
	AND: "AND", OR: "OR", XOR: "XOR", NOT: "NOT", SHL: "SHL", SHR: "SHR",
	LT: "LT", GT: "GT", EQ: "EQ", ISZERO: "ISZERO",
	POP:  "POP",
	DUP1: "DUP1", DUP2: "DUP2", DUP3: "DUP3", DUP4: "DUP4",
	SWAP1: "SWAP1", SWAP2: "SWAP2", SWAP3: "SWAP3", SWAP4: "SWAP4",
	MLOAD: "MLOAD", MSTORE: "MSTORE",
	PUSH1: "PUSH1", PUSH2: "PUSH2", PUSH4: "PUSH4", PUSH8: "PUSH8", PUSH16: "PUSH16", PUSH32: "PUSH32",
	JUMP: "JUMP", JUMPI: "JUMPI", JUMPDEST: "JUMPDEST", PC: "PC", RETURN: "RETURN", REVERT: "REVERT",
	ADDRESS: "ADDRESS", CALLER: "CALLER", CALLVALUE: "CALLVALUE",
	CALLDATALOAD: "CALLDATALOAD", CALLDATASIZE: "CALLDATASIZE", CALLDATACOPY: "CALLDATACOPY",
	SLOAD: "SLOAD", SSTORE: "SSTORE", CALL: "CALL",
	BALANCE: "BALANCE", SELFBALANCE: "SELFBALANCE", CODESIZE: "CODESIZE", CODECOPY: "CODECOPY", GAS: "GAS",
	LOG0: "LOG0", LOG1: "LOG1", LOG2: "LOG2", LOG3: "LOG3",
}

// GetPushSize возвращает размер данных для PUSH операции
func GetPushSize(op OpCode) (int, bool) {
	switch op {
	case PUSH1:
		return 1, true
	case PUSH2:
		return 2, true
	case PUSH4:
		return 4, true
	case PUSH8:
		return 8, true
	case PUSH16:
		return 16, true
	case PUSH32:
		return 32, true
	default:
		return 0, false
	}
}

// PushOpForSize возвращает наименьший PUSH, вмещающий size байт
func PushOpForSize(size int) (OpCode, int) {
	switch {
	case size <= 1:
		return PUSH1, 1
	case size <= 2:
		return PUSH2, 2
	case size <= 4:
		return PUSH4, 4
	case size <= 8:
		return PUSH8, 8
	case size <= 16:
		return PUSH16, 16
	default:
		return PUSH32, 32
	}
}

// IsPush проверяет, является ли опкод PUSH операцией
func IsPush(op OpCode) bool {
	_, ok := GetPushSize(op)
	return ok
}

// LogTopics возвращает количество топиков для LOGn
func LogTopics(op OpCode) (int, bool) {
	if op >= LOG0 && op <= LOG3 {
		return int(op - LOG0), true
	}
	return 0, false
}

// IsValidOpcode проверяет, является ли опкод валидным
func IsValidOpcode(op OpCode) bool {
	_, ok := opNames[op]
	return ok
}

// OpcodeName возвращает имя опкода для отладки
func OpcodeName(op OpCode) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

func (op OpCode) String() string {
	return OpcodeName(op)
}
