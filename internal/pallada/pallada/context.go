package pallada

import (
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
)

// BlockInfo содержит информацию о текущем блоке
type BlockInfo struct {
	Number    uint64
	Timestamp uint64
	Hash      common.Hash
	Coinbase  common.Address
}

// StorageInterface определяет интерфейс для работы с состоянием аккаунтов
type StorageInterface interface {
	GetStorage(address common.Address, key *big.Int) (*big.Int, error)
	SetStorage(address common.Address, key *big.Int, value *big.Int) error
	GetBalance(address common.Address) *big.Int
}

// CallInterface определяет интерфейс для вызова аккаунтов из контрактов.
// Используется опкодом CALL: переводит value и, если у адреса есть код, выполняет его.
type CallInterface interface {
	// Call возвращает: результат, успех (true = успех), использованный газ
	Call(caller common.Address, address common.Address, value *big.Int, input []byte, gasLimit uint64) ([]byte, bool, uint64)
}

// LogInterface принимает события, выпущенные опкодами LOGn
type LogInterface interface {
	AddLog(address common.Address, topics []common.Hash, data []byte)
}

// Host объединяет все интерфейсы окружения, которые предоставляет леджер
type Host interface {
	StorageInterface
	CallInterface
	LogInterface
}

// Context содержит контекст выполнения контракта
type Context struct {
	Caller    common.Address   // Адрес вызывающего
	Address   common.Address   // Адрес исполняемого контракта
	Value     *big.Int         // Переданное значение (в базовых единицах)
	Input     []byte           // Данные вызова
	GasLimit  uint64           // Лимит газа для выполнения
	GasPrice  *big.Int         // Цена газа
	BlockInfo *BlockInfo       // Информация о блоке
	Storage   StorageInterface // может быть nil
	CallerInt CallInterface    // может быть nil
	Logs      LogInterface     // может быть nil
}

// NewContext создает новый контекст выполнения без доступа к состоянию
func NewContext(caller, address common.Address, value *big.Int, input []byte, gasLimit uint64, gasPrice *big.Int, blockInfo *BlockInfo) *Context {
	if value == nil {
		value = big.NewInt(0)
	}
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	if blockInfo == nil {
		blockInfo = &BlockInfo{}
	}
	return &Context{
		Caller:    caller,
		Address:   address,
		Value:     new(big.Int).Set(value),
		Input:     input,
		GasLimit:  gasLimit,
		GasPrice:  new(big.Int).Set(gasPrice),
		BlockInfo: blockInfo,
	}
}

// NewContextWithStorage создает новый контекст с доступом к storage
func NewContextWithStorage(caller, address common.Address, value *big.Int, input []byte, gasLimit uint64, gasPrice *big.Int, blockInfo *BlockInfo, storage StorageInterface) *Context {
	ctx := NewContext(caller, address, value, input, gasLimit, gasPrice, blockInfo)
	ctx.Storage = storage
	return ctx
}

// NewContextWithHost создает контекст, где storage, вызовы и события обслуживает host
func NewContextWithHost(caller, address common.Address, value *big.Int, input []byte, gasLimit uint64, gasPrice *big.Int, blockInfo *BlockInfo, host Host) *Context {
	ctx := NewContextWithStorage(caller, address, value, input, gasLimit, gasPrice, blockInfo, host)
	ctx.CallerInt = host
	ctx.Logs = host
	return ctx
}
