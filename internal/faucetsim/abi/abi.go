// Package abi кодирует вызовы, события и ошибки контрактов в формате
// Solidity ABI. Разбор и упаковку делает go-ethereum, пакет приводит
// адреса и хэши к типам faucetsim.
package abi

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

var (
	ErrUnknownMethod = errors.New("abi: unknown method")
	ErrUnknownEvent  = errors.New("abi: unknown event")
	ErrUnknownError  = errors.New("abi: unknown custom error")
	ErrEventMismatch = errors.New("abi: log does not match event")
	ErrShortData     = errors.New("abi: data too short")
)

// ABI - разобранное описание интерфейса контракта
type ABI struct {
	ethabi.ABI
}

// DecodedError - пользовательская ошибка, извлеченная из данных revert
type DecodedError struct {
	Name string
	Args []interface{}
}

func (e *DecodedError) String() string {
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		parts[i] = fmt.Sprint(arg)
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// Parse разбирает ABI в JSON
func Parse(def string) (*ABI, error) {
	parsed, err := ethabi.JSON(strings.NewReader(def))
	if err != nil {
		return nil, err
	}
	return &ABI{ABI: parsed}, nil
}

func MustParse(def string) *ABI {
	a, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return a
}

// Selector - первые 4 байта keccak256 от сигнатуры функции
func Selector(signature string) []byte {
	return common.Keccak256([]byte(signature))[:4]
}

// EventID - keccak256 от сигнатуры события (topic[0])
func EventID(signature string) common.Hash {
	return common.Keccak256Hash([]byte(signature))
}

// Pack кодирует вызов метода: селектор и аргументы
func (a *ABI) Pack(method string, args ...interface{}) ([]byte, error) {
	if _, ok := a.Methods[method]; !ok && method != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return a.ABI.Pack(method, toEth(args)...)
}

// Unpack декодирует результат метода
func (a *ABI) Unpack(method string, data []byte) ([]interface{}, error) {
	m, ok := a.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	values, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, err
	}
	return fromEth(values), nil
}

// EventTopic возвращает topic[0] события name
func (a *ABI) EventTopic(name string) (common.Hash, error) {
	ev, ok := a.Events[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	return common.Hash(ev.ID), nil
}

// ParseLog декодирует лог события name: индексированные поля из topics,
// остальные из data
func (a *ABI) ParseLog(name string, log *types.Log) (map[string]interface{}, error) {
	ev, ok := a.Events[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != common.Hash(ev.ID) {
		return nil, fmt.Errorf("%w: %s", ErrEventMismatch, name)
	}

	out := make(map[string]interface{})
	if len(ev.Inputs.NonIndexed()) > 0 {
		if err := ev.Inputs.UnpackIntoMap(out, log.Data); err != nil {
			return nil, fmt.Errorf("unpack %s data: %w", name, err)
		}
	}
	var indexed ethabi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	topics := make([]ethcommon.Hash, 0, len(log.Topics)-1)
	for _, t := range log.Topics[1:] {
		topics = append(topics, ethcommon.Hash(t))
	}
	if err := ethabi.ParseTopicsIntoMap(out, indexed, topics); err != nil {
		return nil, fmt.Errorf("unpack %s topics: %w", name, err)
	}
	for k, v := range out {
		out[k] = fromEthValue(v)
	}
	return out, nil
}

// PackError кодирует пользовательскую ошибку так, как ее возвращает REVERT
func (a *ABI) PackError(name string, args ...interface{}) ([]byte, error) {
	e, ok := a.Errors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownError, name)
	}
	data, err := e.Inputs.Pack(toEth(args)...)
	if err != nil {
		return nil, err
	}
	return append(common.CopyBytes(e.ID[:4]), data...), nil
}

// DecodeError находит ошибку по селектору и декодирует ее аргументы
func (a *ABI) DecodeError(data []byte) (*DecodedError, error) {
	if len(data) < 4 {
		return nil, ErrShortData
	}
	for name, e := range a.Errors {
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}
		args, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", name, err)
		}
		return &DecodedError{Name: name, Args: fromEth(args)}, nil
	}
	return nil, fmt.Errorf("%w: selector %s", ErrUnknownError, hexutil.Encode(data[:4]))
}

// MethodName возвращает имя метода по селектору calldata или "" если не найден
func (a *ABI) MethodName(calldata []byte) string {
	if len(calldata) < 4 {
		return ""
	}
	m, err := a.MethodById(calldata[:4])
	if err != nil {
		return ""
	}
	return m.Name
}

func toEth(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case common.Address:
			out[i] = ethcommon.Address(v)
		case common.Hash:
			out[i] = [32]byte(v)
		default:
			out[i] = arg
		}
	}
	return out
}

func fromEth(values []interface{}) []interface{} {
	for i, v := range values {
		values[i] = fromEthValue(v)
	}
	return values
}

func fromEthValue(v interface{}) interface{} {
	switch x := v.(type) {
	case ethcommon.Address:
		return common.Address(x)
	case ethcommon.Hash:
		return common.Hash(x)
	case [32]byte:
		return common.Hash(x)
	default:
		return v
	}
}
