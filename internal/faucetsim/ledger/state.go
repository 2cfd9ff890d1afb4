package ledger

import (
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

type account struct {
	balance *big.Int
	nonce   uint64
	code    []byte
	storage map[common.Hash]*big.Int
}

func newAccount() *account {
	return &account{balance: new(big.Int), storage: make(map[common.Hash]*big.Int)}
}

// StateDB - состояние аккаунтов в памяти с журналом изменений.
// Snapshot/RevertToSnapshot откатывают все записи после снимка, включая логи.
// Не потокобезопасен, доступ сериализует Ledger.
type StateDB struct {
	accounts map[common.Address]*account
	journal  []journalEntry
	logs     []*types.Log
}

func NewStateDB() *StateDB {
	return &StateDB{accounts: make(map[common.Address]*account)}
}

// ========== Журнал ==========

type journalEntry interface {
	revert(s *StateDB)
}

type (
	createAccountChange struct {
		addr common.Address
	}
	balanceChange struct {
		addr common.Address
		prev *big.Int
	}
	nonceChange struct {
		addr common.Address
		prev uint64
	}
	codeChange struct {
		addr common.Address
		prev []byte
	}
	storageChange struct {
		addr common.Address
		key  common.Hash
		prev *big.Int // nil - слота не было
	}
	addLogChange struct {
		prevLen int
	}
)

func (c createAccountChange) revert(s *StateDB) { delete(s.accounts, c.addr) }
func (c balanceChange) revert(s *StateDB)       { s.accounts[c.addr].balance = c.prev }
func (c nonceChange) revert(s *StateDB)         { s.accounts[c.addr].nonce = c.prev }
func (c codeChange) revert(s *StateDB)          { s.accounts[c.addr].code = c.prev }
func (c addLogChange) revert(s *StateDB)        { s.logs = s.logs[:c.prevLen] }

func (c storageChange) revert(s *StateDB) {
	if c.prev == nil {
		delete(s.accounts[c.addr].storage, c.key)
		return
	}
	s.accounts[c.addr].storage[c.key] = c.prev
}

// Snapshot возвращает идентификатор текущей ревизии
func (s *StateDB) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot откатывает изменения, сделанные после Snapshot
func (s *StateDB) RevertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:id]
}

// Commit фиксирует изменения: журнал очищается, снимки становятся недействительны
func (s *StateDB) Commit() {
	s.journal = s.journal[:0]
}

// ========== Аккаунты ==========

func (s *StateDB) getOrNew(addr common.Address) *account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = newAccount()
		s.accounts[addr] = acc
		s.journal = append(s.journal, createAccountChange{addr: addr})
	}
	return acc
}

func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if acc, ok := s.accounts[addr]; ok {
		return new(big.Int).Set(acc.balance)
	}
	return new(big.Int)
}

func (s *StateDB) setBalance(addr common.Address, value *big.Int) {
	acc := s.getOrNew(addr)
	s.journal = append(s.journal, balanceChange{addr: addr, prev: acc.balance})
	acc.balance = value
}

func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	s.setBalance(addr, new(big.Int).Add(s.GetBalance(addr), amount))
}

// SubBalance не проверяет достаточность средств, это делает вызывающий
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	s.setBalance(addr, new(big.Int).Sub(s.GetBalance(addr), amount))
}

// Transfer переводит amount; false если у from не хватает средств
func (s *StateDB) Transfer(from, to common.Address, amount *big.Int) bool {
	if s.GetBalance(from).Cmp(amount) < 0 {
		return false
	}
	if amount.Sign() == 0 {
		s.getOrNew(to)
		return true
	}
	s.SubBalance(from, amount)
	s.AddBalance(to, amount)
	return true
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if acc, ok := s.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	acc := s.getOrNew(addr)
	s.journal = append(s.journal, nonceChange{addr: addr, prev: acc.nonce})
	acc.nonce = nonce
}

func (s *StateDB) GetCode(addr common.Address) []byte {
	if acc, ok := s.accounts[addr]; ok {
		return acc.code
	}
	return nil
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	acc := s.getOrNew(addr)
	s.journal = append(s.journal, codeChange{addr: addr, prev: acc.code})
	acc.code = common.CopyBytes(code)
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) *big.Int {
	if acc, ok := s.accounts[addr]; ok {
		if v, ok := acc.storage[key]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

func (s *StateDB) SetState(addr common.Address, key common.Hash, value *big.Int) {
	acc := s.getOrNew(addr)
	prev, ok := acc.storage[key]
	if !ok {
		prev = nil
	}
	s.journal = append(s.journal, storageChange{addr: addr, key: key, prev: prev})
	acc.storage[key] = new(big.Int).Set(value)
}

// ========== Логи ==========

func (s *StateDB) AddLog(log *types.Log) {
	s.journal = append(s.journal, addLogChange{prevLen: len(s.logs)})
	s.logs = append(s.logs, log)
}

// Logs возвращает логи текущей транзакции, не очищая буфер
func (s *StateDB) Logs() []*types.Log {
	out := make([]*types.Log, len(s.logs))
	copy(out, s.logs)
	return out
}

// TakeLogs возвращает логи текущей транзакции и очищает буфер.
// Вызывается после Commit.
func (s *StateDB) TakeLogs() []*types.Log {
	logs := s.logs
	s.logs = nil
	return logs
}
