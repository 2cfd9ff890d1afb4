package faucet

import "github.com/faucetsim/internal/faucetsim/abi"

// ABIJSON - интерфейс контракта Faucet
const ABIJSON = `[
	{"type": "constructor", "stateMutability": "payable", "inputs": []},
	{"type": "receive", "stateMutability": "payable"},
	{"type": "function", "name": "owner", "stateMutability": "view", "inputs": [],
	 "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "maxWithdrawAmount", "stateMutability": "view", "inputs": [],
	 "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "withdraw", "stateMutability": "nonpayable",
	 "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []},
	{"type": "event", "name": "FallbackCalled", "anonymous": false, "inputs": [
		{"name": "sender", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}]},
	{"type": "event", "name": "Withdrawal", "anonymous": false, "inputs": [
		{"name": "to", "type": "address", "indexed": true},
		{"name": "amount", "type": "uint256", "indexed": false}]},
	{"type": "error", "name": "WithdrawalLimitExceeded", "inputs": [
		{"name": "requested", "type": "uint256"},
		{"name": "max", "type": "uint256"}]},
	{"type": "error", "name": "TransferFailed", "inputs": []}
]`

// ABI - разобранный ABIJSON
var ABI = abi.MustParse(ABIJSON)
