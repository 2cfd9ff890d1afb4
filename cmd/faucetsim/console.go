package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/davecgh/go-spew/spew"

	"github.com/faucetsim/internal/faucet"
	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/harness"
	"github.com/faucetsim/internal/faucetsim/ledger"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
)

var errQuit = errors.New("quit")

var descriptions = map[string]string{
	"accounts": "List known signers and balances",
	"deploy":   "deploy [funding] - deploy a new faucet",
	"owner":    "Show faucet owner",
	"withdraw": "withdraw <amount> [acct] - withdraw from the faucet",
	"send":     "send <to|faucet> <amount> [acct] - plain transfer",
	"balance":  "balance <addr|faucet> - show balance",
	"receipt":  "receipt <txhash> - dump receipt",
	"logs":     "Show FallbackCalled and Withdrawal events of the faucet",
	"run":      "Run the faucet suite again",
	"help":     "Show available commands",
	"exit":     "Exit the program",
}

func Usage() string {
	keys := make([]string, 0, len(descriptions))
	for k := range descriptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "\t%s: %s\n", k, descriptions[k])
	}
	return sb.String()
}

type console struct {
	ledger *ledger.Ledger
	suite  *harness.Suite
	faucet *faucet.Faucet
	out    io.Writer
}

func newConsole(l *ledger.Ledger, suite *harness.Suite, out io.Writer) *console {
	return &console{ledger: l, suite: suite, faucet: suite.Faucet(), out: out}
}

func (c *console) loop(ctx context.Context) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF, readline.ErrInterrupt
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := c.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *console) exec(ctx context.Context, line string) error {
	input := strings.Fields(line)
	if len(input) == 0 {
		return nil
	}
	args := input[1:]
	switch input[0] {
	case "accounts":
		return c.accounts(ctx)
	case "deploy":
		return c.deploy(ctx, args)
	case "owner":
		return c.owner(ctx)
	case "withdraw":
		return c.withdraw(ctx, args)
	case "send":
		return c.send(ctx, args)
	case "balance", "b":
		return c.balance(ctx, args)
	case "receipt":
		return c.receipt(ctx, args)
	case "logs":
		return c.logs(ctx)
	case "run":
		results, err := c.suite.Run(ctx)
		printResults(c.out, results)
		c.faucet = c.suite.Faucet()
		return err
	case "help":
		fmt.Fprint(c.out, Usage())
		return nil
	case "exit":
		return errQuit
	default:
		fmt.Fprintln(c.out, "Unknown command, use help to see available commands")
		return nil
	}
}

func (c *console) transactor(ctx context.Context, w *wallet.Wallet) (*bind.TransactOpts, error) {
	chainID, err := c.ledger.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts := bind.NewKeyedTransactor(w, chainID)
	opts.Context = ctx
	return opts, nil
}

func (c *console) account(args []string, i int) (*wallet.Wallet, error) {
	accounts := c.ledger.Accounts()
	if len(args) <= i {
		return accounts[0], nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 || n >= len(accounts) {
		return nil, fmt.Errorf("account index must be 0..%d", len(accounts)-1)
	}
	return accounts[n], nil
}

func (c *console) requireFaucet() error {
	if c.faucet == nil {
		return harness.ErrNotDeployed
	}
	return nil
}

// resolve разбирает адрес; "faucet" - адрес текущего фаусета
func (c *console) resolve(s string) (common.Address, error) {
	if s == "faucet" {
		if err := c.requireFaucet(); err != nil {
			return common.Address{}, err
		}
		return c.faucet.Address(), nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func (c *console) accounts(ctx context.Context) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for i, acc := range c.ledger.Accounts() {
		balance, err := c.ledger.BalanceAt(ctx, acc.Address())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, acc.Address().Hex(), types.FormatEther(balance))
	}
	return w.Flush()
}

// deploy развертывает фаусет с лимитом и пополнением из параметров набора;
// аргумент заменяет пополнение
func (c *console) deploy(ctx context.Context, args []string) error {
	params := c.suite.Options()
	funding := params.Funding
	if len(args) > 0 {
		var err error
		if funding, err = types.ParseEther(args[0]); err != nil {
			return err
		}
	}
	opts, err := c.transactor(ctx, c.ledger.Accounts()[0])
	if err != nil {
		return err
	}
	opts.Value = funding
	addr, tx, f, err := faucet.Deploy(opts, c.ledger, params.MaxWithdraw)
	if err != nil {
		return err
	}
	if _, err := bind.WaitDeployed(ctx, c.ledger, tx); err != nil {
		return err
	}
	c.faucet = f
	fmt.Fprintf(c.out, "Faucet deployed at %s (tx %s)\n", addr.Hex(), tx.Hash().Hex())
	return nil
}

func (c *console) owner(ctx context.Context) error {
	if err := c.requireFaucet(); err != nil {
		return err
	}
	owner, err := c.faucet.Owner(&bind.CallOpts{Context: ctx})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, owner.Hex())
	return nil
}

func (c *console) withdraw(ctx context.Context, args []string) error {
	if err := c.requireFaucet(); err != nil {
		return err
	}
	if len(args) < 1 {
		return errors.New("usage: withdraw <amount> [acct]")
	}
	amount, err := types.ParseEther(args[0])
	if err != nil {
		return err
	}
	w, err := c.account(args, 1)
	if err != nil {
		return err
	}
	opts, err := c.transactor(ctx, w)
	if err != nil {
		return err
	}
	tx, err := c.faucet.Withdraw(opts, amount)
	if err != nil {
		return faucet.UnpackError(err)
	}
	return c.printReceipt(ctx, tx)
}

func (c *console) send(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: send <to|faucet> <amount> [acct]")
	}
	to, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	amount, err := types.ParseEther(args[1])
	if err != nil {
		return err
	}
	w, err := c.account(args, 2)
	if err != nil {
		return err
	}
	opts, err := c.transactor(ctx, w)
	if err != nil {
		return err
	}
	opts.Value = amount
	tx, err := bind.Transfer(opts, c.ledger, to)
	if err != nil {
		return err
	}
	return c.printReceipt(ctx, tx)
}

func (c *console) balance(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: balance <addr|faucet>")
	}
	addr, err := c.resolve(args[0])
	if err != nil {
		return err
	}
	balance, err := c.ledger.BalanceAt(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, types.FormatEther(balance))
	return nil
}

func (c *console) receipt(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: receipt <txhash>")
	}
	receipt, err := c.ledger.TransactionReceipt(ctx, common.HexToHash(args[0]))
	if err != nil {
		return err
	}
	spew.Fdump(c.out, receipt)
	return nil
}

func (c *console) printReceipt(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.ledger, tx)
	if err != nil {
		return err
	}
	status := "success"
	if err := faucet.ReceiptError(receipt); err != nil {
		status = err.Error()
	}
	fmt.Fprintf(c.out, "tx %s block %d gas %d: %s\n", receipt.TxHash.Hex(), receipt.BlockNumber, receipt.GasUsed, status)
	return nil
}

func (c *console) logs(ctx context.Context) error {
	if err := c.requireFaucet(); err != nil {
		return err
	}
	opts := &bind.FilterOpts{Context: ctx}
	fallbacks, err := c.faucet.FilterFallbackCalled(opts, nil)
	if err != nil {
		return err
	}
	for _, ev := range fallbacks {
		fmt.Fprintf(c.out, "block %d FallbackCalled sender=%s value=%s\n", ev.Raw.BlockNumber, ev.Sender.Hex(), types.FormatEther(orZero(ev.Value)))
	}
	withdrawals, err := c.faucet.FilterWithdrawal(opts, nil)
	if err != nil {
		return err
	}
	for _, ev := range withdrawals {
		fmt.Fprintf(c.out, "block %d Withdrawal to=%s amount=%s\n", ev.Raw.BlockNumber, ev.To.Hex(), types.FormatEther(orZero(ev.Amount)))
	}
	return nil
}

func printResults(out io.Writer, results []harness.Result) {
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s\t%-16s %s\n", status, r.Name, r.Duration)
		if r.Err != nil {
			fmt.Fprintf(out, "\t%v\n", r.Err)
		}
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
