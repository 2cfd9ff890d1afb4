package ledger

import "github.com/prometheus/client_golang/prometheus"

var (
	ledgerTransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faucetsim_ledger_transactions_total",
		Help: "Transactions processed by the simulated ledger, by outcome",
	}, []string{"status"})
	ledgerBlockHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "faucetsim_ledger_block_height",
		Help: "Number of the latest mined block",
	})
	ledgerGasUsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faucetsim_ledger_gas_used_total",
		Help: "Total gas used by mined transactions",
	})
	ledgerLogsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faucetsim_ledger_logs_total",
		Help: "Total number of logs emitted by mined transactions",
	})
	ledgerCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faucetsim_ledger_calls_total",
		Help: "Read-only calls and gas estimations",
	}, []string{"kind"})
)

const (
	statusSuccess  = "success"
	statusReverted = "reverted"
	statusRejected = "rejected"
)

func init() {
	prometheus.MustRegister(
		ledgerTransactionsTotal,
		ledgerBlockHeight,
		ledgerGasUsedTotal,
		ledgerLogsTotal,
		ledgerCallsTotal,
	)
}
