package main

import (
	"context"
	"fmt"
	"os"

	"supply-agent/internal/ai"
	"supply-agent/internal/config"
	"supply-agent/internal/core"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := config.NewLogger(cfg.LogLevel, "text", os.Stderr)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	agent, err := ai.NewAgent(cfg.OpenAIAPIKey, cfg.ReasoningModel)
	if err != nil {
		log.Fatalf("agent: %v", err)
	}

	delegate := core.NewDelegate(core.DelegateConfig{
		Reasoner: agent,
		Policy:   cfg.Policy,
		Timeout:  cfg.DelegateTimeout,
		Logger:   log,
	})

	records := []core.StockRecord{
		{Code: "VALVE-01", ABC: core.ClassA, CurrentBalance: 0, ConsumptionRate: 3.5},
		{Code: "GASKET-22", ABC: core.ClassB, CurrentBalance: 460, ConsumptionRate: 1.2},
		{Code: "BOLT-M8", ABC: core.ClassC, CurrentBalance: 40, PendingPurchases: 10, ConsumptionRate: 0.6},
	}
	critical := core.CriticalSet(core.Rank(records, cfg.Policy), cfg.Policy.MaxCriticalItems)

	fmt.Printf("SENDING %d CRITICAL RECORDS TO %s\n", len(critical), agent.Model())
	res := delegate.Plan(context.Background(), critical)
	if res.Err != nil {
		log.Fatalf("delegate %s: %v", res.Outcome, res.Err)
	}

	fmt.Printf("\n--- PLAN (%s) ---\n", res.Outcome)
	for _, it := range res.Items {
		fmt.Printf("%d. %s %s qty=%d\n   %s\n", it.PriorityRank, it.Code, it.Action, it.ActionQuantity, it.Justification)
	}
}
