package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ActionHandler performs the advisory side effect for one plan line.
type ActionHandler interface {
	CreateOrder(ctx context.Context, item ActionPlanItem) error
	RaiseAlert(ctx context.Context, item ActionPlanItem) error
	Monitor(ctx context.Context, item ActionPlanItem) error
}

// ExecutedItem records what happened to one plan line.
type ExecutedItem struct {
	Item  ActionPlanItem `json:"item"`
	Error string         `json:"error,omitempty"`
}

// ExecutionReport summarizes one executed plan.
type ExecutionReport struct {
	NothingToDo bool            `json:"nothing_to_do"`
	Highest     *ActionPlanItem `json:"highest_priority,omitempty"`
	Orders      []ExecutedItem  `json:"orders"`
	Alerts      []ExecutedItem  `json:"alerts"`
	Monitored   []ExecutedItem  `json:"monitored"`
	Skipped     []ExecutedItem  `json:"skipped"`
	Failed      int             `json:"failed"`
}

// Executor dispatches plan lines to an ActionHandler. Execution is advisory only.
type Executor struct {
	handler  ActionHandler
	log      logrus.FieldLogger
	observer Observer
}

// NewExecutor builds an Executor. A nil handler logs each action.
func NewExecutor(handler ActionHandler, log logrus.FieldLogger, observer Observer) *Executor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if handler == nil {
		handler = NewLogHandler(log)
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Executor{handler: handler, log: log, observer: observer}
}

// Execute runs the plan in order. The first line is surfaced as the highest priority.
// A failing handler only affects its own line.
func (e *Executor) Execute(ctx context.Context, plan []ActionPlanItem) ExecutionReport {
	report := ExecutionReport{
		Orders:    []ExecutedItem{},
		Alerts:    []ExecutedItem{},
		Monitored: []ExecutedItem{},
		Skipped:   []ExecutedItem{},
	}
	if len(plan) == 0 {
		report.NothingToDo = true
		e.log.Info("no actions to execute")
		return report
	}

	highest := plan[0]
	report.Highest = &highest
	e.log.WithFields(logrus.Fields{"code": highest.Code, "action": highest.Action}).Info("highest priority item")

	for _, item := range plan {
		var err error
		var bucket *[]ExecutedItem
		switch item.Action {
		case ActionOrder:
			err = e.handler.CreateOrder(ctx, item)
			bucket = &report.Orders
		case ActionInvestigate:
			err = e.handler.RaiseAlert(ctx, item)
			bucket = &report.Alerts
		case ActionMonitor:
			err = e.handler.Monitor(ctx, item)
			bucket = &report.Monitored
		default:
			e.log.WithFields(logrus.Fields{"code": item.Code, "action": item.Action}).Warn("unknown action skipped")
			report.Skipped = append(report.Skipped, ExecutedItem{Item: item})
			continue
		}

		ex := ExecutedItem{Item: item}
		if err != nil {
			ex.Error = err.Error()
			report.Failed++
			e.log.WithError(err).WithField("code", item.Code).Error("action handler failed")
		}
		e.observer.ActionExecuted(item.Action, err == nil)
		*bucket = append(*bucket, ex)
	}
	return report
}

// LogHandler is the default ActionHandler: each action becomes a structured log entry.
type LogHandler struct {
	log logrus.FieldLogger
}

// NewLogHandler returns a handler writing to log.
func NewLogHandler(log logrus.FieldLogger) *LogHandler {
	return &LogHandler{log: log}
}

func (h *LogHandler) CreateOrder(_ context.Context, item ActionPlanItem) error {
	h.log.WithFields(logrus.Fields{"code": item.Code, "quantity": item.ActionQuantity, "rank": item.PriorityRank}).
		Info("purchase order created")
	return nil
}

func (h *LogHandler) RaiseAlert(_ context.Context, item ActionPlanItem) error {
	h.log.WithFields(logrus.Fields{"code": item.Code, "rank": item.PriorityRank, "justification": item.Justification}).
		Warn("demand alert raised")
	return nil
}

func (h *LogHandler) Monitor(_ context.Context, item ActionPlanItem) error {
	h.log.WithFields(logrus.Fields{"code": item.Code, "rank": item.PriorityRank}).Debug("monitoring")
	return nil
}
