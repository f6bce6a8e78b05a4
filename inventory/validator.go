package inventory

import (
	"fmt"
	"sort"
	"strings"

	"theater_inventory/models"
)

type ConflictCode string

const (
	ConflictMissingItem          ConflictCode = "missing-item"
	ConflictZeroAllocation       ConflictCode = "zero-allocation"
	ConflictMutualExclusivity    ConflictCode = "mutual-exclusivity"
	ConflictInsufficientQuantity ConflictCode = "insufficient-quantity"
	ConflictIllegalTransition    ConflictCode = "illegal-transition"
)

// Conflict is a hard reason to reject a transition.
type Conflict struct {
	Code         ConflictCode `json:"code"`
	Message      string       `json:"message"`
	AllocationID string       `json:"allocationId,omitempty"`
	Shortfall    int          `json:"shortfall,omitempty"`
}

// Result lists every problem found, so callers can present them all at once.
type Result struct {
	Valid     bool       `json:"valid"`
	Conflicts []Conflict `json:"conflicts"`
	Warnings  []Warning  `json:"warnings"`
}

func (r Result) HasConflict(code ConflictCode) bool {
	for _, c := range r.Conflicts {
		if c.Code == code {
			return true
		}
	}
	return false
}

// Proposal describes a status change to check. Target is nil when the
// proposal would create a new record.
type Proposal struct {
	Item        models.Item
	Target      *Allocation
	Allocations []Allocation
	Status      models.AllocationStatus
	// Quantity is the units the record would hold afterwards. Zero keeps the
	// target's current quantity; on an event target it is the new
	// quantity_allocated.
	Quantity int
	// EventID is the event a new record would serve.
	EventID    string
	EventNames map[string]string
}

// stockStatuses need free units to be entered.
var stockStatuses = map[models.AllocationStatus]bool{
	models.StatusAllocated:  true,
	models.StatusCheckedOut: true,
	models.StatusInUse:      true,
}

// exclusive lists, for an indivisible item, which statuses held elsewhere
// block the proposed one.
var exclusive = map[models.AllocationStatus]map[models.AllocationStatus]bool{
	models.StatusCheckedOut: {models.StatusCheckedOut: true, models.StatusInUse: true},
	models.StatusInUse:      {models.StatusCheckedOut: true, models.StatusInUse: true, models.StatusAllocated: true},
	models.StatusAllocated:  {models.StatusInUse: true},
}

// competing lists which statuses held elsewhere count against the proposed one.
var competing = map[models.AllocationStatus]map[models.AllocationStatus]bool{
	models.StatusAllocated:  {models.StatusAllocated: true, models.StatusCheckedOut: true, models.StatusInUse: true},
	models.StatusCheckedOut: {models.StatusCheckedOut: true, models.StatusInUse: true},
	models.StatusInUse:      {models.StatusCheckedOut: true, models.StatusInUse: true},
}

// Validator checks proposed status changes before they are committed.
type Validator struct {
	classes Classification
}

func NewValidator(classes Classification) *Validator {
	if classes == nil {
		classes = DefaultClassification()
	}
	return &Validator{classes: classes}
}

// Validate runs every rule and collects conflicts and warnings. It never
// short-circuits: all problems are reported together.
func (v *Validator) Validate(p Proposal) Result {
	res := Result{Conflicts: []Conflict{}, Warnings: []Warning{}}
	target := p.Target
	proposed := p.Status

	var current models.AllocationStatus
	quantity := p.Quantity
	eventID := p.EventID
	if target != nil {
		current = target.Status
		if quantity <= 0 {
			quantity = target.Committed()
		}
		if eventID == "" {
			eventID = target.EventID
		}
	}
	needsStock := stockStatuses[proposed]

	// 1) 活动需求未满足
	if target != nil && target.Kind == KindEvent && needsStock && target.QuantityNeeded > quantity {
		shortfall := target.QuantityNeeded - quantity
		res.Conflicts = append(res.Conflicts, Conflict{
			Code:         ConflictMissingItem,
			Message:      fmt.Sprintf("event needs %d units but only %d allocated: %d missing", target.QuantityNeeded, quantity, shortfall),
			AllocationID: target.ID,
			Shortfall:    shortfall,
		})
	}

	// 2) 无分配数量不能出库
	if proposed == models.StatusCheckedOut && quantity == 0 {
		res.Conflicts = append(res.Conflicts, Conflict{
			Code:    ConflictZeroAllocation,
			Message: "cannot check out an allocation holding zero units",
		})
	}

	// 3) 同一物品的其他有效分配
	others := make([]Allocation, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		if target != nil && a.ID == target.ID {
			continue
		}
		if v.classes.Releasing(a.Status) || IsTerminal(a.Status) {
			continue
		}
		others = append(others, a)
	}

	// 4) 单件物品互斥
	if p.Item.TotalQuantity == 1 {
		blocked := exclusive[proposed]
		for _, o := range others {
			if blocked[o.Status] {
				res.Conflicts = append(res.Conflicts, Conflict{
					Code:         ConflictMutualExclusivity,
					Message:      fmt.Sprintf("single-unit item is already %s by allocation %s", o.Status, o.ID),
					AllocationID: o.ID,
				})
			}
		}
	}

	// 5) 数量核算（排除当前记录）
	if needsStock {
		held := 0
		for _, o := range others {
			if competing[proposed][o.Status] {
				held += o.Committed()
			}
		}
		free := max(0, p.Item.TotalQuantity-p.Item.InstallationQuantity-held)
		if quantity > free {
			res.Conflicts = append(res.Conflicts, Conflict{
				Code:      ConflictInsufficientQuantity,
				Message:   fmt.Sprintf("requested %d units but only %d free for %s", quantity, free, proposed),
				Shortfall: quantity - free,
			})
		}
	}

	// 6) 顺序
	ordered := true
	switch proposed {
	case models.StatusReturned:
		if current != models.StatusCheckedOut && current != models.StatusInUse {
			ordered = false
			res.Conflicts = append(res.Conflicts, IllegalTransition(current, proposed, "only checked-out or in-use allocations can be returned"))
		}
	case models.StatusInUse:
		if current != models.StatusCheckedOut {
			ordered = false
			res.Conflicts = append(res.Conflicts, IllegalTransition(current, proposed, "allocation must be checked out before it is in use"))
		}
	}
	if ordered && target != nil {
		// 已关闭的记录不能原地重开，只能重新申请
		switch {
		case IsTerminal(current):
			res.Conflicts = append(res.Conflicts, IllegalTransition(current, proposed, "allocation is closed; request it again instead"))
		case target.Kind == KindEvent && !CanTransition(current, proposed):
			res.Conflicts = append(res.Conflicts, IllegalTransition(current, proposed, "not a legal event workflow step"))
		case target.Kind == KindLocation && !proposed.In(models.LocationStatuses):
			res.Conflicts = append(res.Conflicts, IllegalTransition(current, proposed, "not a location ledger status"))
		}
	}

	// 7) 软警告
	if target != nil && target.Kind == KindEvent && quantity > target.QuantityNeeded {
		res.Warnings = append(res.Warnings, Warning{
			Level:   LevelWarning,
			Code:    WarnOverAllocation,
			Message: fmt.Sprintf("allocating %d units but the event only needs %d", quantity, target.QuantityNeeded),
		})
	}
	if needsStock {
		committed := p.Item.InstallationQuantity + quantity
		for _, o := range others {
			if v.classes.Unavailable(o.Status) {
				committed += o.Committed()
			}
		}
		remaining := p.Item.TotalQuantity - committed
		if remaining >= 0 && remaining*lowStockDivisor < p.Item.TotalQuantity {
			res.Warnings = append(res.Warnings, Warning{
				Level:   LevelWarning,
				Code:    WarnLowAvailability,
				Message: fmt.Sprintf("only %d of %d units would remain available", remaining, p.Item.TotalQuantity),
			})
		}
	}
	if needsStock || proposed == models.StatusRequested {
		if names := otherEvents(others, eventID, p.EventNames); len(names) > 0 {
			res.Warnings = append(res.Warnings, Warning{
				Level:   LevelInfo,
				Code:    WarnConcurrentEvents,
				Message: "item is also allocated to: " + strings.Join(names, ", "),
			})
		}
	}

	res.Valid = len(res.Conflicts) == 0
	return res
}

// IllegalTransition describes a rejected workflow step.
func IllegalTransition(from, to models.AllocationStatus, why string) Conflict {
	if from == "" {
		from = "new"
	}
	return Conflict{
		Code:    ConflictIllegalTransition,
		Message: fmt.Sprintf("%s -> %s: %s", from, to, why),
	}
}

func otherEvents(others []Allocation, self string, names map[string]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range others {
		if o.EventID == "" || o.EventID == self || seen[o.EventID] {
			continue
		}
		seen[o.EventID] = true
		name := names[o.EventID]
		if name == "" {
			name = o.EventID
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
