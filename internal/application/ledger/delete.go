package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/leetgroups/groupboard/internal/domain/group"
	"github.com/leetgroups/groupboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE CASCADE
// Flow: Check Owner → Drop from owner.owned → Drop from each member.groups →
//
//	Delete group document
//
// ══════════════════════════════════════════════════════════════════════════════

// Step names recorded in a CascadeReport.
const (
	StepOwnerRecord = "owner_record"
	StepGroupDoc    = "group_document"
)

// MemberStep names the step that updates one member's record.
func MemberStep(h shared.Handle) string {
	return "member:" + h.String()
}

// StepFailure pairs a step with the error it failed with.
type StepFailure struct {
	Step string
	Err  error
}

// CascadeReport records the outcome of every step of a delete cascade, in
// execution order.
type CascadeReport struct {
	Completed []string
	Failed    []StepFailure
}

// OK reports whether every step succeeded.
func (r CascadeReport) OK() bool {
	return len(r.Failed) == 0
}

// FirstError returns the error of the first failed step, or nil.
func (r CascadeReport) FirstError() error {
	if len(r.Failed) == 0 {
		return nil
	}
	f := r.Failed[0]
	return fmt.Errorf("delete cascade step %s: %w", f.Step, f.Err)
}

func (r *CascadeReport) record(step string, err error) {
	if err != nil {
		r.Failed = append(r.Failed, StepFailure{Step: step, Err: err})
		return
	}
	r.Completed = append(r.Completed, step)
}

// DeleteGroup removes g on behalf of requestor, who must own it. The group is
// dropped from the owner's owned list and from every member's groups list, then
// the group document is deleted. A failed step does not stop the cascade; the
// first failure is returned alongside the full report.
func (l *Ledger) DeleteGroup(ctx context.Context, g *group.Group, requestor shared.Handle) (CascadeReport, error) {
	var report CascadeReport

	owner, err := l.users.Get(ctx, requestor)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return report, shared.ErrNotOwner
		}
		return report, fmt.Errorf("load owner record: %w", err)
	}
	if !owner.Owns(g.Name) {
		return report, shared.ErrNotOwner
	}

	owner.RemoveOwned(g.Name)
	// The owner is normally also a member; fold both edits into one write.
	ownerIsMember := g.HasMember(requestor)
	if ownerIsMember {
		owner.LeaveGroup(g.Name)
	}
	report.record(StepOwnerRecord, l.users.Save(ctx, owner))

	for _, h := range g.Members {
		if ownerIsMember && h == requestor {
			continue
		}
		report.record(MemberStep(h), l.dropMembership(ctx, h, g.Name))
	}

	report.record(StepGroupDoc, l.groups.Delete(ctx, g.Name))

	for _, f := range report.Failed {
		l.observer.CascadeStepFailed(f.Step)
		l.logger.Error("delete cascade step failed",
			"group", g.Name.String(),
			"step", f.Step,
			"error", f.Err,
		)
	}
	if report.OK() {
		l.logger.Info("group deleted", "group", g.Name.String(), "steps", len(report.Completed))
	}
	return report, report.FirstError()
}

func (l *Ledger) dropMembership(ctx context.Context, h shared.Handle, name shared.GroupName) error {
	rec, err := l.users.Get(ctx, h)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !rec.LeaveGroup(name) {
		return nil
	}
	return l.users.Save(ctx, rec)
}
