package models

import "time"

// CompletedMilestone is reported as the current milestone once every stage is done
const CompletedMilestone = "Completed"

var milestoneNames = [...]string{
	"Order Received",
	"Design Sketch",
	"Wax Model Creation",
	"Metal Casting",
	"Stone Setting",
	"Final Polish",
	"Quality Check",
	"Delivery",
}

// MilestoneNames returns the fixed production checklist in order
func MilestoneNames() []string {
	return append([]string(nil), milestoneNames[:]...)
}

// NewMilestones builds the checklist for a new order. The intake milestone is
// completed at creation time, everything else starts pending.
func NewMilestones(orderID uint, now time.Time) []Milestone {
	milestones := make([]Milestone, len(milestoneNames))
	for i, name := range milestoneNames {
		milestones[i] = Milestone{
			OrderID: orderID,
			ID:      uint(i + 1),
			Name:    name,
			Status:  MilestonePending,
			Images:  StringList(nil),
		}
	}
	created := now
	milestones[0].Status = MilestoneCompleted
	milestones[0].Date = &created
	milestones[0].Notes = "Order placed and payment confirmed"
	return milestones
}

// Phase is the order-level state shown to customers
type Phase string

const (
	PhaseReceived   Phase = "Order Received"
	PhaseAssigned   Phase = "Assigned"
	PhaseInProgress Phase = "In Progress"
	PhaseCompleted  Phase = "Completed"
)

// Progress is the order-level view derived from milestones and assignment.
// DesignerID carries the assignment fact regardless of Phase.
type Progress struct {
	Phase            Phase  `json:"phase"`
	DesignerID       *uint  `json:"designer_id,omitempty"`
	Assigned         bool   `json:"assigned"`
	MilestoneIndex   int    `json:"milestone_index"` // len(milestones) once completed
	CurrentMilestone string `json:"current_milestone"`
}

// EvaluateProgress derives the order phase. Precedence is
// Completed > In Progress > Assigned > Order Received.
func EvaluateProgress(milestones []Milestone, designerID *uint, startedAt *time.Time) Progress {
	p := Progress{
		DesignerID:     designerID,
		Assigned:       designerID != nil,
		MilestoneIndex: len(milestones),
	}
	if len(milestones) == 0 {
		p.Phase = PhaseReceived
		return p
	}

	p.CurrentMilestone = CompletedMilestone
	for i, m := range milestones {
		if m.Status != MilestoneCompleted {
			p.MilestoneIndex = i
			p.CurrentMilestone = m.Name
			break
		}
	}

	switch {
	case p.MilestoneIndex == len(milestones):
		p.Phase = PhaseCompleted
	case startedAt != nil:
		p.Phase = PhaseInProgress
	default:
		// Before any milestone update the order reports its intake stage.
		p.MilestoneIndex = 0
		p.CurrentMilestone = milestones[0].Name
		if designerID != nil {
			p.Phase = PhaseAssigned
		} else {
			p.Phase = PhaseReceived
		}
	}
	return p
}

// MilestonePatch is a partial update of a milestone. Images replaces the
// evidence list when non-nil; AppendImages adds to it.
type MilestonePatch struct {
	Status       *MilestoneStatus `json:"status" binding:"omitempty,oneof=pending in_progress awaiting_approval completed"`
	Notes        *string          `json:"notes"`
	Images       []string         `json:"images"`
	AppendImages []string         `json:"append_images"`
}

// Apply merges the patch. The completion date is stamped only when the
// milestone moves into completed, so re-completing keeps the first date.
func (m *Milestone) Apply(patch MilestonePatch, now time.Time) {
	wasCompleted := m.Status == MilestoneCompleted

	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
	}
	if patch.Images != nil {
		m.Images = StringList(append([]string(nil), patch.Images...))
	}
	if len(patch.AppendImages) > 0 {
		m.Images = append(StringList(m.Images), patch.AppendImages...)
	}

	if m.Status == MilestoneCompleted && (!wasCompleted || m.Date == nil) {
		completed := now
		m.Date = &completed
	}
}
