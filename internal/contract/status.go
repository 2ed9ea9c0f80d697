package contract

// Status is the stored approval-workflow state of a contract.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPendingReview Status = "pending_review"
	StatusInReview      Status = "in_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusSigned        Status = "signed"
	StatusActive        Status = "active"
	StatusExpired       Status = "expired"
	StatusLiquidated    Status = "liquidated"
)

// AllStatuses lists contract statuses in workflow order.
var AllStatuses = []Status{
	StatusDraft, StatusPendingReview, StatusInReview, StatusApproved, StatusRejected,
	StatusSigned, StatusActive, StatusExpired, StatusLiquidated,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type ObligationStatus string

const (
	ObligationPending   ObligationStatus = "pending"
	ObligationCompleted ObligationStatus = "completed"
	ObligationOverdue   ObligationStatus = "overdue"
)

type ObligationType string

const (
	ObligationPayment    ObligationType = "payment"
	ObligationDelivery   ObligationType = "delivery"
	ObligationReporting  ObligationType = "reporting"
	ObligationRenewal    ObligationType = "renewal"
	ObligationCompliance ObligationType = "compliance"
	ObligationOther      ObligationType = "other"
)

// Severity is the presentation tier attached to a status or priority.
type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeverityInfo    Severity = "informational"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Badge is a display label plus severity for a stored code.
type Badge struct {
	Code     string   `json:"code"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

type badgeDef struct {
	label    string
	severity Severity
}

var statusBadges = map[Status]badgeDef{
	StatusDraft:         {"Draft", SeverityNeutral},
	StatusPendingReview: {"Pending review", SeverityWarning},
	StatusInReview:      {"In review", SeverityInfo},
	StatusApproved:      {"Approved", SeverityInfo},
	StatusRejected:      {"Rejected", SeverityDanger},
	StatusSigned:        {"Signed", SeverityInfo},
	StatusActive:        {"Active", SeverityInfo},
	StatusExpired:       {"Expired", SeverityNeutral},
	StatusLiquidated:    {"Liquidated", SeverityNeutral},
}

var priorityBadges = map[Priority]badgeDef{
	PriorityLow:    {"Low", SeverityNeutral},
	PriorityMedium: {"Medium", SeverityInfo},
	PriorityHigh:   {"High", SeverityWarning},
	PriorityUrgent: {"Urgent", SeverityDanger},
}

var obligationBadges = map[ObligationStatus]badgeDef{
	ObligationPending:   {"Pending", SeverityWarning},
	ObligationCompleted: {"Completed", SeverityInfo},
	ObligationOverdue:   {"Overdue", SeverityDanger},
}

var obligationTypeLabels = map[ObligationType]string{
	ObligationPayment:    "Payment",
	ObligationDelivery:   "Delivery",
	ObligationReporting:  "Reporting",
	ObligationRenewal:    "Renewal",
	ObligationCompliance: "Compliance",
	ObligationOther:      "Other",
}

var departmentLabels = map[string]string{
	"sales":       "Sales",
	"marketing":   "Marketing",
	"engineering": "Engineering",
	"finance":     "Finance",
	"hr":          "Human resources",
	"operations":  "Operations",
}

// Unrecognized codes read from storage degrade to the raw code with a neutral
// tier instead of failing.
func badge(code string, def badgeDef, ok bool) Badge {
	if !ok {
		return Badge{Code: code, Label: code, Severity: SeverityNeutral}
	}
	return Badge{Code: code, Label: def.label, Severity: def.severity}
}

func StatusBadge(s Status) Badge {
	def, ok := statusBadges[s]
	return badge(string(s), def, ok)
}

func PriorityBadge(p Priority) Badge {
	def, ok := priorityBadges[p]
	return badge(string(p), def, ok)
}

func ObligationStatusBadge(s ObligationStatus) Badge {
	def, ok := obligationBadges[s]
	return badge(string(s), def, ok)
}

func ObligationTypeLabel(t ObligationType) string {
	if l, ok := obligationTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

func DepartmentLabel(d string) string {
	if l, ok := departmentLabels[d]; ok {
		return l
	}
	return d
}

// Valid reports whether s is one of the nine known statuses.
func (s Status) Valid() bool {
	_, ok := statusBadges[s]
	return ok
}

func (t ObligationType) Valid() bool {
	_, ok := obligationTypeLabels[t]
	return ok
}

func (p Priority) Valid() bool {
	_, ok := priorityBadges[p]
	return ok
}
