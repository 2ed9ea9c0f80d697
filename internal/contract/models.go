package contract

import "time"

// Contract is the root aggregate: a legal agreement tracked through the
// approval, signing and expiry workflow. Obligations, files and status history
// entries are owned by exactly one contract.
type Contract struct {
	ID              string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Title           string     `json:"title" bson:"title" gorm:"not null"`
	Partner         string     `json:"partner" bson:"partner" gorm:"not null"`
	Department      string     `json:"department" bson:"department" gorm:"not null"`
	Requester       string     `json:"requester" bson:"requester" gorm:"not null"`
	RequesterUserID *string    `json:"requesterUserId" bson:"requesterUserId,omitempty" gorm:"column:requester_user_id"`
	Status          Status     `json:"status" bson:"status" gorm:"type:varchar(32);index"`
	Priority        Priority   `json:"priority" bson:"priority" gorm:"type:varchar(16)"`
	CategoryID      *string    `json:"categoryId" bson:"categoryId,omitempty" gorm:"column:category_id;index"`
	Value           *float64   `json:"value" bson:"value,omitempty"`
	Description     string     `json:"description" bson:"description"`
	DocLink         *string    `json:"docLink" bson:"docLink,omitempty" gorm:"column:doc_link"`
	ReviewDeadline  *time.Time `json:"reviewDeadline" bson:"reviewDeadline,omitempty"`
	StartDate       *time.Time `json:"startDate" bson:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate" bson:"endDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (Contract) TableName() string { return "contracts" }

// Obligation is a dated commitment (payment, delivery, report...) tied to a contract.
// A nil DueDate is allowed for legacy rows; such obligations are counted but
// never receive a day-distance.
type Obligation struct {
	ID          string           `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ContractID  string           `json:"contractId" bson:"contractId" gorm:"column:contract_id;type:varchar(36);not null;index"`
	Type        ObligationType   `json:"type" bson:"type" gorm:"type:varchar(16)"`
	Description string           `json:"description" bson:"description"`
	DueDate     *time.Time       `json:"dueDate" bson:"dueDate,omitempty" gorm:"index"`
	Status      ObligationStatus `json:"status" bson:"status" gorm:"type:varchar(16)"`
	Amount      *float64         `json:"amount" bson:"amount,omitempty"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
}

func (Obligation) TableName() string { return "obligations" }

// Category is a shared label used for folder-style browsing.
type Category struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" bson:"name" gorm:"not null"`
	Slug      string    `json:"slug" bson:"slug" gorm:"uniqueIndex"`
	Icon      string    `json:"icon" bson:"icon"`
	CreatedBy *string   `json:"createdBy,omitempty" bson:"createdBy,omitempty" gorm:"column:created_by"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func (Category) TableName() string { return "contract_categories" }

// File points at binary content held in the object store.
type File struct {
	ID            string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ContractID    string    `json:"contractId" bson:"contractId" gorm:"column:contract_id;type:varchar(36);not null;index"`
	FileName      string    `json:"fileName" bson:"fileName" gorm:"column:file_name"`
	FilePath      string    `json:"filePath" bson:"filePath" gorm:"column:file_path"`
	FileType      string    `json:"fileType" bson:"fileType" gorm:"column:file_type"`
	UploadedBy    *string   `json:"uploadedBy" bson:"uploadedBy,omitempty" gorm:"column:uploaded_by"`
	IsLiquidation bool      `json:"isLiquidation" bson:"isLiquidation" gorm:"column:is_liquidation"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

func (File) TableName() string { return "contract_files" }

// StatusHistoryEntry is an append-only audit row written on every status change.
type StatusHistoryEntry struct {
	ID            string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ContractID    string    `json:"contractId" bson:"contractId" gorm:"column:contract_id;type:varchar(36);not null;index"`
	OldStatus     *Status   `json:"oldStatus" bson:"oldStatus,omitempty" gorm:"column:old_status;type:varchar(32)"`
	NewStatus     Status    `json:"newStatus" bson:"newStatus" gorm:"column:new_status;type:varchar(32)"`
	ChangedBy     *string   `json:"changedBy" bson:"changedBy,omitempty" gorm:"column:changed_by"`
	ChangedByName *string   `json:"changedByName" bson:"changedByName,omitempty" gorm:"column:changed_by_name"`
	Note          *string   `json:"note" bson:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

func (StatusHistoryEntry) TableName() string { return "contract_status_history" }
