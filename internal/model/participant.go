package model

// Participant is a member of a conversation as seen by the viewer.
type Participant struct {
	UserID      int64
	DisplayName string
	AvatarURL   *string
	Role        string
	IsViewer    bool
}

// Participant role constants for the loan-application domain.
const (
	RoleBorrower    = "borrower"
	RoleLoanOfficer = "loan_officer"
	RoleProcessor   = "processor"
	RoleUnderwriter = "underwriter"
)
