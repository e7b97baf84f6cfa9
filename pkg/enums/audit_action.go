package enums

import "fmt"

// AuditAction identifies the administrative operation an audit entry records.
type AuditAction string

const (
	AuditActionCreateDriver        AuditAction = "CREATE_DRIVER"
	AuditActionUpdateDriver        AuditAction = "UPDATE_DRIVER"
	AuditActionDeleteDriver        AuditAction = "DELETE_DRIVER"
	AuditActionCreateTransaction   AuditAction = "CREATE_TRANSACTION"
	AuditActionDeleteTransaction   AuditAction = "DELETE_TRANSACTION"
	AuditActionPaySalary           AuditAction = "PAY_SALARY"
	AuditActionReverseSalary       AuditAction = "REVERSE_SALARY_PAYMENT"
	AuditActionRefundSalary        AuditAction = "REFUND_SALARY_PAYMENT"
	AuditActionRequestReversal     AuditAction = "REQUEST_SALARY_REVERSAL"
	AuditActionRejectReversal      AuditAction = "REJECT_SALARY_REVERSAL"
	AuditActionCreateAdminUser     AuditAction = "CREATE_ADMIN_USER"
	AuditActionUpdateAdminUser     AuditAction = "UPDATE_ADMIN_USER"
	AuditActionDeactivateAdminUser AuditAction = "DEACTIVATE_ADMIN_USER"
	AuditActionSendNotification    AuditAction = "SEND_NOTIFICATION"
)

var validAuditActions = []AuditAction{
	AuditActionCreateDriver,
	AuditActionUpdateDriver,
	AuditActionDeleteDriver,
	AuditActionCreateTransaction,
	AuditActionDeleteTransaction,
	AuditActionPaySalary,
	AuditActionReverseSalary,
	AuditActionRefundSalary,
	AuditActionRequestReversal,
	AuditActionRejectReversal,
	AuditActionCreateAdminUser,
	AuditActionUpdateAdminUser,
	AuditActionDeactivateAdminUser,
	AuditActionSendNotification,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
