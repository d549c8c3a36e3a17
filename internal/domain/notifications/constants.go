package notifications

const (
	TypeLeaveSubmitted      = "leave_submitted"
	TypeLeaveApproved       = "leave_approved"
	TypeLeaveRejected       = "leave_rejected"
	TypeAttendanceCorrected = "attendance_corrected"
	TypePayslipPublished    = "payslip_published"
	TypeDocumentShared      = "document_shared"
)
