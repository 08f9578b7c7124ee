package auth

// Role is the fixed role taxonomy. Kept as string-typed constants so unknown
// values read from the store fail every capability check instead of panicking.
type Role string

const (
	RoleSystemAdmin      Role = "SYSTEM_ADMIN"
	RoleOfficeAdmin      Role = "OFFICE_ADMIN"
	RoleHRManager        Role = "HR_MANAGER"
	RoleHRExec           Role = "HR_EXEC"
	RolePayrollOfficer   Role = "PAYROLL_OFFICER"
	RoleManager          Role = "MANAGER"
	RoleTeamLead         Role = "TEAM_LEAD"
	RoleDeptHead         Role = "DEPT_HEAD"
	RoleFinanceManager   Role = "FINANCE_MANAGER"
	RoleAccountant       Role = "ACCOUNTANT"
	RoleSoftwareEngineer Role = "SOFTWARE_ENGINEER"
	RoleOperationsExec   Role = "OPERATIONS_EXEC"
	RoleSupportExec      Role = "SUPPORT_EXEC"
)

var allRoles = map[Role]struct{}{
	RoleSystemAdmin:      {},
	RoleOfficeAdmin:      {},
	RoleHRManager:        {},
	RoleHRExec:           {},
	RolePayrollOfficer:   {},
	RoleManager:          {},
	RoleTeamLead:         {},
	RoleDeptHead:         {},
	RoleFinanceManager:   {},
	RoleAccountant:       {},
	RoleSoftwareEngineer: {},
	RoleOperationsExec:   {},
	RoleSupportExec:      {},
}

func (r Role) Valid() bool {
	_, ok := allRoles[r]
	return ok
}

var adminRoles = map[Role]struct{}{
	RoleSystemAdmin: {},
	RoleOfficeAdmin: {},
}

var hrRoles = map[Role]struct{}{
	RoleHRManager:      {},
	RoleHRExec:         {},
	RolePayrollOfficer: {},
}

// Managers include the admin tier, matching the original permission matrix
// where admins hold every manager capability.
var managerRoles = map[Role]struct{}{
	RoleManager:        {},
	RoleTeamLead:       {},
	RoleDeptHead:       {},
	RoleHRManager:      {},
	RoleFinanceManager: {},
	RoleSystemAdmin:    {},
	RoleOfficeAdmin:    {},
}

func IsAdmin(r Role) bool {
	_, ok := adminRoles[r]
	return ok
}

func IsHR(r Role) bool {
	_, ok := hrRoles[r]
	return ok
}

func IsManager(r Role) bool {
	_, ok := managerRoles[r]
	return ok
}

// CanResolveApprovals gates the approve/reject action on approval requests.
func CanResolveApprovals(r Role) bool {
	return IsAdmin(r) || IsHR(r) || IsManager(r)
}

// CanViewAuditLogs gates the audit-log query endpoint.
func CanViewAuditLogs(r Role) bool {
	return IsAdmin(r)
}

// ApproverRoles lists every role that passes CanResolveApprovals, for
// queries that need the set in SQL form.
func ApproverRoles() []Role {
	var roles []Role
	for r := range allRoles {
		if CanResolveApprovals(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// ApprovalVisibility describes which approval requests a role may list.
type ApprovalVisibility int

const (
	// VisibilityOwn: only requests the user created.
	VisibilityOwn ApprovalVisibility = iota
	// VisibilityAssigned: own requests plus those assigned to the user.
	VisibilityAssigned
	// VisibilityAll: every request.
	VisibilityAll
)

func ApprovalVisibilityFor(r Role) ApprovalVisibility {
	switch {
	case IsAdmin(r) || IsHR(r):
		return VisibilityAll
	case IsManager(r):
		return VisibilityAssigned
	default:
		return VisibilityOwn
	}
}
